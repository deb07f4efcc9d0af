package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// Options controls the text form of a trajectory.
type Options struct {
	// Precision is the number of significant digits; negative selects the
	// shortest representation that parses back to the same value.
	Precision int
	// WithTime prepends the sample time as the first column.
	WithTime bool
}

func DefaultOptions() Options {
	return Options{Precision: -1}
}

// Write writes traj to w, one tab-separated line per sample.
func Write(w io.Writer, traj *dynamo.Trajectory, opts Options) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 160)

	for _, s := range traj.Samples {
		buf = buf[:0]
		if opts.WithTime {
			buf = strconv.AppendFloat(buf, s.Time, 'g', opts.Precision, 64)
			buf = append(buf, '\t')
		}
		for i, v := range s.State.Components() {
			if i > 0 {
				buf = append(buf, '\t')
			}
			buf = strconv.AppendFloat(buf, v, 'g', opts.Precision, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes traj to path through a temporary file in the same
// directory, compressing with zstd when path ends in .zst.
func WriteFile(path string, traj *dynamo.Trajectory, opts Options) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if isCompressed(path) {
		enc, err := zstd.NewWriter(tmp)
		if err != nil {
			return err
		}
		if err := Write(enc, traj, opts); err != nil {
			enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else if err := Write(tmp, traj, opts); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read parses a trajectory written by Write. Lines with seven columns
// carry the time first; with six columns the sample index is used as the
// time.
func Read(r io.Reader) (*dynamo.Trajectory, error) {
	traj := dynamo.NewTrajectory(64)
	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 6 && len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 6 or 7 columns, got %d", line, len(fields))
		}

		vals := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}

		t := float64(traj.Len())
		if len(vals) == 7 {
			t, vals = vals[0], vals[1:]
		}
		traj.Append(t, dynamo.NewState(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return traj, nil
}

// ReadFile reads a trajectory file, decompressing .zst paths.
func ReadFile(path string) (*dynamo.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	traj, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return traj, nil
}

func isCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}
