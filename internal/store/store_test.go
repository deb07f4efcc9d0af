package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

func sampleTrajectory() *dynamo.Trajectory {
	traj := dynamo.NewTrajectory(3)
	traj.Append(0, dynamo.NewState(7000, 0, 0, 0, 7.546049108166282, 0))
	traj.Append(0.1, dynamo.NewState(6999.999971, 0.7546049, 0, -8.1e-05, 7.546049, 0))
	traj.Append(2.5, dynamo.NewState(6999.98, 18.865, 0, -0.002, 7.546, 1e-12))
	return traj
}

func TestWrite_Default(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTrajectory(), DefaultOptions()))

	want := "7000\t0\t0\t0\t7.546049108166282\t0\n" +
		"6999.999971\t0.7546049\t0\t-8.1e-05\t7.546049\t0\n" +
		"6999.98\t18.865\t0\t-0.002\t7.546\t1e-12\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_PrecisionAndTime(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTrajectory(), Options{Precision: 6, WithTime: true}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "0\t7000\t0\t0\t0\t7.54605\t0", string(lines[0]))
	assert.Equal(t, "0.1\t7000\t0.754605\t0\t-8.1e-05\t7.54605\t0", string(lines[1]))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	for _, name := range []string{"states.csv", "states.tsv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			traj := sampleTrajectory()

			require.NoError(t, WriteFile(path, traj, Options{Precision: -1, WithTime: true}))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, traj.Samples, got.Samples)
		})
	}
}

func TestWriteFile_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.zst")
	require.NoError(t, WriteFile(path, sampleTrajectory(), DefaultOptions()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd magic")
}

func TestWriteFile_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "states.csv")

	err := WriteFile(path, sampleTrajectory(), DefaultOptions())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "out.csv"), sampleTrajectory(), DefaultOptions()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestRead_WithoutTime(t *testing.T) {
	traj, err := Read(bytes.NewBufferString("1 2 3 4 5 6\n\n7 8 9 10 11 12\n"))
	require.NoError(t, err)
	require.Equal(t, 2, traj.Len())
	assert.Equal(t, []float64{0, 1}, traj.Times())
	assert.Equal(t, dynamo.NewState(7, 8, 9, 10, 11, 12), traj.Last().State)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(bytes.NewBufferString("1 2 3\n"))
	assert.ErrorContains(t, err, "line 1: expected 6 or 7 columns, got 3")

	_, err = Read(bytes.NewBufferString("1 2 3 4 5 6\n1 2 3 4 5 x\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestExportJSON(t *testing.T) {
	settings := dynamo.DefaultSettings()
	cfg := dynamo.Config{Name: "leo", StopTime: 2.5}

	var buf bytes.Buffer
	data := NewExportData(cfg, &settings, sampleTrajectory(), map[string]float64{"steps": 2})
	require.NoError(t, ExportJSON(&buf, data))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "leo", got.Name)
	assert.Equal(t, 2, got.Steps)
	require.Len(t, got.Samples, 3)
	assert.Equal(t, 2.5, got.Samples[2].Time)
	assert.Equal(t, [3]float64{6999.98, 18.865, 0}, got.Samples[2].Position)
	assert.Equal(t, settings, *got.Settings)
	assert.Contains(t, buf.String(), `"accuracy": 1`)
}
