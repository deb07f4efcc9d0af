package config

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// legacyFields is the number of values in a legacy config:
// start stop px py pz vx vy vz.
const legacyFields = 8

// ParseLegacy reads the whitespace-separated legacy format. Values are
// consumed in order and reading stops at the first token that is not a
// finite number; anything after the eighth value is ignored. Errors are
// *dynamo.ConfigError values carrying name and the line of the problem.
func ParseLegacy(r io.Reader, name string) (dynamo.Config, error) {
	var (
		values [legacyFields]float64
		count  int
		line   int
		bad    string
	)

	sc := bufio.NewScanner(r)
scan:
	for sc.Scan() {
		line++
		for _, tok := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				bad = tok
				break scan
			}
			values[count] = v
			count++
			if count == legacyFields {
				break scan
			}
		}
	}
	if err := sc.Err(); err != nil {
		return dynamo.Config{}, &dynamo.ConfigError{
			Path:    name,
			Wrapped: fmt.Errorf("%w: %w", dynamo.ErrConfigUnreadable, err),
		}
	}

	if count < legacyFields {
		msg := fmt.Sprintf("expected %d numbers, found %d", legacyFields, count)
		if bad != "" {
			msg += fmt.Sprintf(" before %q", bad)
		}
		return dynamo.Config{}, &dynamo.ConfigError{
			Path:    name,
			Line:    line,
			Wrapped: fmt.Errorf("%w: %s", dynamo.ErrConfigMalformed, msg),
		}
	}

	return dynamo.Config{
		Name:         name,
		StartTime:    values[0],
		StopTime:     values[1],
		InitialState: dynamo.NewState(values[2], values[3], values[4], values[5], values[6], values[7]),
	}, nil
}

// WriteLegacy writes cfg in the legacy layout: the interval on the first
// line and the six state components on the second. Values use the
// shortest representation that parses back to the same float64.
func WriteLegacy(w io.Writer, cfg dynamo.Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s\n", formatFloat(cfg.StartTime), formatFloat(cfg.StopTime))

	c := cfg.InitialState.Components()
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = formatFloat(v)
	}
	fmt.Fprintln(bw, strings.Join(parts, " "))
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
