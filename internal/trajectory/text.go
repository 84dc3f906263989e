package trajectory

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/san-kum/duffsim/internal/engine"
)

// Columns names the persisted columns in order.
var Columns = []string{"position", "velocity", "time"}

type TextOptions struct {
	// Delimiter separates columns. Zero means a single space.
	Delimiter rune
	Header    bool
}

// ParseError reports a malformed row.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var ErrColumnCount = errors.New("trajectory: expected 3 columns")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteText writes samples in the three-column text format.
func WriteText(w io.Writer, samples []engine.Sample, opts TextOptions) error {
	cw := csv.NewWriter(w)
	cw.Comma = ' '
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if opts.Header {
		if err := cw.Write(Columns); err != nil {
			return err
		}
	}

	row := make([]string, 3)
	for _, s := range samples {
		row[0] = formatFloat(s.Position)
		row[1] = formatFloat(s.Velocity)
		row[2] = formatFloat(s.Time)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ReadText parses the three-column text format. A first row of three
// non-numeric fields is taken as a header and skipped; blank lines are
// ignored. Any other malformed row is a ParseError.
func ReadText(r io.Reader) ([]engine.Sample, error) {
	sc := bufio.NewScanner(r)
	samples := make([]engine.Sample, 0)
	lineNo := 0
	seenRow := false

	for sc.Scan() {
		lineNo++
		fields := splitFields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		var vals [3]float64
		var perr error
		if len(fields) != 3 {
			perr = fmt.Errorf("got %d: %w", len(fields), ErrColumnCount)
		} else {
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					perr = err
					break
				}
				vals[i] = v
			}
		}

		if perr != nil {
			if !seenRow && isHeader(fields) {
				seenRow = true
				continue
			}
			return nil, &ParseError{Line: lineNo, Err: perr}
		}

		seenRow = true
		samples = append(samples, engine.Sample{Position: vals[0], Velocity: vals[1], Time: vals[2]})
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func isHeader(fields []string) bool {
	if len(fields) != len(Columns) {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return false
		}
	}
	return true
}
