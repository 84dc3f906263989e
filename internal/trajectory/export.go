package trajectory

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/duffsim/internal/engine"
)

type ExportData struct {
	ID         string              `json:"id,omitempty"`
	Integrator string              `json:"integrator"`
	Parameters engine.Parameters   `json:"parameters"`
	Initial    engine.InitialState `json:"initial"`
	Steps      int                 `json:"steps"`
	Samples    []engine.Sample     `json:"samples"`
	Metrics    map[string]float64  `json:"metrics,omitempty"`
}

// WriteJSON encodes data as indented JSON. encoding/json cannot represent
// NaN or Inf, so diverged runs must use the text format.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

const sheetName = "trajectory"

// WriteXLSX writes samples to a spreadsheet with a header row.
func WriteXLSX(path string, samples []engine.Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for col, name := range Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for i, s := range samples {
		row := i + 2
		for col, v := range []float64{s.Position, s.Velocity, s.Time} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellFloat(sheetName, cell, v, -1, 64); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// ReadXLSX reads back a sheet written by WriteXLSX.
func ReadXLSX(path string) ([]engine.Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(strings.Join(r, " "))
		b.WriteByte('\n')
	}
	return ReadText(strings.NewReader(b.String()))
}
