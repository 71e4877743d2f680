// Package xlsx exports daily AQI tables as an Excel workbook.
package xlsx

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// StationSheet is one worksheet: a station's daily records in day order.
type StationSheet struct {
	Station string
	Records []domain.DailyRecord
}

// Header returns the worksheet column order.
func Header() []string {
	header := []string{"datetime"}
	for _, p := range domain.Pollutants {
		header = append(header, string(p), p.AQIColumn())
	}
	return append(header, "overall_aqi", "main_pollutant", "aqi_level")
}

// WriteWorkbook saves one sheet per station to path, in argument order.
// Missing values are left as empty cells.
func WriteWorkbook(path string, sheets []StationSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(sheets) == 0 {
		return fmt.Errorf("write workbook %s: no stations", path)
	}

	first := f.GetSheetName(0)
	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := sheetName(s.Station, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s.Records); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, records []domain.DailyRecord) error {
	if err := setRow(f, sheet, 1, toCells(Header())); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{r.Day.Format(domain.DayLayout)}
		for _, p := range domain.Pollutants {
			row = append(row, optionalFloat(r.Concentrations, p), optionalInt(r.SubIndices, p))
		}
		var aqi any
		if r.AQI != nil {
			aqi = *r.AQI
		}
		row = append(row, aqi, r.MainPollutant(), string(r.Level))
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write sheet %q row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func optionalFloat(m map[domain.Pollutant]float64, p domain.Pollutant) any {
	if v, ok := m[p]; ok {
		return v
	}
	return nil
}

func optionalInt(m map[domain.Pollutant]int, p domain.Pollutant) any {
	if v, ok := m[p]; ok {
		return v
	}
	return nil
}

// sheetName makes a station name usable as a unique worksheet name.
func sheetName(station string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, station)
	if name == "" {
		name = "station"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = base[:min(len(base), maxSheetName-len(suffix))] + suffix
	}
	used[name] = true
	return name
}
