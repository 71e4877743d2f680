package csvfile

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Writer writes per-station and combined tables into one output directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir. The directory is created on the
// first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// IntegratedHeader is the column order of the aligned pollutant table.
func IntegratedHeader() []string {
	header := []string{"datetime"}
	for _, p := range domain.Pollutants {
		header = append(header, string(p))
	}
	return header
}

// AQIHeader is the column order of the full AQI table: each concentration is
// followed by its sub-index.
func AQIHeader() []string {
	header := []string{"datetime"}
	for _, p := range domain.Pollutants {
		header = append(header, string(p), p.AQIColumn())
	}
	return append(header, "overall_aqi", "main_pollutant", "aqi_level")
}

// SimpleAQIHeader is the column order of the simplified AQI table.
func SimpleAQIHeader() []string {
	return []string{"datetime", "aqi", "main_pollutant", "aqi_level"}
}

// WriteIntegrated writes <station>_integrated.csv.
func (w *Writer) WriteIntegrated(t domain.AlignedTable) (string, error) {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := []string{r.Day.Format(domain.DayLayout)}
		for _, p := range domain.Pollutants {
			v, ok := r.Concentration(p)
			row = append(row, formatOptional(v, ok))
		}
		rows = append(rows, row)
	}
	return w.write(t.Station+"_integrated.csv", IntegratedHeader(), rows)
}

// WriteAQI writes <station>_aqi.csv with concentrations, sub-indices and the
// overall index.
func (w *Writer) WriteAQI(station string, records []domain.DailyRecord) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{r.Day.Format(domain.DayLayout)}
		for _, p := range domain.Pollutants {
			v, ok := r.Concentrations[p]
			idx, hasIdx := r.SubIndices[p]
			row = append(row, formatOptional(v, ok), formatIndex(idx, hasIdx))
		}
		row = append(row, formatAQI(r.AQI), r.MainPollutant(), string(r.Level))
		rows = append(rows, row)
	}
	return w.write(station+"_aqi.csv", AQIHeader(), rows)
}

// WriteSimpleAQI writes <station>_aqi_simple.csv. Days without an overall AQI
// are left out.
func (w *Writer) WriteSimpleAQI(station string, records []domain.DailyRecord) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if r.AQI == nil {
			continue
		}
		rows = append(rows, []string{
			r.Day.Format(domain.DayLayout),
			strconv.Itoa(*r.AQI),
			r.MainPollutant(),
			string(r.Level),
		})
	}
	return w.write(station+"_aqi_simple.csv", SimpleAQIHeader(), rows)
}

// WriteTraining writes a training set as SITE, DATE, weather columns, MONTH
// and AQI.
func (w *Writer) WriteTraining(name string, set domain.TrainingSet) (string, error) {
	header := append([]string{"SITE", "DATE"}, set.Columns...)
	header = append(header, "MONTH", "AQI")

	rows := make([][]string, 0, len(set.Rows))
	for _, r := range set.Rows {
		row := []string{r.Site, r.Day.Format(domain.DayLayout)}
		for _, c := range set.Columns {
			v := r.Weather[c]
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(*v))
		}
		row = append(row, strconv.Itoa(r.Month), strconv.Itoa(r.AQI))
		rows = append(rows, row)
	}
	return w.write(name, header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write %s header: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.Info("wrote csv", "path", path, "rows", len(rows))
	return path, f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(v)
}

func formatIndex(idx int, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.Itoa(idx)
}

func formatAQI(aqi *int) string {
	if aqi == nil {
		return ""
	}
	return strconv.Itoa(*aqi)
}
