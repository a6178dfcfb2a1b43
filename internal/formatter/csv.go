package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/yildizm/ocuprofile/internal/report"
)

// csvFormatter writes one row per cluster and feature
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(rep *report.Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"cluster",
		"name",
		"count",
		"percentage",
		"feature",
		"mean",
		"std",
		"min",
		"max",
	}

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, cluster := range rep.Clusters {
		for _, feature := range rep.Features() {
			s, ok := cluster.Stat.Summary(feature)
			if !ok {
				continue
			}

			record := []string{
				cluster.Label,
				cluster.Interpretation.Name,
				strconv.Itoa(cluster.Stat.Count),
				formatCSVFloat(cluster.Stat.Percentage),
				feature,
				formatCSVFloat(s.Mean),
				formatCSVFloat(s.Std),
				formatCSVFloat(s.Min),
				formatCSVFloat(s.Max),
			}

			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}

func formatCSVFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
