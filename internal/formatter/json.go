package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/report"
	"github.com/yildizm/ocuprofile/internal/shaper"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(rep *report.Report) ([]byte, error) {
	output := &JSONOutput{
		Source:       rep.Source,
		GeneratedAt:  rep.GeneratedAt,
		Result:       rep.Result,
		Summary:      rep.Cards,
		Distribution: rep.Distribution,
		Radar:        rep.Radar,
		AxisBounds:   rep.Bounds,
		Conclusions:  rep.Conclusions,
	}

	output.Clusters = make([]*ClusterOutput, 0, len(rep.Clusters))
	for _, c := range rep.Clusters {
		output.Clusters = append(output.Clusters, &ClusterOutput{
			Label:     c.Label,
			Name:      c.Interpretation.Name,
			Color:     c.Interpretation.Color,
			Narrative: c.Interpretation.Narrative,
			Known:     c.Interpretation.Known,
		})
	}

	return json.MarshalIndent(output, "", "  ")
}

// JSONOutput is the document written by the JSON formatter. Result keeps
// the service layout so the output can be fed back to other tools.
type JSONOutput struct {
	Source       string                     `json:"source,omitempty"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Result       *analysis.Result           `json:"result"`
	Summary      []report.Card              `json:"summary"`
	Distribution []shaper.DistributionPoint `json:"distribution"`
	Radar        []shaper.RadarPoint        `json:"radar"`
	AxisBounds   []shaper.Bounds            `json:"axis_bounds"`
	Clusters     []*ClusterOutput           `json:"clusters"`
	Conclusions  []string                   `json:"conclusions"`
}

// ClusterOutput is the interpretation attached to one cluster
type ClusterOutput struct {
	Label     string `json:"label"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Narrative string `json:"narrative"`
	Known     bool   `json:"known"`
}
