// Package report assembles everything the presentation layer shows for one
// analysis: summary cards, chart series, interpretations and conclusions.
package report

import (
	"fmt"
	"time"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/interpret"
	"github.com/yildizm/ocuprofile/internal/shaper"
)

// Card is one headline number
type Card struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Cluster is one cluster as presented to the user
type Cluster struct {
	Label          string                   `json:"label"`
	Interpretation interpret.Interpretation `json:"interpretation"`
	Stat           analysis.ClusterStat     `json:"stats"`
}

// Report is built once per successful analysis and only read afterwards
type Report struct {
	Source       string                     `json:"source"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Result       *analysis.Result           `json:"-"`
	Cards        []Card                     `json:"summary"`
	Distribution []shaper.DistributionPoint `json:"distribution"`
	Radar        []shaper.RadarPoint        `json:"radar"`
	Bounds       []shaper.Bounds            `json:"axis_bounds"`
	Clusters     []Cluster                  `json:"clusters"`
	Conclusions  []string                   `json:"conclusions"`
}

// Build derives a report from a validated result
func Build(source string, result *analysis.Result) (*Report, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot build report: no result")
	}

	r := &Report{
		Source:      source,
		GeneratedAt: time.Now(),
		Result:      result,
		Cards: []Card{
			{Label: "Total de Registros", Value: result.TotalRecords},
			{Label: "Grupos Identificados", Value: result.NumClusters},
			{Label: "Variáveis Analisadas", Value: len(result.Features)},
		},
		Distribution: shaper.DistributionSeries(result),
		Radar:        shaper.RadarSeries(result),
		Bounds:       shaper.AxisBounds(result),
		Conclusions:  interpret.Conclusions(result),
	}

	interps := interpret.ResolveAll(result)
	r.Clusters = make([]Cluster, len(result.Clusters))
	for i, stat := range result.Clusters {
		r.Clusters[i] = Cluster{
			Label:          shaper.ClusterLabel(i),
			Interpretation: interps[i],
			Stat:           stat,
		}
	}

	return r, nil
}

// Features returns the feature names in declared order
func (r *Report) Features() []string {
	if r.Result == nil {
		return nil
	}
	return r.Result.Features
}

// Labels returns the cluster labels in cluster order
func (r *Report) Labels() []string {
	labels := make([]string, len(r.Clusters))
	for i, c := range r.Clusters {
		labels[i] = c.Label
	}
	return labels
}
