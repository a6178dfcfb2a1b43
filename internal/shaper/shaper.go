// Package shaper projects a validated analysis result into the series each
// chart type consumes. All functions are pure and never reorder clusters.
package shaper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

// DistributionPoint is one bar of the distribution chart
type DistributionPoint struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RadarPoint is one axis of the radar chart. Values is keyed by cluster
// label; Labels keeps the cluster order.
type RadarPoint struct {
	Axis   string
	Labels []string
	Values map[string]float64
}

// Bounds is the value range of one feature across all clusters
type Bounds struct {
	Feature string  `json:"feature"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ClusterLabel returns the display label of cluster i (0-indexed)
func ClusterLabel(i int) string {
	return fmt.Sprintf("Group %d", i+1)
}

// ClusterLabels returns the labels of all clusters in order
func ClusterLabels(r *analysis.Result) []string {
	if r == nil {
		return nil
	}
	labels := make([]string, len(r.Clusters))
	for i := range r.Clusters {
		labels[i] = ClusterLabel(i)
	}
	return labels
}

// DistributionSeries returns one point per cluster, in cluster order
func DistributionSeries(r *analysis.Result) []DistributionPoint {
	if r == nil {
		return []DistributionPoint{}
	}
	points := make([]DistributionPoint, 0, len(r.Clusters))
	for i, c := range r.Clusters {
		points = append(points, DistributionPoint{
			Label:      ClusterLabel(i),
			Count:      c.Count,
			Percentage: c.Percentage,
		})
	}
	return points
}

// RadarSeries returns one point per feature, in declared feature order.
// Each point holds every cluster's mean for that feature.
func RadarSeries(r *analysis.Result) []RadarPoint {
	if r == nil {
		return []RadarPoint{}
	}
	labels := ClusterLabels(r)
	points := make([]RadarPoint, 0, len(r.Features))
	for _, feature := range r.Features {
		values := make(map[string]float64, len(r.Clusters))
		for i, c := range r.Clusters {
			values[labels[i]] = c.Features[feature].Mean
		}
		points = append(points, RadarPoint{Axis: feature, Labels: labels, Values: values})
	}
	return points
}

// Value returns the value for a cluster label
func (p RadarPoint) Value(label string) (float64, bool) {
	v, ok := p.Values[label]
	return v, ok
}

// MarshalJSON writes {"axis": ..., "Group 1": ..., ...} with cluster labels
// in cluster order.
func (p RadarPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	key, err := json.Marshal("axis")
	if err != nil {
		return nil, err
	}
	axis, err := json.Marshal(p.Axis)
	if err != nil {
		return nil, err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(axis)

	for _, label := range p.Labels {
		name, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Values[label])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AxisBounds returns, per feature, the lowest min and highest max across
// clusters. Used to scale radar axes.
func AxisBounds(r *analysis.Result) []Bounds {
	if r == nil {
		return []Bounds{}
	}
	bounds := make([]Bounds, 0, len(r.Features))
	for _, feature := range r.Features {
		b := Bounds{Feature: feature, Min: math.Inf(1), Max: math.Inf(-1)}
		for _, c := range r.Clusters {
			s := c.Features[feature]
			b.Min = math.Min(b.Min, s.Min)
			b.Max = math.Max(b.Max, s.Max)
		}
		if len(r.Clusters) == 0 {
			b.Min, b.Max = 0, 0
		}
		bounds = append(bounds, b)
	}
	return bounds
}

// Normalize maps v into [0,1] within b. A degenerate range maps to 0.5.
func (b Bounds) Normalize(v float64) float64 {
	span := b.Max - b.Min
	if span <= 0 {
		return 0.5
	}
	n := (v - b.Min) / span
	return math.Max(0, math.Min(1, n))
}
