package analysis

import (
	"encoding/json"
)

// Wire keys of a cluster object that are not feature names
const (
	KeyCount            = "count"
	KeyPercentage       = "percentage"
	KeyCorrectFrequency = "correct_frequency"
)

// Result is a validated clustering result returned by the analysis service.
// It is never mutated after validation.
type Result struct {
	TotalRecords int           `json:"total_records"`
	NumClusters  int           `json:"num_clusters"`
	Features     []string      `json:"features"`
	Clusters     []ClusterStat `json:"clusters"`
}

// FeatureSummary holds the statistics of one feature inside one cluster
type FeatureSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ClusterStat describes one cluster. Features is keyed by feature name and
// holds an entry for every name in Result.Features.
type ClusterStat struct {
	Count      int
	Percentage float64
	Features   map[string]FeatureSummary

	// CorrectFrequency is reported by some service versions; nil when absent.
	CorrectFrequency *float64
}

// Summary returns the summary of feature, if present
func (c ClusterStat) Summary(feature string) (FeatureSummary, bool) {
	s, ok := c.Features[feature]
	return s, ok
}

// MarshalJSON flattens feature summaries into the cluster object, matching
// the wire layout of the analysis service.
func (c ClusterStat) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Features)+3)
	for name, s := range c.Features {
		out[name] = s
	}
	out[KeyCount] = c.Count
	out[KeyPercentage] = c.Percentage
	if c.CorrectFrequency != nil {
		out[KeyCorrectFrequency] = *c.CorrectFrequency
	}
	return json.Marshal(out)
}
