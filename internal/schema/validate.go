// Package schema checks analysis service responses before anything else
// is allowed to read them.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

var topLevelKeys = []string{"total_records", "num_clusters", "features", "clusters"}

var summaryKeys = []string{"mean", "std", "min", "max"}

// Decode parses a JSON body and validates it
func Decode(body []byte) (*analysis.Result, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, analysis.NewSchemaError("", "response body is not valid JSON: %v", err)
	}
	return Validate(raw)
}

// Validate turns a decoded response body into a Result. It stops at the
// first violated invariant and reports it as *analysis.SchemaError.
func Validate(raw interface{}) (*analysis.Result, error) {
	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil, analysis.NewSchemaError("", "response must be a JSON object, got %s", kindOf(raw))
	}

	result, rawFeatures, rawClusters, err := checkTopLevel(root)
	if err != nil {
		return nil, err
	}

	if result.Features, err = checkFeatures(rawFeatures); err != nil {
		return nil, err
	}

	if len(rawClusters) != result.NumClusters {
		return nil, analysis.NewSchemaError("clusters",
			"length %d does not match num_clusters %d", len(rawClusters), result.NumClusters)
	}

	objects, err := checkClusterShape(rawClusters, result.Features)
	if err != nil {
		return nil, err
	}

	clusters := make([]analysis.ClusterStat, len(objects))
	for i, obj := range objects {
		clusters[i], err = buildCluster(i, obj, result.Features)
		if err != nil {
			return nil, err
		}
	}

	if err := checkOrdering(clusters, result.Features); err != nil {
		return nil, err
	}
	if err := checkPercentages(objects, clusters); err != nil {
		return nil, err
	}

	result.Clusters = clusters
	return result, nil
}

func checkTopLevel(root map[string]interface{}) (*analysis.Result, []interface{}, []interface{}, error) {
	for _, key := range topLevelKeys {
		if _, ok := root[key]; !ok {
			return nil, nil, nil, analysis.NewSchemaError(key, "missing required key")
		}
	}

	total, ok := asInteger(root["total_records"])
	if !ok || total < 0 {
		return nil, nil, nil, analysis.NewSchemaError("total_records", "must be a non-negative integer, got %v", root["total_records"])
	}
	numClusters, ok := asInteger(root["num_clusters"])
	if !ok || numClusters < 1 {
		return nil, nil, nil, analysis.NewSchemaError("num_clusters", "must be an integer >= 1, got %v", root["num_clusters"])
	}
	features, ok := root["features"].([]interface{})
	if !ok {
		return nil, nil, nil, analysis.NewSchemaError("features", "must be an array, got %s", kindOf(root["features"]))
	}
	clusters, ok := root["clusters"].([]interface{})
	if !ok {
		return nil, nil, nil, analysis.NewSchemaError("clusters", "must be an array, got %s", kindOf(root["clusters"]))
	}

	return &analysis.Result{TotalRecords: int(total), NumClusters: int(numClusters)}, features, clusters, nil
}

func checkFeatures(raw []interface{}) ([]string, error) {
	if len(raw) == 0 {
		return nil, analysis.NewSchemaError("features", "must not be empty")
	}

	seen := make(map[string]bool, len(raw))
	features := make([]string, 0, len(raw))
	for i, v := range raw {
		path := fmt.Sprintf("features[%d]", i)
		name, ok := v.(string)
		if !ok {
			return nil, analysis.NewSchemaError(path, "must be a string, got %s", kindOf(v))
		}
		if name == "" {
			return nil, analysis.NewSchemaError(path, "must not be empty")
		}
		if seen[name] {
			return nil, analysis.NewSchemaError(path, "duplicate feature %q", name)
		}
		seen[name] = true
		features = append(features, name)
	}
	return features, nil
}

// checkClusterShape makes sure every cluster carries count, percentage and a
// summary object for every declared feature.
func checkClusterShape(raw []interface{}, features []string) ([]map[string]interface{}, error) {
	objects := make([]map[string]interface{}, len(raw))
	for i, v := range raw {
		path := fmt.Sprintf("clusters[%d]", i)
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, analysis.NewSchemaError(path, "must be an object, got %s", kindOf(v))
		}
		for _, key := range []string{analysis.KeyCount, analysis.KeyPercentage} {
			if _, ok := obj[key]; !ok {
				return nil, analysis.NewSchemaError(path+"."+key, "missing required key")
			}
		}
		for _, feature := range features {
			fpath := path + "." + feature
			value, ok := obj[feature]
			if !ok {
				return nil, analysis.NewSchemaError(fpath, "missing summary for declared feature")
			}
			summary, ok := value.(map[string]interface{})
			if !ok {
				return nil, analysis.NewSchemaError(fpath, "summary must be an object, got %s", kindOf(value))
			}
			for _, key := range summaryKeys {
				if _, ok := asNumber(summary[key]); !ok {
					return nil, analysis.NewSchemaError(fpath+"."+key, "must be a number, got %v", summary[key])
				}
			}
		}
		objects[i] = obj
	}
	return objects, nil
}

func buildCluster(i int, obj map[string]interface{}, features []string) (analysis.ClusterStat, error) {
	path := fmt.Sprintf("clusters[%d]", i)

	count, ok := asInteger(obj[analysis.KeyCount])
	if !ok || count < 0 {
		return analysis.ClusterStat{}, analysis.NewSchemaError(path+".count", "must be a non-negative integer, got %v", obj[analysis.KeyCount])
	}

	cluster := analysis.ClusterStat{
		Count:    int(count),
		Features: make(map[string]analysis.FeatureSummary, len(features)),
	}
	// Percentage is range-checked by checkPercentages; only the kind matters here.
	if pct, ok := asNumber(obj[analysis.KeyPercentage]); ok {
		cluster.Percentage = pct
	}

	if v, ok := obj[analysis.KeyCorrectFrequency]; ok && v != nil {
		freq, ok := asNumber(v)
		if !ok {
			return analysis.ClusterStat{}, analysis.NewSchemaError(path+".correct_frequency", "must be a number or null, got %v", v)
		}
		cluster.CorrectFrequency = &freq
	}

	for _, feature := range features {
		summary := obj[feature].(map[string]interface{})
		mean, _ := asNumber(summary["mean"])
		std, _ := asNumber(summary["std"])
		lo, _ := asNumber(summary["min"])
		hi, _ := asNumber(summary["max"])
		cluster.Features[feature] = analysis.FeatureSummary{Mean: mean, Std: std, Min: lo, Max: hi}
	}
	return cluster, nil
}

func checkOrdering(clusters []analysis.ClusterStat, features []string) error {
	for i, cluster := range clusters {
		for _, feature := range features {
			s := cluster.Features[feature]
			path := fmt.Sprintf("clusters[%d].%s", i, feature)
			if s.Std < 0 {
				return analysis.NewSchemaError(path+".std", "must be >= 0, got %v", s.Std)
			}
			if s.Min > s.Mean {
				return analysis.NewSchemaError(path, "min %v greater than mean %v", s.Min, s.Mean)
			}
			if s.Mean > s.Max {
				return analysis.NewSchemaError(path, "mean %v greater than max %v", s.Mean, s.Max)
			}
		}
	}
	return nil
}

func checkPercentages(objects []map[string]interface{}, clusters []analysis.ClusterStat) error {
	for i := range clusters {
		path := fmt.Sprintf("clusters[%d].percentage", i)
		pct, ok := asNumber(objects[i][analysis.KeyPercentage])
		if !ok {
			return analysis.NewSchemaError(path, "must be a number, got %v", objects[i][analysis.KeyPercentage])
		}
		if pct < 0 || pct > 100 {
			return analysis.NewSchemaError(path, "must be within [0,100], got %v", pct)
		}
	}
	return nil
}

func asNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInteger(v interface{}) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
