package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

func fourClusterResult() *analysis.Result {
	r := &analysis.Result{TotalRecords: 200, NumClusters: 4, Features: []string{"AL", "ACD"}}
	for i := 0; i < 4; i++ {
		r.Clusters = append(r.Clusters, analysis.ClusterStat{
			Count:      50,
			Percentage: 25,
			Features: map[string]analysis.FeatureSummary{
				"AL":  {Mean: 22 + float64(i), Std: 0.4, Min: 21 + float64(i), Max: 23 + float64(i)},
				"ACD": {Mean: 3, Std: 0.2, Min: 2.5, Max: 3.5},
			},
		})
	}
	return r
}

func TestBuild(t *testing.T) {
	rep, err := Build("biometria.xlsx", fourClusterResult())
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Cards) != 3 || rep.Cards[0].Value != 200 || rep.Cards[1].Value != 4 || rep.Cards[2].Value != 2 {
		t.Errorf("cards = %+v", rep.Cards)
	}
	if len(rep.Distribution) != 4 || len(rep.Radar) != 2 || len(rep.Bounds) != 2 {
		t.Errorf("series lengths = %d/%d/%d", len(rep.Distribution), len(rep.Radar), len(rep.Bounds))
	}
	if len(rep.Clusters) != 4 {
		t.Fatalf("clusters = %d", len(rep.Clusters))
	}
	if !rep.Clusters[2].Interpretation.Known || rep.Clusters[3].Interpretation.Known {
		t.Error("cluster beyond the table should have no interpretation")
	}
	if rep.Clusters[3].Label != "Group 4" {
		t.Errorf("label = %q", rep.Clusters[3].Label)
	}
	if strings.Join(rep.Labels(), ",") != "Group 1,Group 2,Group 3,Group 4" {
		t.Errorf("labels = %v", rep.Labels())
	}
	if len(rep.Conclusions) != 4 {
		t.Errorf("conclusions = %d", len(rep.Conclusions))
	}
}

func TestBuildNil(t *testing.T) {
	if _, err := Build("x", nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestReportJSON(t *testing.T) {
	rep, err := Build("biometria.xlsx", fourClusterResult())
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"axis":"AL"`, `"Group 4":25`, `"label":"Total de Registros"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %s", want)
		}
	}
}
