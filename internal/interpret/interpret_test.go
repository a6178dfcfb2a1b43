package interpret

import (
	"strings"
	"testing"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

func TestColorCycles(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "#3b82f6"},
		{1, "#10b981"},
		{2, "#f59e0b"},
		{3, "#3b82f6"},
		{7, "#10b981"},
		{-1, "#f59e0b"},
	}
	for _, tt := range tests {
		if got := Color(tt.index); got != tt.want {
			t.Errorf("Color(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestResolveKnown(t *testing.T) {
	got := Resolve(1)
	if !got.Known {
		t.Fatal("index 1 should be known")
	}
	if got.Name != "Grupo 2: Olhos Médios" {
		t.Errorf("Name = %q", got.Name)
	}
	if !strings.Contains(got.Narrative, "emétropes") {
		t.Errorf("Narrative = %q", got.Narrative)
	}
	if got.Color != Palette[1] {
		t.Errorf("Color = %s", got.Color)
	}
}

func TestResolveBeyondTable(t *testing.T) {
	for _, i := range []int{len(table), len(table) + 5, 100, -2} {
		got := Resolve(i)
		if got.Known {
			t.Errorf("Resolve(%d) should not be known", i)
		}
		if got.Narrative != NoInterpretation {
			t.Errorf("Resolve(%d).Narrative = %q", i, got.Narrative)
		}
		if got.Color == "" {
			t.Errorf("Resolve(%d) has no color", i)
		}
	}
	if name := Resolve(4).Name; name != "Grupo 5" {
		t.Errorf("Resolve(4).Name = %q", name)
	}
}

func TestConclusions(t *testing.T) {
	r := &analysis.Result{TotalRecords: 150, NumClusters: 3, Features: []string{"AL", "ACD", "WTW", "K1", "K2"}}
	got := Conclusions(r)
	if len(got) != 4 {
		t.Fatalf("expected 4 conclusions, got %d", len(got))
	}
	if got[0] != "Identificamos 3 perfis distintos de olhos baseados em medidas biométricas" {
		t.Errorf("first = %q", got[0])
	}
	if !strings.HasSuffix(got[1], "150 registros com base em 5 variáveis: AL, ACD, WTW, K1, K2") {
		t.Errorf("second = %q", got[1])
	}
	if Conclusions(nil) != nil {
		t.Error("nil result should give no conclusions")
	}
}

func TestResolveAll(t *testing.T) {
	r := &analysis.Result{Clusters: make([]analysis.ClusterStat, 5)}
	all := ResolveAll(r)
	if len(all) != 5 {
		t.Fatalf("len = %d", len(all))
	}
	if !all[2].Known || all[3].Known {
		t.Error("expected first three known and the rest unknown")
	}
}
