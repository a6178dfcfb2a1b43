// Package interpret maps cluster positions to display colors and the fixed
// clinical narrative shown next to each cluster.
package interpret

import (
	"fmt"
	"strings"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

// NoInterpretation is returned as narrative for clusters beyond the table
const NoInterpretation = "Interpretação não disponível para este grupo."

// Palette is the cyclic color sequence used for clusters
var Palette = []string{"#3b82f6", "#10b981", "#f59e0b"}

// Interpretation is the fixed text attached to one cluster position
type Interpretation struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Narrative string `json:"narrative"`
	Color     string `json:"color"`
	Known     bool   `json:"known"`
}

type entry struct {
	name      string
	narrative string
}

var table = []entry{
	{
		name:      "Grupo 1: Olhos Compactos",
		narrative: "Olhos com comprimento axial menor e câmara anterior mais rasa. Típico de olhos hipermétropes ou de estrutura mais compacta.",
	},
	{
		name:      "Grupo 2: Olhos Médios",
		narrative: "Características biométricas dentro da média populacional. Representa o padrão mais comum de olhos emétropes.",
	},
	{
		name:      "Grupo 3: Olhos Alongados",
		narrative: "Olhos com maior comprimento axial, geralmente associados a miopia. Apresentam câmara anterior mais profunda.",
	},
}

// Color returns the display color of cluster i
func Color(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}

// Resolve returns the interpretation of cluster i. Positions outside the
// table get a generic name and the NoInterpretation marker.
func Resolve(i int) Interpretation {
	interp := Interpretation{Index: i, Color: Color(i)}
	if i >= 0 && i < len(table) {
		interp.Name = table[i].name
		interp.Narrative = table[i].narrative
		interp.Known = true
		return interp
	}
	interp.Name = fmt.Sprintf("Grupo %d", i+1)
	interp.Narrative = NoInterpretation
	return interp
}

// ResolveAll resolves every cluster of r in order
func ResolveAll(r *analysis.Result) []Interpretation {
	if r == nil {
		return nil
	}
	out := make([]Interpretation, len(r.Clusters))
	for i := range r.Clusters {
		out[i] = Resolve(i)
	}
	return out
}

// Conclusions returns the closing remarks for a result
func Conclusions(r *analysis.Result) []string {
	if r == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Identificamos %d perfis distintos de olhos baseados em medidas biométricas", r.NumClusters),
		fmt.Sprintf("O algoritmo de clustering K-means segmentou %d registros com base em %d variáveis: %s",
			r.TotalRecords, len(r.Features), strings.Join(r.Features, ", ")),
		"Cada grupo apresenta características únicas que podem auxiliar em decisões clínicas e cirúrgicas",
		"A distribuição dos grupos reflete a diversidade anatômica natural da população",
	}
}
