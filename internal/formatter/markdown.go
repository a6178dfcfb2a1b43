package formatter

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/yildizm/ocuprofile/internal/report"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(rep *report.Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Análise de Clusters Oculares\n\n")
	if rep.Source != "" {
		fmt.Fprintf(&b, "Arquivo: `%s`\n\n", rep.Source)
	}
	fmt.Fprintf(&b, "Gerado em: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))

	f.writeSummaryTable(&b, rep)
	f.writeDistributionTable(&b, rep)
	f.writeFeatureTable(&b, rep)
	f.writeClusterSections(&b, rep)
	f.writeConclusions(&b, rep.Conclusions)

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, rep *report.Report) {
	b.WriteString("## Resumo\n\n")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Métrica", "Valor"})
	for _, card := range rep.Cards {
		t.AppendRow(table.Row{card.Label, formatNumber(card.Value)})
	}
	b.WriteString(t.RenderMarkdown() + "\n\n")
}

func (f *markdownFormatter) writeDistributionTable(b *strings.Builder, rep *report.Report) {
	b.WriteString("## Distribuição dos Grupos\n\n")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Grupo", "Registros", "Percentual", "Cor"})
	for i, point := range rep.Distribution {
		t.AppendRow(table.Row{
			point.Label,
			formatNumber(point.Count),
			fmt.Sprintf("%.1f%%", point.Percentage),
			"`" + rep.Clusters[i].Interpretation.Color + "`",
		})
	}
	b.WriteString(t.RenderMarkdown() + "\n\n")
}

// writeFeatureTable writes the radar series: one row per feature, one
// column per cluster mean
func (f *markdownFormatter) writeFeatureTable(b *strings.Builder, rep *report.Report) {
	if len(rep.Radar) == 0 {
		return
	}
	b.WriteString("## Médias por Variável\n\n")

	labels := rep.Labels()
	header := table.Row{"Variável"}
	for _, label := range labels {
		header = append(header, label)
	}

	t := table.NewWriter()
	t.AppendHeader(header)
	for _, point := range rep.Radar {
		row := table.Row{point.Axis}
		for _, label := range labels {
			v, _ := point.Value(label)
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		t.AppendRow(row)
	}
	b.WriteString(t.RenderMarkdown() + "\n\n")
}

func (f *markdownFormatter) writeClusterSections(b *strings.Builder, rep *report.Report) {
	b.WriteString("## Perfis dos Grupos\n\n")

	for _, cluster := range rep.Clusters {
		fmt.Fprintf(b, "### %s\n\n", cluster.Interpretation.Name)
		fmt.Fprintf(b, "**Registros**: %s\n\n", formatShare(cluster.Stat.Count, cluster.Stat.Percentage))
		b.WriteString(cluster.Interpretation.Narrative + "\n\n")

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Variável", "Média", "Desvio", "Mín", "Máx"})
		for _, feature := range rep.Features() {
			s, ok := cluster.Stat.Summary(feature)
			if !ok {
				continue
			}
			t.AppendRow(table.Row{
				feature,
				fmt.Sprintf("%.2f", s.Mean),
				fmt.Sprintf("%.2f", s.Std),
				fmt.Sprintf("%.2f", s.Min),
				fmt.Sprintf("%.2f", s.Max),
			})
		}
		b.WriteString(t.RenderMarkdown() + "\n\n")

		if cluster.Stat.CorrectFrequency != nil {
			fmt.Fprintf(b, "> Informação Complementar: Taxa de acurácia neste grupo: %.1f%%\n\n", *cluster.Stat.CorrectFrequency)
		}
	}
}

func (f *markdownFormatter) writeConclusions(b *strings.Builder, conclusions []string) {
	b.WriteString("## Conclusões\n\n")

	for _, c := range conclusions {
		fmt.Fprintf(b, "- %s\n", c)
	}

	b.WriteString("\n---\n")
	b.WriteString("*Relatório gerado por ocuprofile*\n")
}
