package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/ocuprofile/internal/emoji"
	"github.com/yildizm/ocuprofile/internal/report"
)

func (m *Model) renderResults() string {
	if m.report == nil {
		return m.styles.Muted.Render("Nenhum resultado disponível.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderCards(m.report),
		"",
		m.renderDistribution(m.report),
		"",
		m.renderRadarTable(m.report),
		"",
		m.renderClusterCard(m.report),
	)
}

func (m *Model) renderCards(rep *report.Report) string {
	cards := make([]string, 0, len(rep.Cards))
	for _, c := range rep.Cards {
		body := m.styles.Header.Render(fmt.Sprintf("%d", c.Value)) + "\n" + m.styles.Muted.Render(c.Label)
		cards = append(cards, m.styles.Card.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderDistribution(rep *report.Report) string {
	opts := termfmt.DefaultOptions()
	opts.Emoji = !emoji.IsEmojiDisabled()

	lines := []string{m.styles.Header.Render(emoji.GetEmoji("chart") + " Distribuição dos Grupos")}
	for i, p := range rep.Distribution {
		bar := termfmt.CreateConfidenceBar(p.Percentage/100, opts)
		lines = append(lines, fmt.Sprintf("  %s %-8s %s %5.1f%% (%d)",
			emoji.ClusterMarker(i), p.Label, ClusterStyle(i).Render(bar), p.Percentage, p.Count))
	}
	return strings.Join(lines, "\n")
}

// renderRadarTable shows the radar series as a feature by group table of means
func (m *Model) renderRadarTable(rep *report.Report) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := table.Row{"Variável"}
	for _, label := range rep.Labels() {
		header = append(header, label)
	}
	t.AppendHeader(header)

	for _, point := range rep.Radar {
		row := table.Row{point.Axis}
		for _, label := range point.Labels {
			v, _ := point.Value(label)
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		t.AppendRow(row)
	}

	title := m.styles.Header.Render(emoji.GetEmoji("radar") + " Médias por Variável")
	return title + "\n" + t.Render()
}

func (m *Model) renderClusterCard(rep *report.Report) string {
	if len(rep.Clusters) == 0 {
		return ""
	}
	i := m.selected
	if i >= len(rep.Clusters) {
		i = len(rep.Clusters) - 1
	}
	c := rep.Clusters[i]

	var b strings.Builder
	b.WriteString(ClusterStyle(i).Render(fmt.Sprintf("%s %s · %s", emoji.ClusterMarker(i), c.Label, c.Interpretation.Name)))
	b.WriteString("\n\n")
	b.WriteString(c.Interpretation.Narrative)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Registros: %d (%.1f%%)\n", c.Stat.Count, c.Stat.Percentage))
	for _, feature := range rep.Features() {
		s, ok := c.Stat.Summary(feature)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-6s %.2f ± %.2f  [%.2f – %.2f]\n", feature, s.Mean, s.Std, s.Min, s.Max))
	}
	if c.Stat.CorrectFrequency != nil {
		b.WriteString(fmt.Sprintf("Taxa de acurácia neste grupo: %.1f%%\n", *c.Stat.CorrectFrequency))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%s %d/%d %s", emoji.GetEmoji("left"), i+1, len(rep.Clusters), emoji.GetEmoji("right"))))

	return m.styles.Box.Render(b.String())
}
