package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/ocuprofile/internal/emoji"
	"github.com/yildizm/ocuprofile/internal/report"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(rep *report.Report) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("nothing to format")
	}

	var b strings.Builder

	f.writeHeader(&b, rep.Source)
	f.writeSummary(&b, rep)
	f.writeDistribution(&b, rep)
	f.writeRadar(&b, rep)
	f.writeClusters(&b, rep)
	f.writeConclusions(&b, rep.Conclusions)

	return []byte(b.String()), nil
}

// writeHeader writes a box-drawn header
func (f *terminalFormatter) writeHeader(b *strings.Builder, source string) {
	header := "Análise de Clusters Oculares"
	if source != "" {
		header += " · " + source
	}
	width := lipgloss.Width(header)

	b.WriteString("╔" + strings.Repeat("═", width+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", width+2) + "╝\n\n")
}

func (f *terminalFormatter) writeSummary(b *strings.Builder, rep *report.Report) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Resumo\n")

	items := make([]termfmt.TreeItem, 0, len(rep.Cards))
	for i, card := range rep.Cards {
		items = append(items, termfmt.TreeItem{
			Label: card.Label,
			Value: formatNumber(card.Value),
			Last:  i == len(rep.Cards)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeDistribution draws one bar per cluster in cluster order
func (f *terminalFormatter) writeDistribution(b *strings.Builder, rep *report.Report) {
	b.WriteString("Distribuição dos Grupos\n")

	for i, point := range rep.Distribution {
		prefix := "├─"
		if i == len(rep.Distribution)-1 {
			prefix = "└─"
		}
		label := f.colorize(point.Label, rep.Clusters[i].Interpretation.Color)
		fmt.Fprintf(b, "%s %s %s %s\n", prefix, label, createShareBar(point.Percentage), formatShare(point.Count, point.Percentage))
	}
	b.WriteString("\n")
}

// writeRadar prints the radar series as a feature by cluster table of means
func (f *terminalFormatter) writeRadar(b *strings.Builder, rep *report.Report) {
	if len(rep.Radar) == 0 {
		return
	}
	b.WriteString("Médias por Variável\n")

	labels := rep.Labels()
	axisWidth := len("Variável")
	for _, point := range rep.Radar {
		if w := lipgloss.Width(point.Axis); w > axisWidth {
			axisWidth = w
		}
	}

	fmt.Fprintf(b, "  %-*s", axisWidth, "Variável")
	for _, label := range labels {
		fmt.Fprintf(b, " %10s", label)
	}
	b.WriteString("\n")

	for _, point := range rep.Radar {
		fmt.Fprintf(b, "  %-*s", axisWidth, point.Axis)
		for _, label := range labels {
			v, _ := point.Value(label)
			fmt.Fprintf(b, " %10.2f", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// writeClusters writes one card per cluster with interpretation and feature summaries
func (f *terminalFormatter) writeClusters(b *strings.Builder, rep *report.Report) {
	symbol := termfmt.GetEmoji("insights", f.opts)
	b.WriteString(symbol + " Perfis dos Grupos\n")

	items := make([]termfmt.TreeItem, 0, len(rep.Clusters))
	for i, cluster := range rep.Clusters {
		children := []termfmt.TreeItem{
			{Label: "Registros", Value: formatShare(cluster.Stat.Count, cluster.Stat.Percentage)},
		}
		for _, feature := range rep.Features() {
			if s, ok := cluster.Stat.Summary(feature); ok {
				children = append(children, termfmt.TreeItem{Label: feature, Value: formatSummary(s)})
			}
		}
		if cluster.Stat.CorrectFrequency != nil {
			children = append(children, termfmt.TreeItem{
				Label: "Taxa de acurácia neste grupo",
				Value: fmt.Sprintf("%.1f%%", *cluster.Stat.CorrectFrequency),
			})
		}
		children = append(children, termfmt.TreeItem{Label: cluster.Interpretation.Narrative, Last: true})

		items = append(items, termfmt.TreeItem{
			Label:    f.colorize(cluster.Interpretation.Name, cluster.Interpretation.Color),
			Value:    cluster.Label,
			Children: children,
			Last:     i == len(rep.Clusters)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeConclusions(b *strings.Builder, conclusions []string) {
	if len(conclusions) == 0 {
		return
	}
	symbol := termfmt.GetEmoji("recommendations", f.opts)
	b.WriteString(symbol + " Conclusões\n")

	for _, c := range conclusions {
		b.WriteString("• " + c + "\n")
	}
}

func (f *terminalFormatter) colorize(text, color string) string {
	if !f.opts.Color || color == "" {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(text)
}
