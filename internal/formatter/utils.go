package formatter

import (
	"fmt"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 && n > -1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 0 {
		return "-" + addCommas(fmt.Sprintf("%d", -n))
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// formatSummary renders a feature summary as "mean ± std (min–max)"
func formatSummary(s analysis.FeatureSummary) string {
	return fmt.Sprintf("%.2f ± %.2f (%.2f – %.2f)", s.Mean, s.Std, s.Min, s.Max)
}

// formatShare renders a cluster size with its share of the records
func formatShare(count int, percentage float64) string {
	return fmt.Sprintf("%s (%.1f%%)", formatNumber(count), percentage)
}

// createShareBar creates an ASCII bar for a percentage using go-termfmt
func createShareBar(percentage float64) string {
	opts := termfmt.DefaultOptions()
	return termfmt.CreateConfidenceBar(percentage/100, opts)
}
