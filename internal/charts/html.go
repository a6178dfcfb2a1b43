package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/yildizm/ocuprofile/internal/report"
)

// WriteHTML writes an interactive page with the distribution bar chart and
// the radar chart.
func WriteHTML(w io.Writer, rep *report.Report, o Options) error {
	if rep == nil || len(rep.Clusters) == 0 {
		return fmt.Errorf("no report data to render")
	}
	width, height := o.size()
	initOpts := opts.Initialization{
		PageTitle: "ocuprofile",
		Width:     fmt.Sprintf("%dpx", width),
		Height:    fmt.Sprintf("%dpx", height),
	}

	page := components.NewPage()
	page.PageTitle = pageTitle(rep)
	page.AddCharts(distributionChart(rep, initOpts), radarChart(rep, initOpts))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("error rendering HTML charts: %w", err)
	}
	return nil
}

func pageTitle(rep *report.Report) string {
	if rep.Source == "" {
		return "Análise de Clusters Oculares"
	}
	return "Análise de Clusters Oculares - " + rep.Source
}

func distributionChart(rep *report.Report, initOpts opts.Initialization) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distribuição dos Grupos",
			Subtitle: fmt.Sprintf("%d registros", rep.Result.TotalRecords),
		}),
	)

	data := make([]opts.BarData, 0, len(rep.Distribution))
	for i, point := range rep.Distribution {
		data = append(data, opts.BarData{
			Name:      point.Label,
			Value:     point.Count,
			ItemStyle: &opts.ItemStyle{Color: rep.Clusters[i].Interpretation.Color},
		})
	}

	bar.SetXAxis(rep.Labels()).AddSeries("Registros", data)
	return bar
}

// radarChart gives every indicator the range of its feature so that
// features with very different magnitudes stay readable.
func radarChart(rep *report.Report, initOpts opts.Initialization) *charts.Radar {
	indicators := make([]*opts.Indicator, 0, len(rep.Bounds))
	for _, b := range rep.Bounds {
		pad := (b.Max - b.Min) * 0.1
		if pad == 0 {
			pad = math.Max(math.Abs(b.Max)*0.1, 1)
		}
		indicators = append(indicators, &opts.Indicator{
			Name: b.Feature,
			Min:  float32(b.Min - pad),
			Max:  float32(b.Max + pad),
		})
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Perfil Biométrico por Grupo"}),
		charts.WithRadarComponentOpts(opts.RadarComponent{
			Indicator:   indicators,
			Shape:       "polygon",
			SplitNumber: radarRings,
		}),
	)

	for ci, label := range rep.Labels() {
		values := make([]float64, 0, len(rep.Radar))
		for _, point := range rep.Radar {
			v, _ := point.Value(label)
			values = append(values, v)
		}
		radar.AddSeries(label,
			[]opts.RadarData{{Name: label, Value: values}},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: rep.Clusters[ci].Interpretation.Color}),
		)
	}
	return radar
}
