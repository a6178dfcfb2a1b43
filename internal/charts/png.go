// Package charts renders the distribution and radar charts of a report as
// PNG images and as a standalone HTML page.
package charts

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/yildizm/ocuprofile/internal/report"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 768

	radarRings = 5
)

// Options sets the size of rendered images
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// DistributionPNG draws one bar per cluster, in cluster order, colored with
// the cluster palette.
func DistributionPNG(rep *report.Report, o Options) ([]byte, error) {
	if rep == nil || len(rep.Distribution) == 0 {
		return nil, fmt.Errorf("no distribution data to draw")
	}
	width, height := o.size()

	bars := make([]chart.Value, 0, len(rep.Distribution))
	maxCount := 0.0
	for i, point := range rep.Distribution {
		maxCount = math.Max(maxCount, float64(point.Count))
		color := hexColor(rep.Clusters[i].Interpretation.Color)
		bars = append(bars, chart.Value{
			Value: float64(point.Count),
			Label: fmt.Sprintf("%s (%.1f%%)", point.Label, point.Percentage),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
				StrokeWidth: 1,
			},
		})
	}

	barWidth := width / (2*len(bars) + 1)
	if barWidth > 160 {
		barWidth = 160
	}

	graph := chart.BarChart{
		Title: "Distribuição dos Grupos",
		Background: chart.Style{
			Padding:   chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
			FillColor: drawing.ColorWhite,
		},
		Height:   height,
		Width:    width,
		BarWidth: barWidth,
		Bars:     bars,
		// go-chart rejects a zero span, which equal or single counts would produce
		YAxis: chart.YAxis{
			Name:  "Registros",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, maxCount*1.1)},
		},
	}
	graph.Background.StrokeWidth = 1
	graph.Background.StrokeColor = drawing.ColorFromHex("efefef")

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering distribution chart: %w", err)
	}

	return buffer.Bytes(), nil
}

// RadarPNG draws one polygon per cluster over one axis per feature. Each
// axis is scaled to the range of that feature across all clusters.
func RadarPNG(rep *report.Report, o Options) ([]byte, error) {
	if rep == nil || len(rep.Radar) == 0 || len(rep.Clusters) == 0 {
		return nil, fmt.Errorf("no radar data to draw")
	}
	width, height := o.size()

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, fmt.Errorf("error creating radar canvas: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("error loading font: %w", err)
	}
	r.SetFont(font)

	fillRect(r, 0, 0, width, height, drawing.ColorWhite)

	cx, cy := width/2, height/2+20
	radius := float64(min(width, height))/2 - 90
	axes := len(rep.Radar)

	// Grid rings and spokes.
	r.SetStrokeColor(drawing.ColorFromHex("d1d5db"))
	r.SetStrokeWidth(1)
	for ring := 1; ring <= radarRings; ring++ {
		ringRadius := radius * float64(ring) / radarRings
		for i := 0; i <= axes; i++ {
			x, y := polar(cx, cy, ringRadius, i%axes, axes)
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.Stroke()
	}
	for i := 0; i < axes; i++ {
		x, y := polar(cx, cy, radius, i, axes)
		r.MoveTo(cx, cy)
		r.LineTo(x, y)
		r.Stroke()
	}

	r.SetFontColor(drawing.ColorFromHex("374151"))
	r.SetFontSize(12)
	for i, point := range rep.Radar {
		x, y := polar(cx, cy, radius+24, i, axes)
		box := r.MeasureText(point.Axis)
		r.Text(point.Axis, x-box.Width()/2, y+box.Height()/2)
	}

	for ci, label := range rep.Labels() {
		color := hexColor(rep.Clusters[ci].Interpretation.Color)
		r.SetStrokeColor(color)
		r.SetFillColor(color.WithAlpha(60))
		r.SetStrokeWidth(2)

		for i := 0; i <= axes; i++ {
			point := rep.Radar[i%axes]
			v, _ := point.Value(label)
			scaled := rep.Bounds[i%axes].Normalize(v)
			x, y := polar(cx, cy, radius*(0.1+0.9*scaled), i%axes, axes)
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.Close()
		r.FillStroke()

		// Legend entry.
		lx, ly := 20, 40+ci*20
		fillRect(r, lx, ly-10, lx+12, ly+2, color)
		r.SetFontColor(drawing.ColorFromHex("111827"))
		r.Text(label, lx+18, ly)
	}

	r.SetFontSize(16)
	title := "Perfil Biométrico por Grupo"
	box := r.MeasureText(title)
	r.Text(title, (width-box.Width())/2, 30)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, fmt.Errorf("error rendering radar chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func polar(cx, cy int, radius float64, i, n int) (int, int) {
	angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
	return cx + int(math.Round(radius*math.Cos(angle))), cy + int(math.Round(radius*math.Sin(angle)))
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, color drawing.Color) {
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.SetStrokeWidth(0)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
