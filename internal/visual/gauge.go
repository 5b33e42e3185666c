// Package visual builds the LTV risk gauge: a two-slice donut whose
// filled slice is the LTV percentage, colored by risk band.
package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"ltvpilot/internal/render"
)

const (
	colorBackground = "#060c1b"
	colorText       = "#eceff4"
	colorRemainder  = "#1f2937"
	colorSafe       = "#34d399"
	colorCaution    = "#fbbf24"
	colorDanger     = "#f87171"

	gaugeWidthPx  = 480
	gaugeHeightPx = 360
)

func bandColor(band render.GaugeBand) string {
	switch band {
	case render.BandSafe:
		return colorSafe
	case render.BandCaution:
		return colorCaution
	default:
		return colorDanger
	}
}

// BuildGauge assembles the gauge chart for an LTV percentage.
func BuildGauge(ltvPct float64) *charts.Pie {
	slices := render.GaugeSlices(ltvPct)
	band := render.Band(ltvPct)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           fmt.Sprintf("%dpx", gaugeWidthPx),
			Height:          fmt.Sprintf("%dpx", gaugeHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("LTV %.2f%%", ltvPct),
			TitleStyle: &opts.TextStyle{Color: colorText},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	pie.AddSeries("ltv", []opts.PieData{
		{Name: "LTV", Value: slices[0], ItemStyle: &opts.ItemStyle{Color: bandColor(band)}},
		{Name: "Headroom", Value: slices[1], ItemStyle: &opts.ItemStyle{Color: colorRemainder}},
	}).SetSeriesOptions(
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"55%", "80%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
	)
	return pie
}

// GaugeHTML renders the gauge as a standalone HTML page.
func GaugeHTML(ltvPct float64) ([]byte, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(BuildGauge(ltvPct))
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GaugePNG screenshots the rendered gauge through headless Chrome,
// for delivery channels that cannot display HTML. Requires a local
// Chrome; callers treat failure as a degraded notification, not an
// error surfaced to the user.
func GaugePNG(ctx context.Context, ltvPct float64) ([]byte, error) {
	html, err := GaugeHTML(ltvPct)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(gaugeWidthPx, gaugeHeightPx),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
