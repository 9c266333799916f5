package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
)

const (
	chartWidth     = "100%"
	heatMapHeight  = "700px"
	barHeight      = "450px"
	rotateDegrees  = 45
	labelFontSize  = 10
	innerLabelSize = 9
	valuePrecision = 1000
	maxBarPairs    = 25
	maxCellLabels  = 15
)

var similarityScale = []string{"#f7fbff", "#c6dbef", "#6baed6", "#2171b5", "#08306b"}

// Heatmap writes an HTML page with the similarity heatmap and a bar chart of
// the most similar pairs.
func Heatmap(w io.Writer, mat *corpus.Matrix) error {
	page := components.NewPage()
	page.PageTitle = "simsketch similarity"
	page.AddCharts(newHeatMap(mat), newPairsBar(mat))

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}

	return nil
}

func newHeatMap(mat *corpus.Matrix) *charts.HeatMap {
	names := make([]string, len(mat.Sources))
	for i, src := range mat.Sources {
		names[i] = displayName(src)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Estimated Jaccard similarity",
			Subtitle: fmt.Sprintf("%d documents, mean %.3f, max %.3f",
				len(mat.Sources), mat.Stats.Mean, mat.Stats.Max),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: heatMapHeight}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category", Data: names,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{Rotate: rotateDegrees, Interval: "0", FontSize: labelFontSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category", Data: names,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{FontSize: labelFontSize},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true), Min: 0, Max: 1,
			InRange: &opts.VisualMapInRange{Color: similarityScale},
			Orient:  "horizontal", Left: "center", Bottom: "2%",
		}),
		charts.WithGridOpts(opts.Grid{Left: "20%", Right: "5%", Top: "80", Bottom: "20%"}),
	)

	hm.AddSeries("Similarity", heatMapData(mat), charts.WithLabelOpts(opts.Label{
		Show: opts.Bool(len(names) <= maxCellLabels), Position: "inside", FontSize: innerLabelSize,
	}))

	return hm
}

func heatMapData(mat *corpus.Matrix) []opts.HeatMapData {
	n := len(mat.Sources)
	data := make([]opts.HeatMapData, 0, n*n)

	for i := range n {
		for j := range n {
			data = append(data, opts.HeatMapData{Value: []any{j, i, round(mat.Similarity[i][j])}})
		}
	}

	return data
}

func newPairsBar(mat *corpus.Matrix) *charts.Bar {
	pairs := mat.Pairs(0)
	if len(pairs) > maxBarPairs {
		pairs = pairs[:maxBarPairs]
	}

	labels := make([]string, len(pairs))
	similarity := make([]opts.BarData, len(pairs))
	agreement := make([]opts.BarData, len(pairs))

	for i, pair := range pairs {
		labels[i] = displayName(pair.A) + " ~ " + displayName(pair.B)
		similarity[i] = opts.BarData{Value: round(pair.Similarity)}
		agreement[i] = opts.BarData{Value: round(pair.Agreement)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Most similar pairs"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: barHeight}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: rotateDegrees, Interval: "0", FontSize: labelFontSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		charts.WithGridOpts(opts.Grid{Bottom: "30%"}),
	)
	bar.SetXAxis(labels).
		AddSeries("Set similarity", similarity).
		AddSeries("Positional agreement", agreement)

	return bar
}

func round(v float64) float64 {
	return math.Round(v*valuePrecision) / valuePrecision
}
