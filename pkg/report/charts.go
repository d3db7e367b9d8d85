package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// ChartsFile is the name of the charts page.
const ChartsFile = "complexity_charts.html"

const (
	chartWidth      = "100%"
	chartHeight     = "480px"
	labelRotate     = 30
	labelFontSize   = 10
	dataZoomEnd     = 100
	colorAverage    = "#8d6e63"
	colorMax        = "#cd2b31"
	colorDependency = "#3e63dd"
	colorTokens     = "#18794e"
	colorFunction   = "#ad5700"
)

type barSeries struct {
	name  string
	color string
	data  []any
}

// RenderCharts writes the go-echarts page of run to w: complexity per
// repository, dependencies per ecosystem, documentation tokens per
// repository and the most complex functions.
func RenderCharts(w io.Writer, run model.RunResult) error {
	page := components.NewPage()
	page.PageTitle = "repometrics: complexity charts"

	page.AddCharts(
		complexityChart(run.Summary),
		ecosystemChart(run.Summary),
		documentationChart(run.Summary),
		topFunctionsChart(run.Summary),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}

	return nil
}

func complexityChart(s model.Summary) *charts.Bar {
	var (
		labels   []string
		averages []any
		maxima   []any
	)

	for _, r := range s.PerRepository {
		if !r.FetchSucceeded {
			continue
		}

		labels = append(labels, r.Repository)
		averages = append(averages, roundTwo(r.AverageComplexity))
		maxima = append(maxima, r.MaxComplexity)
	}

	return barChart("Complexity per repository", "cyclomatic complexity", labels,
		barSeries{name: "Average", color: colorAverage, data: averages},
		barSeries{name: "Max", color: colorMax, data: maxima},
	)
}

func ecosystemChart(s model.Summary) *charts.Bar {
	ecosystems := make([]string, 0, len(s.Dependencies.ByEcosystem))
	for eco := range s.Dependencies.ByEcosystem {
		ecosystems = append(ecosystems, eco)
	}

	sort.Strings(ecosystems)

	counts := make([]any, len(ecosystems))
	for i, eco := range ecosystems {
		counts[i] = s.Dependencies.ByEcosystem[eco]
	}

	return barChart("Dependencies per ecosystem", "dependencies", ecosystems,
		barSeries{name: "Dependencies", color: colorDependency, data: counts})
}

func documentationChart(s model.Summary) *charts.Bar {
	var (
		labels []string
		tokens []any
	)

	for _, r := range s.PerRepository {
		if !r.FetchSucceeded {
			continue
		}

		labels = append(labels, r.Repository)
		tokens = append(tokens, r.DocumentationTokens)
	}

	return barChart("Documentation tokens per repository", "tokens", labels,
		barSeries{name: "Tokens", color: colorTokens, data: tokens})
}

func topFunctionsChart(s model.Summary) *charts.Bar {
	labels := make([]string, len(s.TopFunctions))
	values := make([]any, len(s.TopFunctions))

	for i, f := range s.TopFunctions {
		labels[i] = fmt.Sprintf("%s %s:%s", f.Repository, f.FilePath, f.FunctionName)
		values[i] = f.CyclomaticComplexity
	}

	return barChart("Most complex functions", "cyclomatic complexity", labels,
		barSeries{name: "Complexity", color: colorFunction, data: values})
}

func barChart(title, yAxis string, labels []string, series ...barSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%", Left: "center"}),
		charts.WithGridOpts(opts.Grid{Top: "20%", Bottom: "22%", Left: "5%", Right: "5%", ContainLabel: opts.Bool(true)}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{
			Rotate:   labelRotate,
			Interval: "0",
			FontSize: labelFontSize,
		}}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxis}),
	)

	bar.SetXAxis(labels)

	for _, s := range series {
		data := make([]opts.BarData, len(s.data))
		for i, v := range s.data {
			data[i] = opts.BarData{Value: v}
		}

		bar.AddSeries(s.name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}))
	}

	return bar
}

func roundTwo(f float64) float64 {
	const scale = 100

	return float64(int64(f*scale+0.5)) / scale
}
