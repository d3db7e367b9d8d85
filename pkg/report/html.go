package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// HTMLFile is the name of the HTML report.
const HTMLFile = "complexity_report.html"

// Repository statuses shown in the HTML and terminal reports.
const (
	statusOK      = "ok"
	statusPartial = "partial"
	statusFailed  = "failed"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"comma":   func(n int) string { return humanize.Comma(int64(n)) },
	"decimal": func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) },
	"status":  repositoryStatus,
	"total":   sumCounts,
}

var reportTemplate = template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

type htmlData struct {
	Run       model.RunResult
	Generated string
}

// RenderHTML writes the HTML report of run to w.
func RenderHTML(w io.Writer, run model.RunResult) error {
	err := reportTemplate.ExecuteTemplate(w, "report.html", htmlData{
		Run:       run,
		Generated: run.GeneratedAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}

func repositoryStatus(r model.RepositorySummary) string {
	switch {
	case !r.FetchSucceeded:
		return statusFailed
	case len(r.FailedAnalyzers) > 0:
		return statusPartial
	default:
		return statusOK
	}
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}

	return total
}
