package report

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Title}}{{.Title}} | {{end}}Coverage Report</title>
    <style>
        :root {
            --pass: #16A34A;
            --fail: #DC2626;
            --warn: #CA8A04;
            --bg: #0f172a;
            --card: #1e293b;
            --text: #f8fafc;
            --muted: #94a3b8;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 {
            font-size: 2rem;
            margin-bottom: 0.5rem;
            font-weight: 600;
        }
        .timestamp {
            color: var(--muted);
            font-size: 0.875rem;
            margin-bottom: 2rem;
        }
        .summary {
            display: flex;
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .summary-card {
            background: var(--card);
            border-radius: 0.5rem;
            padding: 1rem 1.5rem;
            border: 1px solid var(--border);
        }
        .summary-card.pass { border-left: 4px solid var(--pass); }
        .summary-card.fail { border-left: 4px solid var(--fail); }
        .summary-card.warn { border-left: 4px solid var(--warn); }
        .summary-label {
            font-size: 0.75rem;
            text-transform: uppercase;
            color: var(--muted);
            letter-spacing: 0.05em;
        }
        .summary-value {
            font-size: 1.5rem;
            font-weight: 600;
        }
        .summary-value.pass { color: var(--pass); }
        .summary-value.fail { color: var(--fail); }
        .summary-value.warn { color: var(--warn); }
        .path { color: var(--muted); font-size: 0.875rem; }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--card);
            border-radius: 0.5rem;
            overflow: hidden;
            margin-bottom: 2rem;
        }
        th, td {
            padding: 0.75rem 1rem;
            text-align: left;
            border-bottom: 1px solid var(--border);
        }
        th {
            background: rgba(0,0,0,0.2);
            font-weight: 600;
            font-size: 0.75rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--muted);
        }
        tr:last-child td { border-bottom: none; }
        tr:hover { background: rgba(255,255,255,0.02); }
        .status {
            display: inline-block;
            padding: 0.25rem 0.5rem;
            border-radius: 0.25rem;
            font-size: 0.75rem;
            font-weight: 600;
        }
        .status.pass { background: rgba(22, 163, 74, 0.2); color: var(--pass); }
        .status.fail { background: rgba(220, 38, 38, 0.2); color: var(--fail); }
        .status.warn { background: rgba(202, 138, 4, 0.2); color: var(--warn); }
        .progress-bar {
            width: 100%;
            height: 6px;
            background: var(--border);
            border-radius: 3px;
            overflow: hidden;
        }
        .progress-fill {
            height: 100%;
            border-radius: 3px;
            transition: width 0.3s ease;
        }
        .progress-fill.pass { background: var(--pass); }
        .progress-fill.fail { background: var(--fail); }
        .progress-fill.warn { background: var(--warn); }
        .coverage-cell {
            display: flex;
            align-items: center;
            gap: 0.75rem;
        }
        .coverage-percent {
            min-width: 4rem;
            font-weight: 500;
        }
        .section-title {
            font-size: 1.25rem;
            margin-bottom: 1rem;
            font-weight: 600;
        }
        .warnings {
            background: rgba(202, 138, 4, 0.1);
            border: 1px solid rgba(202, 138, 4, 0.3);
            border-radius: 0.5rem;
            padding: 1rem;
            margin-bottom: 2rem;
        }
        .warnings h3 {
            color: var(--warn);
            font-size: 0.875rem;
            text-transform: uppercase;
            margin-bottom: 0.5rem;
        }
        .warnings ul {
            list-style: none;
            color: var(--muted);
        }
        .warnings li::before {
            content: "⚠ ";
            color: var(--warn);
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{if .Title}}{{.Title}} | {{end}}Coverage Report</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        <div class="summary">
            <div class="summary-card {{if .Passed}}pass{{else}}fail{{end}}">
                <div class="summary-label">Status</div>
                <div class="summary-value {{if .Passed}}pass{{else}}fail{{end}}">
                    {{if .Passed}}PASS{{else}}FAIL{{end}}
                </div>
            </div>
            {{with .Headline}}
            <div class="summary-card {{.Class}}">
                <div class="summary-label">Statements</div>
                <div class="summary-value {{.Class}}">{{printf "%.2f" .Percent}}%</div>
            </div>
            {{end}}
            <div class="summary-card">
                <div class="summary-label">Reports</div>
                <div class="summary-value">{{len .Reports}}</div>
            </div>
            {{if .Unmet}}
            <div class="summary-card fail">
                <div class="summary-label">Unmet</div>
                <div class="summary-value fail">{{len .Unmet}}</div>
            </div>
            {{end}}
        </div>

        {{if .Failures}}
        <div class="warnings">
            <h3>Failed Reports</h3>
            <ul>
                {{range .Failures}}
                <li>{{.}}</li>
                {{end}}
            </ul>
        </div>
        {{end}}

        {{if .Unmet}}
        <div class="warnings">
            <h3>Unmet Requirements</h3>
            <ul>
                {{range .Unmet}}
                <li>{{.Title}}: {{printf "%.2f" .Coverage}}% &lt; {{printf "%.2f" .Requirement}}%</li>
                {{end}}
            </ul>
        </div>
        {{end}}

        {{with .Global}}
        <h2 class="section-title">Global Coverage</h2>
        <table>
            {{template "head" "Scope"}}
            <tbody>{{template "row" .}}</tbody>
        </table>
        {{end}}

        {{range .Reports}}
        <h2 class="section-title">{{.Name}} <span class="path">{{.Path}}</span></h2>
        <table>
            {{template "head" "File"}}
            <tbody>
                {{range .Files}}{{template "row" .}}{{end}}
                {{template "row" .Total}}
            </tbody>
        </table>
        {{end}}
    </div>
</body>
</html>
{{define "head"}}<thead>
                <tr>
                    <th>{{.}}</th>
                    <th>Lines</th>
                    <th>Functions</th>
                    <th>Branches</th>
                    <th>Statements</th>
                    <th>Status</th>
                </tr>
            </thead>{{end}}
{{define "row"}}<tr>
                    <td>{{.Title}}</td>
                    <td>{{printf "%.2f" .Lines}}%</td>
                    <td>{{printf "%.2f" .Functions}}%</td>
                    <td>{{printf "%.2f" .Branches}}%</td>
                    <td>
                        <div class="coverage-cell">
                            <span class="coverage-percent">{{printf "%.2f" .Statements}}%</span>
                            <div class="progress-bar">
                                <div class="progress-fill {{.Class}}" style="width: {{printf "%.0f" .Statements}}%"></div>
                            </div>
                        </div>
                    </td>
                    <td><span class="status {{.Class}}">{{.Status}}</span></td>
                </tr>{{end}}`

var htmlTmpl = template.Must(template.New("report").Parse(htmlTemplate))

type htmlData struct {
	Title     string
	Timestamp string
	Passed    bool
	Headline  *htmlHeadline
	Reports   []htmlReport
	Global    *htmlRow
	Unmet     []domain.UnmetRequirement
	Failures  []string
}

type htmlHeadline struct {
	Percent float64
	Class   string
}

type htmlReport struct {
	Name  string
	Path  string
	Files []htmlRow
	Total htmlRow
}

type htmlRow struct {
	Title      string
	Lines      float64
	Functions  float64
	Branches   float64
	Statements float64
	Status     domain.Status
	Class      string
}

func newHTMLRow(title string, f domain.FileCoverageReport, req domain.CoverageRequirement) htmlRow {
	status := req.Classify(f.Statements.Percentage)
	return htmlRow{
		Title:      title,
		Lines:      f.Lines.Percentage,
		Functions:  f.Functions.Percentage,
		Branches:   f.Branches.Percentage,
		Statements: f.Statements.Percentage,
		Status:     status,
		Class:      strings.ToLower(string(status)),
	}
}

// now is replaced in tests.
var now = time.Now

func writeHTML(w io.Writer, result application.ReportResult) error {
	reqs := result.Requirements
	data := htmlData{
		Title:     result.Title,
		Timestamp: now().Format("2006-01-02 15:04:05"),
		Passed:    result.Passed(),
		Unmet:     result.Unmet,
	}
	if report, req, ok := result.Headline(); ok {
		pct := report.OverallReport().Statements.Percentage
		data.Headline = &htmlHeadline{Percent: pct, Class: strings.ToLower(string(req.Classify(pct)))}
	}
	for _, r := range result.Reports {
		hr := htmlReport{
			Name:  r.DisplayName(),
			Path:  r.Path(),
			Total: newHTMLRow("Total", r.OverallReport(), reqs.Report),
		}
		for _, f := range r.FilesReport() {
			hr.Files = append(hr.Files, newHTMLRow(f.Title, f, reqs.File))
		}
		data.Reports = append(data.Reports, hr)
	}
	if result.Global != nil {
		row := newHTMLRow(domain.GlobalReportTitle, result.Global.OverallReport(), reqs.Global)
		data.Global = &row
	}
	for _, f := range result.Failures {
		data.Failures = append(data.Failures, f.Error())
	}
	return htmlTmpl.Execute(w, data)
}
