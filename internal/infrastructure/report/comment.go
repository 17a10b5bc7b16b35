package report

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// The comment markup is kept on single lines: GitHub renders newlines
// inside tables as breaks.
const (
	commentTemplate = `{{if not .Reports}}<span>No Coverage Reports Found</span>` +
		`{{else if .Global}}<table>{{template "overall" .Global}}</table><hr>` +
		`<details><summary>Expand Global Report</summary>{{template "reports" .Reports}}</details>` +
		`{{else}}{{template "reports" .Reports}}{{end}}`

	reportsTemplate = `{{range .}}` +
		`{{if .Title}}<p></p><p>{{.Title}}</p><p></p>{{else}}<p></p>{{end}}` +
		`{{template "overall" .Overall}}` +
		`<details><summary>Expand Report</summary><table>{{template "header" "File"}}<tbody>{{range .Files}}{{template "row" .}}{{end}}</tbody></table></details>` +
		`{{if not .Last}}<hr>{{end}}` +
		`{{end}}`

	overallTemplate = `<table>{{template "header" .Header}}<tbody>{{template "row" .Row}}</tbody></table>`

	headerTemplate = `<thead><tr><th>{{.}}</th><th>Lines</th><th>Functions</th><th>Branches</th><th>Statements</th><th></th></tr></thead>`

	rowTemplate = `<tr><td>{{if .Href}}<a href="{{.Href}}">{{.Title}}</a>{{else}}<a>{{.Title}}</a>{{end}}</td>` +
		`<td>{{.Lines}}%</td><td>{{.Functions}}%</td><td>{{.Branches}}%</td><td>{{.Statements}}%</td><td>{{.Icon}}</td></tr>`
)

var commentTmpl = template.Must(parseComment())

func parseComment() (*template.Template, error) {
	t := template.New("comment")
	for name, text := range map[string]string{
		"reports": reportsTemplate,
		"overall": overallTemplate,
		"header":  headerTemplate,
		"row":     rowTemplate,
	} {
		if _, err := t.New(name).Parse(text); err != nil {
			return nil, err
		}
	}
	return t.Parse(commentTemplate)
}

type commentData struct {
	Reports []reportView
	Global  *overallView
}

type reportView struct {
	Title   string
	Overall overallView
	Files   []rowView
	Last    bool
}

type overallView struct {
	Header string
	Row    rowView
}

type rowView struct {
	Title      string
	Href       string
	Lines      string
	Functions  string
	Branches   string
	Statements string
	Icon       string
}

// CommentRenderer renders reports as the collapsible HTML posted on pull
// requests and commits. It implements application.CommentRenderer.
type CommentRenderer struct{}

func (CommentRenderer) Render(view application.CommentView) (string, error) {
	if err := domain.RequireInitialized(view.Reports...); err != nil {
		return "", err
	}
	if err := domain.RequireInitialized(view.Global); err != nil {
		return "", err
	}
	links := linker{repo: view.Repository, commit: view.Commit, workspace: view.Workspace}
	data := commentData{Reports: make([]reportView, 0, len(view.Reports))}

	for i, r := range view.Reports {
		rv := reportView{
			Title: r.Title(),
			Overall: overallView{
				Header: "Report",
				Row:    links.row(r.OverallReport(), view.Requirements.Report),
			},
			Last: i == len(view.Reports)-1,
		}
		for _, f := range r.FilesReport() {
			rv.Files = append(rv.Files, links.row(f, view.Requirements.File))
		}
		data.Reports = append(data.Reports, rv)
	}

	if len(view.Reports) > 1 && view.Global != nil {
		data.Global = &overallView{
			Header: "Global",
			Row:    links.row(view.Global.OverallReport(), view.Requirements.Global),
		}
	}

	var buf bytes.Buffer
	if err := commentTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type linker struct {
	repo      application.Repository
	commit    string
	workspace string
}

func (l linker) row(f domain.FileCoverageReport, requirement domain.CoverageRequirement) rowView {
	return rowView{
		Title:      f.Title,
		Href:       l.href(f.File),
		Lines:      percent(f.Lines.Percentage),
		Functions:  percent(f.Functions.Percentage),
		Branches:   percent(f.Branches.Percentage),
		Statements: percent(f.Statements.Percentage),
		Icon:       requirement.Classify(f.Statements.Percentage).Icon(),
	}
}

// href links a file to its blob at the commit, relative to the workspace.
func (l linker) href(file string) string {
	if file == "" || l.repo.Owner == "" {
		return ""
	}
	relative := strings.TrimPrefix(pathutil.TrimWorkspace(file, l.workspace), "/")
	if relative == "" {
		relative = file
	}
	return "https://github.com/" + l.repo.String() + "/blob/" + l.commit + "/" + relative
}

// percent formats like the shortest decimal representation: 97.3, 100, 42.86.
func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
