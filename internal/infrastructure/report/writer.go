// Package report renders coverage results for terminals, machines and
// GitHub comments.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

// Writer implements application.Reporter.
type Writer struct{}

func (Writer) Write(w io.Writer, result application.ReportResult, format application.OutputFormat) error {
	if err := domain.RequireInitialized(result.Reports...); err != nil {
		return err
	}
	if err := domain.RequireInitialized(result.Global); err != nil {
		return err
	}
	switch format {
	case application.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newJSONReport(result))
	case application.OutputHTML:
		return writeHTML(w, result)
	case application.OutputBrief:
		return writeBrief(w, result)
	case application.OutputText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

type jsonReport struct {
	Title      string                      `json:"title,omitempty"`
	Passed     bool                        `json:"passed"`
	Reports    []jsonCoverageReport        `json:"reports"`
	Global     *jsonGlobal                 `json:"global,omitempty"`
	Thresholds domain.CoverageRequirements `json:"thresholds"`
	Unmet      []domain.UnmetRequirement   `json:"unmet"`
	Failures   []jsonFailure               `json:"failures,omitempty"`
}

type jsonCoverageReport struct {
	Path    string                      `json:"path"`
	Type    domain.ReportType           `json:"type"`
	Title   string                      `json:"title,omitempty"`
	Overall domain.FileCoverageReport   `json:"overall"`
	Files   []domain.FileCoverageReport `json:"files"`
	Status  domain.Status               `json:"status"`
}

type jsonGlobal struct {
	Overall domain.FileCoverageReport `json:"overall"`
	Status  domain.Status             `json:"status"`
}

type jsonFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func newJSONReport(result application.ReportResult) jsonReport {
	reqs := result.Requirements
	out := jsonReport{
		Title:      result.Title,
		Passed:     result.Passed(),
		Reports:    make([]jsonCoverageReport, 0, len(result.Reports)),
		Thresholds: reqs,
		Unmet:      result.Unmet,
	}
	if out.Unmet == nil {
		out.Unmet = []domain.UnmetRequirement{}
	}
	for _, r := range result.Reports {
		overall := r.OverallReport()
		files := r.FilesReport()
		if files == nil {
			files = []domain.FileCoverageReport{}
		}
		out.Reports = append(out.Reports, jsonCoverageReport{
			Path:    r.Path(),
			Type:    r.Type(),
			Title:   r.Title(),
			Overall: overall,
			Files:   files,
			Status:  reqs.Report.Classify(overall.Statements.Percentage),
		})
	}
	if result.Global != nil {
		overall := result.Global.OverallReport()
		out.Global = &jsonGlobal{Overall: overall, Status: reqs.Global.Classify(overall.Statements.Percentage)}
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, jsonFailure{Path: f.Path, Error: f.Err.Error()})
	}
	return out
}

type styles struct {
	enabled bool
	pass    lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	return styles{
		enabled: colorEnabled(w),
		pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
		header:  lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (s styles) status(st domain.Status) string {
	if !s.enabled {
		return string(st)
	}
	switch st {
	case domain.StatusFail:
		return s.fail.Render(string(st))
	case domain.StatusWarn:
		return s.warn.Render(string(st))
	default:
		return s.pass.Render(string(st))
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func writeText(w io.Writer, result application.ReportResult) error {
	st := newStyles(w)
	reqs := result.Requirements

	if result.Title != "" {
		fmt.Fprintln(w, st.render(st.header, result.Title))
		fmt.Fprintln(w)
	}
	if len(result.Reports) == 0 {
		fmt.Fprintln(w, "No coverage reports found")
	}

	for i, r := range result.Reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", st.render(st.header, r.DisplayName()), st.render(st.muted, fmt.Sprintf("(%s, %s)", r.Type(), r.Path())))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "File\tLines\tFunctions\tBranches\tStatements\tStatus")
		for _, f := range r.FilesReport() {
			writeRow(tw, st, f.Title, f, reqs.File)
		}
		writeRow(tw, st, "Total", r.OverallReport(), reqs.Report)
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if result.Global != nil {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "Global\tLines\tFunctions\tBranches\tStatements\tStatus")
		writeRow(tw, st, result.Global.OverallReport().Title, result.Global.OverallReport(), reqs.Global)
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(result.Unmet) > 0 {
		fmt.Fprintln(w, "\nUnmet requirements:")
		for _, u := range result.Unmet {
			fmt.Fprintf(w, "  - %s: %.2f%% < %.2f%%\n", u.Title, u.Coverage, u.Requirement)
		}
	}
	if len(result.Failures) > 0 {
		fmt.Fprintln(w, "\nFailed reports:")
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  - %s\n", f.Error())
		}
	}
	return nil
}

func writeRow(tw io.Writer, st styles, name string, f domain.FileCoverageReport, req domain.CoverageRequirement) {
	_, _ = fmt.Fprintf(tw, "%s\t%s%%\t%s%%\t%s%%\t%s%%\t%s\n",
		name,
		percent(f.Lines.Percentage),
		percent(f.Functions.Percentage),
		percent(f.Branches.Percentage),
		percent(f.Statements.Percentage),
		st.status(req.Classify(f.Statements.Percentage)),
	)
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// writeBrief outputs a single-line summary for CI logs and agents.
// Format: STATUS | XX.XX% statements | N reports [| unmet: title (XX.XX%), ...] [| N failed]
func writeBrief(w io.Writer, result application.ReportResult) error {
	status := "PASS"
	if !result.Passed() {
		status = "FAIL"
	}

	var sb strings.Builder
	if report, _, ok := result.Headline(); ok {
		fmt.Fprintf(&sb, "%s | %.2f%% statements | %d reports", status, report.OverallReport().Statements.Percentage, len(result.Reports))
	} else {
		fmt.Fprintf(&sb, "%s | no reports", status)
	}

	if len(result.Unmet) > 0 {
		sb.WriteString(" | unmet:")
		for i, u := range result.Unmet {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, " %s (%.2f%%)", u.Title, u.Coverage)
		}
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(&sb, " | %d failed", len(result.Failures))
	}

	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
