package domain

import (
	"math"
	"strings"
)

// NoFilenameTitle is the display title of a record that has neither a
// title nor a file path.
const NoFilenameTitle = "No Filename"

// Counter measures opportunities (Found) against covered opportunities (Hit)
// for one coverage kind. The zero value is a valid "nothing of this kind"
// counter and stands in for an absent operand in sums.
type Counter struct {
	Found int `json:"found"`
	Hit   int `json:"hit"`
}

// Add returns the element-wise sum of two counters.
func (c Counter) Add(other Counter) Counter {
	return Counter{
		Found: c.Found + other.Found,
		Hit:   c.Hit + other.Hit,
	}
}

// Percentage returns hit/found as a percentage rounded to two decimals.
// A kind with nothing to cover is reported as fully covered (100).
func (c Counter) Percentage() float64 {
	if c.Found == 0 {
		return 100
	}
	return Round2(float64(c.Hit) / float64(c.Found) * 100)
}

// SumCounters folds the given counters into a new counter.
func SumCounters(counters ...Counter) Counter {
	var total Counter
	for _, c := range counters {
		total = total.Add(c)
	}
	return total
}

// LineDetail is per-line hit data some parsers attach to a raw summary.
type LineDetail struct {
	Line int
	Hit  int
}

// RawSummary is a counter as delivered by a parser.
// Details never survive enhancement.
type RawSummary struct {
	Counter
	Details []LineDetail
}

// Summary is an enhanced counter carrying its derived percentage.
type Summary struct {
	Found      int     `json:"found"`
	Hit        int     `json:"hit"`
	Percentage float64 `json:"percentage"`
}

// NewSummary derives the percentage of a counter.
func NewSummary(c Counter) Summary {
	return Summary{
		Found:      c.Found,
		Hit:        c.Hit,
		Percentage: c.Percentage(),
	}
}

// Counter returns the found/hit pair of the summary.
func (s Summary) Counter() Counter {
	return Counter{Found: s.Found, Hit: s.Hit}
}

// FileRecord is one raw per-file record as produced by a report parser.
// Statements are never supplied; they are derived during enhancement.
type FileRecord struct {
	Title     string
	File      string
	Lines     RawSummary
	Functions RawSummary
	Branches  RawSummary
}

// FileCoverageReport is the enhanced coverage of one source file, or of an
// aggregate (report overall, global overall) which reuses the same shape.
type FileCoverageReport struct {
	Title      string  `json:"title"`
	File       string  `json:"file,omitempty"`
	Lines      Summary `json:"lines"`
	Functions  Summary `json:"functions"`
	Branches   Summary `json:"branches"`
	Statements Summary `json:"statements"`
}

// Enhance turns a raw record into a FileCoverageReport: statements are the
// sum of lines, functions and branches, every kind gets its percentage,
// per-line detail is dropped, separators in File become forward slashes and
// an empty Title defaults to the last segment of File.
func Enhance(rec FileRecord) FileCoverageReport {
	statements := SumCounters(rec.Lines.Counter, rec.Functions.Counter, rec.Branches.Counter)
	file := NormalizeSeparators(rec.File)
	title := rec.Title
	if title == "" {
		title = defaultTitle(file)
	}
	return FileCoverageReport{
		Title:      title,
		File:       file,
		Lines:      NewSummary(rec.Lines.Counter),
		Functions:  NewSummary(rec.Functions.Counter),
		Branches:   NewSummary(rec.Branches.Counter),
		Statements: NewSummary(statements),
	}
}

// Fold sums lines, functions and branches across reports into a raw record.
// Statements of the inputs are ignored; Enhance derives them again.
func Fold(reports []FileCoverageReport) FileRecord {
	var acc FileRecord
	for _, r := range reports {
		acc = FileRecord{
			Lines:     RawSummary{Counter: acc.Lines.Add(r.Lines.Counter())},
			Functions: RawSummary{Counter: acc.Functions.Add(r.Functions.Counter())},
			Branches:  RawSummary{Counter: acc.Branches.Add(r.Branches.Counter())},
		}
	}
	return acc
}

// Overall is the enhanced sum of the given reports. Its Title is the
// placeholder produced by Enhance; callers assign the aggregate's name.
func Overall(reports []FileCoverageReport) FileCoverageReport {
	return Enhance(Fold(reports))
}

// NormalizeSeparators converts backslashes to forward slashes.
func NormalizeSeparators(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// baseName returns the last slash-separated segment of p.
func baseName(p string) string {
	p = NormalizeSeparators(p)
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func defaultTitle(file string) string {
	if title := baseName(file); title != "" {
		return title
	}
	return NoFilenameTitle
}

// Round2 rounds the float64 value to two decimal places, half away from
// zero. Ties are decided on the binary value, so 23/160 (14.374999...) gives
// 14.37, not the decimal 14.38. Every coverage percentage uses it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
