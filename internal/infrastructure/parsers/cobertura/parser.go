// Package cobertura implements a parser for Cobertura XML coverage format.
//
// Cobertura XML format is widely used by:
//   - Python (coverage.py with --xml)
//   - .NET (coverlet)
//   - gocover-cobertura and many CI tools (Jenkins, Azure DevOps, etc.)
//
// Cobertura files share the .xml extension with JaCoCo, so the type must
// always be given explicitly.
package cobertura

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// coverage represents the root Cobertura XML element.
type coverage struct {
	XMLName  xml.Name `xml:"coverage"`
	Packages []pkg    `xml:"packages>package"`
}

type pkg struct {
	Name    string  `xml:"name,attr"`
	Classes []class `xml:"classes>class"`
}

type class struct {
	Name     string   `xml:"name,attr"`
	Filename string   `xml:"filename,attr"`
	Lines    []line   `xml:"lines>line"`
	Methods  []method `xml:"methods>method"`
}

type method struct {
	Name     string  `xml:"name,attr"`
	LineRate float64 `xml:"line-rate,attr"`
	Lines    []line  `xml:"lines>line"`
}

type line struct {
	Number            int    `xml:"number,attr"`
	Hits              int    `xml:"hits,attr"`
	Branch            bool   `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

// conditionPattern extracts "(covered/total)" from condition-coverage="50% (1/2)".
var conditionPattern = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// Parser reads Cobertura XML reports.
type Parser struct{}

// New creates a new Cobertura parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the report type this parser handles.
func (p *Parser) Format() domain.ReportType {
	return domain.ReportTypeCobertura
}

type fileAccumulator struct {
	file      string
	lines     map[int]int
	branches  map[int]domain.Counter
	functions domain.Counter
	details   []domain.LineDetail
}

func (a *fileAccumulator) addLine(ln line) {
	if ln.Hits > 0 {
		a.lines[ln.Number] = ln.Hits
	} else if _, exists := a.lines[ln.Number]; !exists {
		a.lines[ln.Number] = 0
	}
	if !ln.Branch {
		return
	}
	if m := conditionPattern.FindStringSubmatch(ln.ConditionCoverage); m != nil {
		hit, _ := strconv.Atoi(m[1])
		found, _ := strconv.Atoi(m[2])
		a.branches[ln.Number] = domain.Counter{Found: found, Hit: hit}
	}
}

func (a *fileAccumulator) toRecord() domain.FileRecord {
	var lines, branches domain.Counter
	for _, hits := range a.lines {
		lines.Found++
		if hits > 0 {
			lines.Hit++
		}
	}
	for _, c := range a.branches {
		branches = branches.Add(c)
	}
	return domain.FileRecord{
		File:      a.file,
		Lines:     domain.RawSummary{Counter: lines, Details: a.details},
		Functions: domain.RawSummary{Counter: a.functions},
		Branches:  domain.RawSummary{Counter: branches},
	}
}

// Parse returns one record per distinct class filename, in order of first
// appearance. Classes sharing a file (inner classes) are merged.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.FileRecord, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("open cobertura file: %w", err)
	}
	defer file.Close()

	var cov coverage
	if err := xml.NewDecoder(file).Decode(&cov); err != nil {
		return nil, fmt.Errorf("decode cobertura xml: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var order []*fileAccumulator
	byFile := make(map[string]*fileAccumulator)

	for _, pkg := range cov.Packages {
		for _, cls := range pkg.Classes {
			if cls.Filename == "" {
				continue
			}
			acc, ok := byFile[cls.Filename]
			if !ok {
				acc = &fileAccumulator{
					file:     cls.Filename,
					lines:    make(map[int]int),
					branches: make(map[int]domain.Counter),
				}
				byFile[cls.Filename] = acc
				order = append(order, acc)
			}

			for _, ln := range cls.Lines {
				acc.addLine(ln)
				acc.details = append(acc.details, domain.LineDetail{Line: ln.Number, Hit: ln.Hits})
			}
			// Some generators nest lines under methods only.
			for _, m := range cls.Methods {
				covered := m.LineRate > 0
				for _, ln := range m.Lines {
					acc.addLine(ln)
					if ln.Hits > 0 {
						covered = true
					}
				}
				acc.functions.Found++
				if covered {
					acc.functions.Hit++
				}
			}
		}
	}

	records := make([]domain.FileRecord, len(order))
	for i, acc := range order {
		records[i] = acc.toRecord()
	}
	return records, nil
}
