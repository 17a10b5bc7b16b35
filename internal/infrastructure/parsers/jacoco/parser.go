// Package jacoco implements a parser for the JaCoCo XML report format.
//
// JaCoCo reports are produced by the JaCoCo agent for JVM languages
// (Java, Kotlin, Scala) via Maven, Gradle or the jacoco-cli.
package jacoco

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// Counter types emitted by JaCoCo that map onto coverage kinds.
const (
	counterLine   = "LINE"
	counterMethod = "METHOD"
	counterBranch = "BRANCH"
)

// group is both the <report> root and a nested <group> element.
type group struct {
	Groups   []group `xml:"group"`
	Packages []pkg   `xml:"package"`
}

type pkg struct {
	Name        string       `xml:"name,attr"`
	SourceFiles []sourceFile `xml:"sourcefile"`
}

type sourceFile struct {
	Name     string    `xml:"name,attr"`
	Lines    []line    `xml:"line"`
	Counters []counter `xml:"counter"`
}

type line struct {
	Number  int `xml:"nr,attr"`
	Covered int `xml:"ci,attr"`
}

type counter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

// Parser reads JaCoCo XML reports.
type Parser struct{}

// New creates a new JaCoCo parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the report type this parser handles.
func (p *Parser) Format() domain.ReportType {
	return domain.ReportTypeJaCoCo
}

// Parse returns one record per <sourcefile>, in document order.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.FileRecord, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("open jacoco file: %w", err)
	}
	defer file.Close()

	decoder := xml.NewDecoder(file)
	// report.dtd is referenced but never resolved.
	decoder.Strict = false

	var root group
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode jacoco xml: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]domain.FileRecord, 0)
	collect(root, &records)
	return records, nil
}

func collect(g group, records *[]domain.FileRecord) {
	for _, p := range g.Packages {
		for _, sf := range p.SourceFiles {
			*records = append(*records, toRecord(p.Name, sf))
		}
	}
	for _, child := range g.Groups {
		collect(child, records)
	}
}

func toRecord(packageName string, sf sourceFile) domain.FileRecord {
	rec := domain.FileRecord{
		Title: sf.Name,
		File:  joinPackage(packageName, sf.Name),
	}
	for _, c := range sf.Counters {
		summary := domain.RawSummary{Counter: domain.Counter{Found: c.Missed + c.Covered, Hit: c.Covered}}
		switch c.Type {
		case counterLine:
			summary.Details = lineDetails(sf.Lines)
			rec.Lines = summary
		case counterMethod:
			rec.Functions = summary
		case counterBranch:
			rec.Branches = summary
		}
	}
	return rec
}

func lineDetails(lines []line) []domain.LineDetail {
	if len(lines) == 0 {
		return nil
	}
	details := make([]domain.LineDetail, len(lines))
	for i, l := range lines {
		details[i] = domain.LineDetail{Line: l.Number, Hit: l.Covered}
	}
	return details
}

func joinPackage(packageName, fileName string) string {
	packageName = strings.TrimSuffix(packageName, "/")
	if packageName == "" {
		return fileName
	}
	return packageName + "/" + fileName
}
