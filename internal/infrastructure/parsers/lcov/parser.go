// Package lcov implements a parser for LCOV coverage format.
//
// LCOV format is widely used by:
//   - nyc/c8/Jest (JavaScript/TypeScript)
//   - pytest-cov (Python)
//   - Ruby and PHP coverage tools
//   - GCC/LLVM gcov
package lcov

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// Parser reads LCOV tracefiles.
type Parser struct{}

// New creates a new LCOV parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the report type this parser handles.
func (p *Parser) Format() domain.ReportType {
	return domain.ReportTypeLCOV
}

// kind accumulates one coverage kind of a record. Summary lines (LF/LH,
// FNF/FNH, BRF/BRH) win over counts derived from detail lines.
type kind struct {
	detail     domain.Counter
	summary    domain.Counter
	hasSummary bool
}

func (k kind) counter() domain.Counter {
	if k.hasSummary {
		return k.summary
	}
	return k.detail
}

type record struct {
	file      string
	lines     kind
	functions kind
	branches  kind
	details   []domain.LineDetail
}

func (r *record) toFileRecord() domain.FileRecord {
	return domain.FileRecord{
		File:      r.file,
		Lines:     domain.RawSummary{Counter: r.lines.counter(), Details: r.details},
		Functions: domain.RawSummary{Counter: r.functions.counter()},
		Branches:  domain.RawSummary{Counter: r.branches.counter()},
	}
}

// Parse returns one record per SF section, in file order.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.FileRecord, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("open lcov file: %w", err)
	}
	defer file.Close()

	records := make([]domain.FileRecord, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "end_of_record" {
			if current != nil {
				records = append(records, current.toFileRecord())
			}
			current = nil
			continue
		}

		tag, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if tag == "SF" {
			if current != nil {
				records = append(records, current.toFileRecord())
			}
			current = &record{file: value}
			continue
		}
		if current == nil {
			// TN and anything else outside a record
			continue
		}
		if err := current.apply(tag, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lcov file: %w", err)
	}

	// Some tools don't emit end_of_record for the last file.
	if current != nil {
		records = append(records, current.toFileRecord())
	}

	return records, nil
}

func (r *record) apply(tag, value string) error {
	switch tag {
	case "DA":
		// DA:<line>,<count>[,<checksum>]
		parts := strings.Split(value, ",")
		if len(parts) < 2 {
			return fmt.Errorf("invalid DA entry %q", value)
		}
		lineNum, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid DA line %q", parts[0])
		}
		count := parseCount(parts[1])
		r.lines.detail.Found++
		if count > 0 {
			r.lines.detail.Hit++
		}
		r.details = append(r.details, domain.LineDetail{Line: lineNum, Hit: count})

	case "FNDA":
		// FNDA:<count>,<name>
		count, _, _ := strings.Cut(value, ",")
		r.functions.detail.Found++
		if parseCount(count) > 0 {
			r.functions.detail.Hit++
		}

	case "BRDA":
		// BRDA:<line>,<block>,<branch>,<taken>; taken is "-" when never evaluated
		parts := strings.Split(value, ",")
		if len(parts) < 4 {
			return fmt.Errorf("invalid BRDA entry %q", value)
		}
		r.branches.detail.Found++
		if parseCount(parts[3]) > 0 {
			r.branches.detail.Hit++
		}

	case "LF":
		return setSummary(&r.lines, value, true)
	case "LH":
		return setSummary(&r.lines, value, false)
	case "FNF":
		return setSummary(&r.functions, value, true)
	case "FNH":
		return setSummary(&r.functions, value, false)
	case "BRF":
		return setSummary(&r.branches, value, true)
	case "BRH":
		return setSummary(&r.branches, value, false)
	}
	return nil
}

func setSummary(k *kind, value string, found bool) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid summary value %q", value)
	}
	k.hasSummary = true
	if found {
		k.summary.Found = n
	} else {
		k.summary.Hit = n
	}
	return nil
}

// parseCount reads an execution count; some generators emit floats or "-".
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
