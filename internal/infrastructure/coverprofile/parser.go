// Package coverprofile reads Go cover profiles (go test -coverprofile).
package coverprofile

import (
	"context"
	"fmt"

	"golang.org/x/tools/cover"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// Parser reads Go cover profiles. Statements are reported as lines; a cover
// profile carries no function or branch data.
type Parser struct{}

// Format returns the report type this parser handles.
func (Parser) Format() domain.ReportType {
	return domain.ReportTypeGo
}

// Parse returns one record per profiled file, sorted by file name.
func (Parser) Parse(ctx context.Context, path string) ([]domain.FileRecord, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	profiles, err := cover.ParseProfiles(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("parse cover profile: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]domain.FileRecord, 0, len(profiles))
	for _, profile := range profiles {
		records = append(records, toRecord(profile))
	}
	return records, nil
}

func toRecord(profile *cover.Profile) domain.FileRecord {
	var stmts domain.Counter
	details := make([]domain.LineDetail, 0, len(profile.Blocks))
	for _, block := range profile.Blocks {
		stmts.Found += block.NumStmt
		if block.Count > 0 {
			stmts.Hit += block.NumStmt
		}
		details = append(details, domain.LineDetail{Line: block.StartLine, Hit: block.Count})
	}
	return domain.FileRecord{
		File:  profile.FileName,
		Lines: domain.RawSummary{Counter: stmts, Details: details},
	}
}
