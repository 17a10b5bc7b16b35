package application

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/domain"
)

// pairSources attaches the i-th type and title to the i-th resolved file.
// Missing entries leave the type inferred and the title empty.
func pairSources(files []string, types []domain.ReportType, titles []string) []ReportSource {
	sources := make([]ReportSource, len(files))
	for i, file := range files {
		sources[i] = ReportSource{Path: file}
		if i < len(types) {
			sources[i].Type = types[i]
		}
		if i < len(titles) {
			sources[i].Title = titles[i]
		}
	}
	return sources
}

// MaxCheckRunSummaryBytes is the largest check run summary GitHub accepts
// without truncation.
const MaxCheckRunSummaryBytes = 60000

var expandReportPattern = regexp.MustCompile(`(?s)<details><summary>Expand Report</summary>(.+?)</details>`)

// truncateSummary drops every per-file "Expand Report" section when the
// rendered body is above the check run size limit.
func truncateSummary(body string) (string, bool) {
	if len(body) <= MaxCheckRunSummaryBytes {
		return body, false
	}
	return expandReportPattern.ReplaceAllString(body, ""), true
}

func containsHeader(body, header string) bool {
	return body != "" && strings.Contains(body, header)
}
