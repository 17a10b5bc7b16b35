package domain

import (
	"context"
	"errors"
)

func counter(found, hit int) RawSummary {
	return RawSummary{Counter: Counter{Found: found, Hit: hit}}
}

func jacocoRecords() []FileRecord {
	return []FileRecord{
		{File: `C:\w\project\dev\kurama\jacoco\Utils.java`, Lines: counter(7, 3), Functions: counter(7, 3)},
		{File: "C:/w/project/dev/kurama/jacoco/Math.kt", Lines: counter(4, 2), Functions: counter(4, 2)},
		{File: "C:/w/project/dev/kurama/jacoco/operation/StringOp.java", Lines: counter(2, 2), Functions: counter(2, 2)},
	}
}

func lcovRecords() []FileRecord {
	return []FileRecord{
		{File: "src/coverage-report.ts", Lines: counter(43, 41), Functions: counter(10, 10), Branches: counter(12, 9)},
		{File: "src/interface.ts", Lines: counter(14, 14), Functions: counter(3, 3), Branches: counter(6, 6)},
		{File: "src/mocks.ts", Lines: counter(2, 2)},
		{File: "src/renderer.ts", Lines: counter(15, 15), Functions: counter(7, 7), Branches: counter(42, 27)},
	}
}

type stubParser struct {
	records map[string][]FileRecord
	errs    map[string]error
	calls   []ReportType
}

func (p *stubParser) Parse(_ context.Context, path string, reportType ReportType) ([]FileRecord, error) {
	p.calls = append(p.calls, reportType)
	if err := p.errs[path]; err != nil {
		return nil, err
	}
	recs, ok := p.records[path]
	if !ok {
		return nil, errors.New("no such report")
	}
	return recs, nil
}

func newStubParser() *stubParser {
	return &stubParser{
		records: map[string][]FileRecord{
			"reports/jacoco.xml": jacocoRecords(),
			"reports/lcov.info":  lcovRecords(),
		},
		errs: map[string]error{},
	}
}

func mustReport(path string, parser ReportParser) *CoverageReport {
	r, err := NewCoverageReport(path, "", "")
	if err != nil {
		panic(err)
	}
	if err := r.Init(context.Background(), parser); err != nil {
		panic(err)
	}
	return r
}
