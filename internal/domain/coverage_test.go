package domain

import "testing"

func TestCounterPercentage(t *testing.T) {
	cases := []struct {
		name    string
		counter Counter
		want    float64
	}{
		{"nothing to cover", Counter{}, 100},
		{"nothing found but hits reported", Counter{Found: 0, Hit: 3}, 100},
		{"three of seven", Counter{Found: 7, Hit: 3}, 42.86},
		{"half", Counter{Found: 4, Hit: 2}, 50},
		{"full", Counter{Found: 2, Hit: 2}, 100},
		{"none", Counter{Found: 9, Hit: 0}, 0},
		{"rounds half up", Counter{Found: 64, Hit: 49}, 76.56},
		{"seventy-two of seventy-four", Counter{Found: 74, Hit: 72}, 97.3},
		{"binary tie rounds down", Counter{Found: 160, Hit: 23}, 14.37},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.counter.Percentage(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCounterPercentageInRange(t *testing.T) {
	for found := 1; found <= 50; found++ {
		for hit := 0; hit <= found; hit++ {
			got := Counter{Found: found, Hit: hit}.Percentage()
			if got < 0 || got > 100 {
				t.Fatalf("%d/%d: percentage %v outside [0, 100]", hit, found, got)
			}
			if want := Round2(float64(hit) / float64(found) * 100); got != want {
				t.Fatalf("%d/%d: expected %v, got %v", hit, found, want, got)
			}
		}
	}
}

func TestSumCounters(t *testing.T) {
	got := SumCounters(Counter{Found: 1, Hit: 1}, Counter{}, Counter{Found: 5, Hit: 2})
	if got != (Counter{Found: 6, Hit: 3}) {
		t.Fatalf("unexpected sum: %+v", got)
	}
	if got := SumCounters(); got != (Counter{}) {
		t.Fatalf("expected zero counter, got %+v", got)
	}
}

func TestEnhanceDerivesStatements(t *testing.T) {
	rec := FileRecord{
		File:      "src/a.ts",
		Lines:     RawSummary{Counter: Counter{Found: 43, Hit: 41}, Details: []LineDetail{{Line: 1, Hit: 1}}},
		Functions: counter(10, 10),
		Branches:  counter(12, 9),
	}
	got := Enhance(rec)

	if got.Statements != (Summary{Found: 65, Hit: 60, Percentage: 92.31}) {
		t.Fatalf("unexpected statements: %+v", got.Statements)
	}
	if got.Lines.Percentage != 95.35 || got.Functions.Percentage != 100 || got.Branches.Percentage != 75 {
		t.Fatalf("unexpected percentages: %+v", got)
	}
	if got.Title != "a.ts" {
		t.Fatalf("expected title a.ts, got %q", got.Title)
	}
}

func TestEnhanceNormalizesPathAndTitle(t *testing.T) {
	cases := []struct {
		name      string
		rec       FileRecord
		wantFile  string
		wantTitle string
	}{
		{"backslashes", FileRecord{File: `C:\w\src\Utils.java`}, "C:/w/src/Utils.java", "Utils.java"},
		{"explicit title kept", FileRecord{File: "a/b.go", Title: "Custom"}, "a/b.go", "Custom"},
		{"no file", FileRecord{}, "", NoFilenameTitle},
		{"trailing slash", FileRecord{File: "dir/"}, "dir/", NoFilenameTitle},
		{"bare name", FileRecord{File: "main.go"}, "main.go", "main.go"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Enhance(tc.rec)
			if got.File != tc.wantFile {
				t.Fatalf("expected file %q, got %q", tc.wantFile, got.File)
			}
			if got.Title != tc.wantTitle {
				t.Fatalf("expected title %q, got %q", tc.wantTitle, got.Title)
			}
		})
	}
}

func TestEnhanceEveryPercentagePopulated(t *testing.T) {
	got := Enhance(FileRecord{})
	for name, s := range map[string]Summary{
		"lines": got.Lines, "functions": got.Functions, "branches": got.Branches, "statements": got.Statements,
	} {
		if s.Percentage != 100 {
			t.Fatalf("%s: expected 100 for an empty kind, got %v", name, s.Percentage)
		}
	}
}

func TestFoldMatchesSumOfStatements(t *testing.T) {
	files := make([]FileCoverageReport, 0)
	var statements Counter
	for _, rec := range lcovRecords() {
		f := Enhance(rec)
		files = append(files, f)
		statements = statements.Add(f.Statements.Counter())
	}

	overall := Overall(files)
	if overall.Statements.Counter() != statements {
		t.Fatalf("expected statements %+v, got %+v", statements, overall.Statements)
	}

	reversed := make([]FileCoverageReport, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}
	if Overall(reversed) != overall {
		t.Fatalf("fold should not depend on order")
	}
}

func TestOverallTwoFilesScenario(t *testing.T) {
	files := []FileCoverageReport{
		Enhance(FileRecord{File: "a", Lines: counter(7, 3), Functions: counter(7, 3)}),
		Enhance(FileRecord{File: "b", Lines: counter(4, 2), Functions: counter(4, 2)}),
	}
	got := Overall(files)
	if got.Lines != (Summary{Found: 11, Hit: 5, Percentage: 45.45}) {
		t.Fatalf("unexpected overall lines: %+v", got.Lines)
	}
}

func TestFoldDoesNotMutateInput(t *testing.T) {
	files := []FileCoverageReport{Enhance(FileRecord{File: "a", Lines: counter(3, 1)})}
	before := files[0]
	_ = Fold(files)
	if files[0] != before {
		t.Fatalf("fold mutated its input")
	}
}
