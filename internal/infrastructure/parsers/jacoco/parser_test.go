package jacoco

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<!DOCTYPE report PUBLIC "-//JACOCO//DTD Report 1.1//EN" "report.dtd">
<report name="kurama">
  <sessioninfo id="host-1" start="1" dump="2"/>
  <package name="dev/kurama/jacoco">
    <class name="dev/kurama/jacoco/Utils" sourcefilename="Utils.java">
      <method name="sum" desc="(II)I" line="5">
        <counter type="LINE" missed="0" covered="1"/>
      </method>
      <counter type="LINE" missed="4" covered="3"/>
    </class>
    <sourcefile name="Utils.java">
      <line nr="5" mi="0" ci="3" mb="0" cb="0"/>
      <line nr="9" mi="2" ci="0" mb="0" cb="0"/>
      <counter type="INSTRUCTION" missed="12" covered="9"/>
      <counter type="LINE" missed="4" covered="3"/>
      <counter type="COMPLEXITY" missed="4" covered="3"/>
      <counter type="METHOD" missed="4" covered="3"/>
      <counter type="CLASS" missed="0" covered="1"/>
    </sourcefile>
    <sourcefile name="Math.kt">
      <counter type="LINE" missed="2" covered="2"/>
      <counter type="METHOD" missed="2" covered="2"/>
      <counter type="BRANCH" missed="1" covered="3"/>
    </sourcefile>
    <counter type="LINE" missed="6" covered="5"/>
  </package>
  <group name="operations">
    <package name="dev/kurama/jacoco/operation">
      <sourcefile name="StringOp.java">
        <counter type="LINE" missed="0" covered="2"/>
        <counter type="METHOD" missed="0" covered="2"/>
      </sourcefile>
    </package>
  </group>
  <counter type="LINE" missed="6" covered="7"/>
</report>`

func TestParser_Format(t *testing.T) {
	assert.Equal(t, domain.ReportTypeJaCoCo, New().Format())
}

func TestParser_Parse(t *testing.T) {
	path := writeReport(t, sampleReport)

	records, err := New().Parse(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	utils := records[0]
	assert.Equal(t, "Utils.java", utils.Title)
	assert.Equal(t, "dev/kurama/jacoco/Utils.java", utils.File)
	assert.Equal(t, domain.Counter{Found: 7, Hit: 3}, utils.Lines.Counter)
	assert.Equal(t, domain.Counter{Found: 7, Hit: 3}, utils.Functions.Counter)
	assert.Equal(t, domain.Counter{}, utils.Branches.Counter)
	assert.Equal(t, []domain.LineDetail{{Line: 5, Hit: 3}, {Line: 9, Hit: 0}}, utils.Lines.Details)

	math := records[1]
	assert.Equal(t, "dev/kurama/jacoco/Math.kt", math.File)
	assert.Equal(t, domain.Counter{Found: 4, Hit: 3}, math.Branches.Counter)

	stringOp := records[2]
	assert.Equal(t, "dev/kurama/jacoco/operation/StringOp.java", stringOp.File)
	assert.Equal(t, domain.Counter{Found: 2, Hit: 2}, stringOp.Lines.Counter)
}

func TestParser_Parse_EnhancedOverall(t *testing.T) {
	path := writeReport(t, sampleReport)
	records, err := New().Parse(context.Background(), path)
	require.NoError(t, err)

	files := make([]domain.FileCoverageReport, len(records))
	for i, rec := range records {
		files[i] = domain.Enhance(rec)
	}
	overall := domain.Overall(files)
	assert.Equal(t, domain.Summary{Found: 13, Hit: 7, Percentage: 53.85}, overall.Lines)
	assert.Equal(t, 42.86, files[0].Statements.Percentage)
}

func TestParser_Parse_EmptyReport(t *testing.T) {
	path := writeReport(t, `<report name="empty"></report>`)

	records, err := New().Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParser_Parse_InvalidXML(t *testing.T) {
	path := writeReport(t, `<report><package name="x">`)

	_, err := New().Parse(context.Background(), path)
	assert.Error(t, err)
}

func TestParser_Parse_FileNotFound(t *testing.T) {
	_, err := New().Parse(context.Background(), filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

func TestParser_Parse_EmptyPath(t *testing.T) {
	_, err := New().Parse(context.Background(), "")
	assert.Error(t, err)
}

func TestParser_Parse_CanceledContext(t *testing.T) {
	path := writeReport(t, sampleReport)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Parse(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jacoco.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
