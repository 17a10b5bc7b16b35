package cobertura

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Format(t *testing.T) {
	p := New()
	assert.Equal(t, domain.ReportTypeCobertura, p.Format())
}

func TestParser_Parse_ValidCobertura(t *testing.T) {
	content := `<?xml version="1.0"?>
<coverage version="1.0">
  <packages>
    <package name="com.example">
      <classes>
        <class name="Main" filename="src/Main.java">
          <methods>
            <method name="run" line-rate="1.0">
              <lines><line number="2" hits="1"/></lines>
            </method>
            <method name="stop" line-rate="0.0">
              <lines><line number="3" hits="0"/></lines>
            </method>
          </methods>
          <lines>
            <line number="1" hits="1"/>
            <line number="2" hits="1" branch="true" condition-coverage="50% (1/2)"/>
            <line number="3" hits="0" branch="true" condition-coverage="0% (0/4)"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	records := parse(t, content)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "src/Main.java", rec.File)
	assert.Equal(t, domain.Counter{Found: 3, Hit: 2}, rec.Lines.Counter)
	assert.Equal(t, domain.Counter{Found: 2, Hit: 1}, rec.Functions.Counter)
	assert.Equal(t, domain.Counter{Found: 6, Hit: 1}, rec.Branches.Counter)
	assert.Len(t, rec.Lines.Details, 3)
}

func TestParser_Parse_MultiplePackagesKeepOrder(t *testing.T) {
	content := `<?xml version="1.0"?>
<coverage version="1.0">
  <packages>
    <package name="com.example.util">
      <classes>
        <class name="Utils" filename="src/util/Utils.java">
          <lines>
            <line number="1" hits="0"/>
            <line number="2" hits="0"/>
            <line number="3" hits="0"/>
          </lines>
        </class>
      </classes>
    </package>
    <package name="com.example.core">
      <classes>
        <class name="Core" filename="src/core/Core.java">
          <lines>
            <line number="1" hits="1"/>
            <line number="2" hits="1"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	records := parse(t, content)

	require.Len(t, records, 2)
	assert.Equal(t, "src/util/Utils.java", records[0].File)
	assert.Equal(t, domain.Counter{Found: 3, Hit: 0}, records[0].Lines.Counter)
	assert.Equal(t, "src/core/Core.java", records[1].File)
	assert.Equal(t, domain.Counter{Found: 2, Hit: 2}, records[1].Lines.Counter)
}

func TestParser_Parse_MultipleClassesSameFile(t *testing.T) {
	// Some formats have multiple classes per file (inner classes, etc.)
	content := `<?xml version="1.0"?>
<coverage version="1.0">
  <packages>
    <package name="com.example">
      <classes>
        <class name="Main" filename="src/Main.java">
          <lines>
            <line number="1" hits="1"/>
            <line number="2" hits="1"/>
          </lines>
        </class>
        <class name="Main$Inner" filename="src/Main.java">
          <lines>
            <line number="10" hits="1"/>
            <line number="11" hits="0"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	records := parse(t, content)

	require.Len(t, records, 1)
	assert.Equal(t, domain.Counter{Found: 4, Hit: 3}, records[0].Lines.Counter)
}

func TestParser_Parse_MethodLinesNotDoubleCounted(t *testing.T) {
	content := `<coverage>
  <packages>
    <package name="app">
      <classes>
        <class name="app.py" filename="app.py">
          <methods>
            <method name="f">
              <lines><line number="1" hits="0"/></lines>
            </method>
          </methods>
          <lines>
            <line number="1" hits="4"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	records := parse(t, content)

	require.Len(t, records, 1)
	assert.Equal(t, domain.Counter{Found: 1, Hit: 1}, records[0].Lines.Counter)
}

func TestParser_Parse_SkipsClassesWithoutFilename(t *testing.T) {
	content := `<coverage><packages><package name="p"><classes>
<class name="Anon"><lines><line number="1" hits="1"/></lines></class>
</classes></package></packages></coverage>`

	records := parse(t, content)
	assert.Empty(t, records)
}

func TestParser_Parse_InvalidXML(t *testing.T) {
	path := createTempFile(t, `<coverage><packages>`)

	_, err := New().Parse(context.Background(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cobertura xml")
}

func TestParser_Parse_WrongRoot(t *testing.T) {
	path := createTempFile(t, `<report name="jacoco"></report>`)

	_, err := New().Parse(context.Background(), path)
	assert.Error(t, err)
}

func TestParser_Parse_FileNotFound(t *testing.T) {
	_, err := New().Parse(context.Background(), "/nonexistent/coverage.xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open cobertura file")
}

func parse(t *testing.T, content string) []domain.FileRecord {
	t.Helper()
	records, err := New().Parse(context.Background(), createTempFile(t, content))
	require.NoError(t, err)
	return records
}

// createTempFile creates a temporary file with the given content.
func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpfile := filepath.Join(t.TempDir(), "coverage.xml")
	err := os.WriteFile(tmpfile, []byte(content), 0o644)
	require.NoError(t, err)
	return tmpfile
}
