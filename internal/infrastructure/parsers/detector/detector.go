// Package detector sniffs coverage report formats and project languages.
//
// Report types are inferred from extensions by the domain; the detector
// looks at file content so that a report whose content disagrees with its
// declared or inferred type can be rejected before parsing.
package detector

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// sniffBytes is how much of a report is read for content detection.
const sniffBytes = 4096

// Detector detects coverage report formats from file content.
type Detector struct{}

// New creates a new format detector.
func New() *Detector {
	return &Detector{}
}

// DetectFormat examines file content to determine the report type.
// It uses content sniffing first, then falls back to the extension.
// An empty type means the format is unknown.
func (d *Detector) DetectFormat(path string) (domain.ReportType, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return "", err
	}

	content, err := readHead(cleanPath, sniffBytes)
	if err != nil {
		return "", err
	}

	if format := d.DetectContent(content); format != "" {
		return format, nil
	}
	return d.detectFromExtension(path), nil
}

// DetectContent returns the report type the content looks like, or an
// empty type when no marker is found.
func (d *Detector) DetectContent(content []byte) domain.ReportType {
	if bytes.HasPrefix(bytes.TrimSpace(content), []byte("mode:")) {
		return domain.ReportTypeGo
	}

	if isXML(content) {
		switch {
		case containsCoberturaMarkers(content):
			return domain.ReportTypeCobertura
		case containsJaCoCoMarkers(content):
			return domain.ReportTypeJaCoCo
		}
		return ""
	}

	if isLCOV(content) {
		return domain.ReportTypeLCOV
	}
	return ""
}

func (d *Detector) detectFromExtension(path string) domain.ReportType {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.ToLower(filepath.Base(path))

	switch {
	case ext == ".out" || base == "coverage.out" || base == "cover.out":
		return domain.ReportTypeGo
	case ext == ".info" || ext == ".lcov":
		return domain.ReportTypeLCOV
	}
	// XML could be Cobertura or JaCoCo; only content tells them apart.
	return ""
}

func isXML(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(content), []byte("<"))
}

// containsCoberturaMarkers looks for the <coverage> root element.
func containsCoberturaMarkers(content []byte) bool {
	return bytes.Contains(content, []byte("<coverage")) ||
		bytes.Contains(bytes.ToLower(content), []byte("cobertura.sourceforge.net"))
}

// containsJaCoCoMarkers looks for the <report> root element. The JaCoCo DTD
// is declared as "-//JACOCO//DTD Report", so the check ignores case.
func containsJaCoCoMarkers(content []byte) bool {
	return bytes.Contains(content, []byte("<report")) ||
		bytes.Contains(bytes.ToLower(content), []byte("jacoco"))
}

// isLCOV requires a source file record with at least one data line.
func isLCOV(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	var hasSF, hasData bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			hasSF = true
		case strings.HasPrefix(line, "DA:"),
			strings.HasPrefix(line, "LF:"),
			strings.HasPrefix(line, "FN:"),
			line == "end_of_record":
			hasData = true
		}
		if hasSF && hasData {
			return true
		}
	}
	return false
}

func readHead(path string, n int) ([]byte, error) {
	file, err := os.Open(path) // #nosec G304 - path is validated by caller
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, n)
	nRead, err := io.ReadFull(file, buf)
	// Short files are valid, just return what we got
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:nRead], nil
}
