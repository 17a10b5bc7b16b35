package detector

import (
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/covreport/internal/domain"
)

// Language is a project language with a conventional coverage output.
type Language string

const (
	LanguageUnknown    Language = ""
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageKotlin     Language = "kotlin"
	LanguageRust       Language = "rust"
)

// LanguageMarker represents a file that indicates a specific language.
type LanguageMarker struct {
	Filename string
	Language Language
	Priority int // Higher priority wins when multiple markers exist
}

// DefaultLanguageMarkers defines the project file markers for language detection.
var DefaultLanguageMarkers = []LanguageMarker{
	// Go
	{Filename: "go.mod", Language: LanguageGo, Priority: 100},
	{Filename: "go.sum", Language: LanguageGo, Priority: 90},

	// Python
	{Filename: "pyproject.toml", Language: LanguagePython, Priority: 100},
	{Filename: "setup.py", Language: LanguagePython, Priority: 90},
	{Filename: "requirements.txt", Language: LanguagePython, Priority: 80},
	{Filename: "Pipfile", Language: LanguagePython, Priority: 85},
	{Filename: "poetry.lock", Language: LanguagePython, Priority: 85},

	// JavaScript/TypeScript
	{Filename: "package.json", Language: LanguageJavaScript, Priority: 90},
	{Filename: "tsconfig.json", Language: LanguageTypeScript, Priority: 100},
	{Filename: "yarn.lock", Language: LanguageJavaScript, Priority: 80},
	{Filename: "pnpm-lock.yaml", Language: LanguageJavaScript, Priority: 80},
	{Filename: "package-lock.json", Language: LanguageJavaScript, Priority: 80},

	// JVM
	{Filename: "pom.xml", Language: LanguageJava, Priority: 100},
	{Filename: "build.gradle", Language: LanguageJava, Priority: 100},
	{Filename: "build.gradle.kts", Language: LanguageKotlin, Priority: 100},
	{Filename: "settings.gradle", Language: LanguageJava, Priority: 90},
	{Filename: "settings.gradle.kts", Language: LanguageKotlin, Priority: 90},

	// Rust
	{Filename: "Cargo.toml", Language: LanguageRust, Priority: 100},
	{Filename: "Cargo.lock", Language: LanguageRust, Priority: 90},
}

// DetectLanguage detects the primary programming language of a project.
// It searches for language-specific project files starting from the given directory.
func (d *Detector) DetectLanguage(projectDir string) (Language, error) {
	return d.DetectLanguageWithMarkers(projectDir, DefaultLanguageMarkers)
}

// DetectLanguageWithMarkers detects language using custom markers.
func (d *Detector) DetectLanguageWithMarkers(projectDir string, markers []LanguageMarker) (Language, error) {
	var bestMatch Language
	var bestPriority int

	searchDirs := []string{projectDir}
	currentDir := projectDir
	for i := 0; i < 5; i++ {
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		searchDirs = append(searchDirs, parent)
		currentDir = parent
	}

	for _, dir := range searchDirs {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker.Filename)); err == nil {
				if marker.Priority > bestPriority {
					bestMatch = marker.Language
					bestPriority = marker.Priority
				}
			}
		}
		// A project root marker in the nearest directory settles it
		if bestPriority >= 100 {
			break
		}
	}

	return bestMatch, nil
}

// DefaultPatterns returns the glob patterns where the usual coverage tool of
// a language writes its report. Every pattern yields DefaultType(lang).
func (d *Detector) DefaultPatterns(lang Language) []string {
	switch lang {
	case LanguageGo:
		return []string{"coverage.out", "cover.out"}
	case LanguagePython:
		return []string{"coverage.xml"} // pytest-cov --cov-report=xml
	case LanguageJavaScript, LanguageTypeScript:
		return []string{"coverage/lcov.info"} // nyc/c8/jest default
	case LanguageJava, LanguageKotlin:
		return []string{
			"target/site/jacoco/jacoco.xml",                  // Maven
			"build/reports/jacoco/test/jacocoTestReport.xml", // Gradle
		}
	case LanguageRust:
		return []string{"target/coverage/lcov.info", "lcov.info"} // cargo-llvm-cov
	default:
		return []string{"coverage/lcov.info"}
	}
}

// DefaultType returns the report type written by the usual coverage tool of
// a language.
func (d *Detector) DefaultType(lang Language) domain.ReportType {
	switch lang {
	case LanguageGo:
		return domain.ReportTypeGo
	case LanguagePython:
		return domain.ReportTypeCobertura
	case LanguageJava, LanguageKotlin:
		return domain.ReportTypeJaCoCo
	default:
		return domain.ReportTypeLCOV
	}
}
