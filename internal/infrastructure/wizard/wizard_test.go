package wizard

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

func TestInitWizardModelAdjustsThresholds(t *testing.T) {
	model := newInitWizardModel(minimalConfig())

	model.adjustSelection(5) // file error
	if model.cfg.Requirements.File.Error != 65 {
		t.Fatalf("expected file error 65, got %.0f", model.cfg.Requirements.File.Error)
	}

	model.cursor = 5
	model.adjustSelection(-5) // global warn
	if model.cfg.Requirements.Global.Warn != 80 {
		t.Fatalf("expected global warn 80, got %.0f", model.cfg.Requirements.Global.Warn)
	}
}

func TestInitWizardSuggestsThresholds(t *testing.T) {
	model := newInitWizardModel(application.Config{Files: []string{"coverage/lcov.info"}})
	if model.cfg.Requirements != suggested {
		t.Fatalf("expected suggested thresholds, got %+v", model.cfg.Requirements)
	}
}

func TestInitWizardModelConfigOutput(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.cursor = 2
	model.adjustSelection(10)

	cfg := model.toConfig()
	if cfg.Requirements.Report.Error != 80 {
		t.Fatalf("expected report error 80, got %.0f", cfg.Requirements.Report.Error)
	}
	if cfg.Title != "Backend" || len(cfg.Files) != 1 || cfg.Concurrency != 4 {
		t.Fatalf("expected other settings preserved, got %+v", cfg)
	}
}

func TestRunInitWizardCompletes(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("\r\r\r")
	cfg, confirmed, err := runInitWizard(minimalConfig(), &out, stdin)
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if !confirmed {
		t.Fatalf("expected wizard to confirm")
	}
	if cfg.Requirements != minimalConfig().Requirements {
		t.Fatalf("unexpected thresholds %+v", cfg.Requirements)
	}
}

func TestRunInitWizardCancel(t *testing.T) {
	var out bytes.Buffer
	cfg, confirmed, err := runInitWizard(minimalConfig(), &out, strings.NewReader("q"))
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if confirmed {
		t.Fatalf("expected wizard to be cancelled")
	}
	if cfg.Title != "Backend" {
		t.Fatalf("expected input config returned on cancel")
	}
}

func TestInitWizardMoveCursor(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.moveCursor(1)
	if model.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", model.cursor)
	}
	model.moveCursor(-5)
	if model.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", model.cursor)
	}
	model.moveCursor(20)
	if model.cursor != len(model.rows)-1 {
		t.Fatalf("expected cursor at last row %d, got %d", len(model.rows)-1, model.cursor)
	}
}

func TestInitWizardClamp(t *testing.T) {
	if clamp(-5, 0, 10) != 0 {
		t.Fatalf("expected clamp to min")
	}
	if clamp(20, 0, 10) != 10 {
		t.Fatalf("expected clamp to max")
	}
	if clamp(5, 0, 10) != 5 {
		t.Fatalf("expected clamp to keep value")
	}
}

func TestInitWizardUpdateTransitions(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateEdit {
		t.Fatalf("expected edit state, got %d", model.state)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model.Update(tea.KeyMsg{Type: tea.KeyRight})
	if model.cfg.Requirements.File.Warn != 85 {
		t.Fatalf("expected file warn 85, got %.0f", model.cfg.Requirements.File.Warn)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateConfirm {
		t.Fatalf("expected confirm state, got %d", model.state)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.state != stateEdit {
		t.Fatalf("expected edit state on esc, got %d", model.state)
	}
}

func TestInitWizardViewConfirmShowsPatterns(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.state = stateConfirm
	view := model.View()
	if !strings.Contains(view, "Report patterns") || !strings.Contains(view, "coverage/lcov.info") {
		t.Fatalf("expected patterns in view: %s", view)
	}
	if !strings.Contains(view, "report: 70% / 90%") {
		t.Fatalf("expected thresholds in view: %s", view)
	}
}

func minimalConfig() application.Config {
	return application.Config{
		Title:       "Backend",
		Files:       []string{"coverage/lcov.info"},
		Concurrency: 4,
		Requirements: domain.CoverageRequirements{
			File:   domain.CoverageRequirement{Error: 60, Warn: 80},
			Report: domain.CoverageRequirement{Error: 70, Warn: 90},
			Global: domain.CoverageRequirement{Error: 70, Warn: 85},
		},
	}
}
