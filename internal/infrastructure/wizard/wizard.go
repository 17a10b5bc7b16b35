// Package wizard provides the interactive threshold editor used by init.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		cfg       application.Config
		rows      []thresholdRow
		cursor    int
		confirmed bool
		aborted   bool
	}

	thresholdRow struct {
		label string
		value *float64
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// suggested is offered when the configuration has no thresholds yet.
var suggested = domain.CoverageRequirements{
	File:   domain.CoverageRequirement{Error: 50, Warn: 75},
	Report: domain.CoverageRequirement{Error: 60, Warn: 80},
	Global: domain.CoverageRequirement{Error: 60, Warn: 80},
}

func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	m := &initWizardModel{state: stateIntro, cfg: cfg}
	m.cfg.Files = append([]string(nil), cfg.Files...)
	if m.cfg.Requirements == (domain.CoverageRequirements{}) {
		m.cfg.Requirements = suggested
	}
	reqs := &m.cfg.Requirements
	m.rows = []thresholdRow{
		{"File error", &reqs.File.Error},
		{"File warn", &reqs.File.Warn},
		{"Report error", &reqs.Report.Error},
		{"Report warn", &reqs.Report.Warn},
		{"Global error", &reqs.Global.Error},
		{"Global warn", &reqs.Global.Warn},
	}
	return m
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-5)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(5)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if last := len(m.rows) - 1; m.cursor > last {
		m.cursor = last
	}
}

func (m *initWizardModel) adjustSelection(delta float64) {
	row := m.rows[m.cursor]
	*row.value = clamp(*row.value+delta, 0, 100)
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovreport init wizard\n\n")
	fmt.Fprintf(&b, "Found %d report pattern(s). The wizard helps you review coverage thresholds.\n\n", len(m.cfg.Files))
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel. A threshold of 0%% is disabled.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust thresholds\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values.\n\n")
	for idx, row := range m.rows {
		prefix := "  "
		if m.cursor == idx {
			prefix = "> "
		}
		fmt.Fprintf(&b, "%s%-13s %.0f%%\n", prefix, row.label+":", *row.value)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Thresholds (error / warn):\n")
	reqs := m.cfg.Requirements
	fmt.Fprintf(&b, "  file:   %.0f%% / %.0f%%\n", reqs.File.Error, reqs.File.Warn)
	fmt.Fprintf(&b, "  report: %.0f%% / %.0f%%\n", reqs.Report.Error, reqs.Report.Warn)
	fmt.Fprintf(&b, "  global: %.0f%% / %.0f%%\n", reqs.Global.Error, reqs.Global.Warn)
	if len(m.cfg.Files) > 0 {
		fmt.Fprintf(&b, "\nReport patterns:\n")
		for _, pattern := range m.cfg.Files {
			fmt.Fprintf(&b, "  - %s\n", pattern)
		}
	} else {
		fmt.Fprintf(&b, "\nNo report patterns configured.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.cfg
	cfg.Files = append([]string(nil), m.cfg.Files...)
	return cfg
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
