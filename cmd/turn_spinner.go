package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/finchat/internal/application"
)

type turnDoneMsg struct {
	response application.ChatResponse
	err      error
}

type turnSpinnerModel struct {
	spinner  spinner.Model
	label    string
	run      tea.Cmd
	response application.ChatResponse
	err      error
	done     bool
}

func newTurnSpinnerModel(label string, run tea.Cmd) turnSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return turnSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m turnSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m turnSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case turnDoneMsg:
		m.done = true
		m.response = msg.response
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m turnSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runTurnWithSpinner shows a spinner on output while one chat turn runs.
func runTurnWithSpinner(ctx context.Context, output io.Writer, turn func(context.Context) (application.ChatResponse, error)) (application.ChatResponse, error) {
	runCmd := func() tea.Msg {
		response, err := turn(ctx)
		return turnDoneMsg{response: response, err: err}
	}

	p := tea.NewProgram(
		newTurnSpinnerModel("Réflexion...", runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.ChatResponse{}, err
	}

	result, ok := finalModel.(turnSpinnerModel)
	if !ok {
		return application.ChatResponse{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.response, result.err
}
