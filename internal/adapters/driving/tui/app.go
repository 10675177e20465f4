// Package tui provides an interactive terminal interface for asking
// questions against the index. It implements a driving adapter
// following hexagonal architecture principles.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
)

// App is the TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	query driving.QueryService

	ctx     context.Context
	styles  *Styles
	input   textinput.Model
	output  viewport.Model
	spin    spinner.Model
	answer  *domain.Answer
	err     error
	loading bool
	width   int
	height  int
	ready   bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	answer domain.Answer
}

// answerErrMsg carries a pipeline failure back into the update loop.
type answerErrMsg struct {
	err error
}

// NewApp creates a new TUI application.
func NewApp(query driving.QueryService) (*App, error) {
	if query == nil {
		return nil, fmt.Errorf("creating app: query service is required")
	}

	input := textinput.New()
	input.Placeholder = "Ask a question about your documents..."
	input.Focus()
	input.CharLimit = 512

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &App{
		query:  query,
		ctx:    context.Background(),
		styles: DefaultStyles(),
		input:  input,
		spin:   spin,
	}, nil
}

// Init returns the initial command.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			q := strings.TrimSpace(a.input.Value())
			if q == "" || a.loading {
				return a, nil
			}
			a.loading = true
			a.answer = nil
			a.err = nil
			return a, tea.Batch(a.spin.Tick, a.ask(q))
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if !a.ready {
			a.output = viewport.New(msg.Width-4, msg.Height-8)
			a.ready = true
		} else {
			a.output.Width = msg.Width - 4
			a.output.Height = msg.Height - 8
		}
		a.refreshOutput()
		return a, nil

	case answerMsg:
		a.loading = false
		a.answer = &msg.answer
		a.refreshOutput()
		return a, nil

	case answerErrMsg:
		a.loading = false
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.output, cmd = a.output.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// View renders the current state.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Quarry"))
	b.WriteString("\n")
	b.WriteString(a.styles.Prompt.Render("? "))
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	switch {
	case a.loading:
		b.WriteString(a.styles.Status.Render(a.spin.View() + " thinking..."))
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
	case a.answer != nil && a.ready:
		b.WriteString(a.output.View())
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("enter: ask · esc: quit"))
	return b.String()
}

// ask runs the query pipeline off the update loop.
func (a *App) ask(q string) tea.Cmd {
	return func() tea.Msg {
		answer, err := a.query.Answer(a.ctx, q)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

// refreshOutput re-renders the answer into the viewport.
func (a *App) refreshOutput() {
	if !a.ready || a.answer == nil {
		return
	}

	var b strings.Builder
	b.WriteString(a.styles.Answer.Width(a.output.Width - 2).Render(a.answer.Text))
	if len(a.answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(a.styles.Source.Render("Sources:"))
		for _, src := range a.answer.Sources {
			b.WriteString("\n")
			b.WriteString(a.styles.Source.Render("  · " + src.ChunkID))
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Status.Render(fmt.Sprintf("answered in %dms", a.answer.ElapsedMillis)))
	a.output.SetContent(b.String())
}

// Run starts the TUI and blocks until it exits.
func Run(query driving.QueryService) error {
	app, err := NewApp(query)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
