// Package tui renders a board in the terminal and turns key presses into
// board commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kanban/board"
	"kanban/domain"
)

// Dispatcher applies commands to a board. *board.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (board.Outcome, error)
	View(ctx context.Context) (board.Outcome, error)
}

type mode int

const (
	modeNormal mode = iota
	modeForm
	modeMove
)

const titleRequired = "Title required"

type outcomeMsg struct {
	kind string
	out  board.Outcome
	err  error
}

// Model is the bubbletea model of the board screen.
type Model struct {
	ctx  context.Context
	disp Dispatcher

	out    board.Outcome
	loaded bool

	mode   mode
	col    int
	cursor [len(domain.Columns)]int

	title     textinput.Model
	desc      textinput.Model
	formFocus int
	formErr   string

	message string
	warning string
	width   int
	height  int
}

func New(ctx context.Context, disp Dispatcher) Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = columnWidth*2 - 6

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 1000
	desc.Width = columnWidth*2 - 6

	return Model{ctx: ctx, disp: disp, title: title, desc: desc}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, disp Dispatcher) error {
	p := tea.NewProgram(New(ctx, disp), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.view()
}

func (m Model) view() tea.Cmd {
	return func() tea.Msg {
		out, err := m.disp.View(m.ctx)
		return outcomeMsg{out: out, err: err}
	}
}

func (m Model) dispatch(cmd domain.Command) tea.Cmd {
	return func() tea.Msg {
		out, err := m.disp.Dispatch(m.ctx, cmd)
		return outcomeMsg{kind: cmd.Kind(), out: out, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case outcomeMsg:
		return m.applyOutcome(msg), nil
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeMove:
			return m.updateMove(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m Model) applyOutcome(msg outcomeMsg) Model {
	if msg.err != nil {
		m.message = msg.err.Error()
		return m
	}
	m.out = msg.out
	m.loaded = true
	m.warning = msg.out.Warning
	switch msg.kind {
	case domain.KindAddTask, domain.KindMoveTask:
		if msg.out.Changed && msg.out.Task != nil {
			m.selectTask(msg.out.Task.ID)
		}
	}
	m.clampCursors()
	return m
}

// selectTask puts the cursor on the card with the given id.
func (m *Model) selectTask(id string) {
	for i, c := range domain.Columns {
		for j, t := range m.out.Board.Tasks(c) {
			if t.ID == id {
				m.col = i
				m.cursor[i] = j
				return
			}
		}
	}
}

func (m *Model) clampCursors() {
	for i, c := range domain.Columns {
		n := len(m.out.Board.Tasks(c))
		if m.cursor[i] >= n {
			m.cursor[i] = n - 1
		}
		if m.cursor[i] < 0 {
			m.cursor[i] = 0
		}
	}
}

// selected returns the task under the cursor.
func (m Model) selected() (domain.Task, bool) {
	tasks := m.out.Board.Tasks(domain.Columns[m.col])
	i := m.cursor[m.col]
	if i < 0 || i >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[i], true
}

func (m Model) moveSelected(target domain.Column) (tea.Model, tea.Cmd) {
	task, ok := m.selected()
	if !ok {
		return m, nil
	}
	for i, c := range domain.Columns {
		if c == target {
			m.col = i
			m.cursor[i] = len(m.out.Board.Tasks(c))
		}
	}
	return m, m.dispatch(domain.MoveTask{ID: task.ID, Column: target})
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < len(domain.Columns)-1 {
			m.col++
		}
	case "up", "k":
		if m.cursor[m.col] > 0 {
			m.cursor[m.col]--
		}
	case "down", "j":
		if m.cursor[m.col] < len(m.out.Board.Tasks(domain.Columns[m.col]))-1 {
			m.cursor[m.col]++
		}
	case "n":
		m.mode = modeForm
		m.formErr = ""
		m.formFocus = 0
		m.desc.Blur()
		return m, m.title.Focus()
	case "d", "x":
		if task, ok := m.selected(); ok {
			return m, m.dispatch(domain.DeleteTask{ID: task.ID})
		}
	case "m":
		if _, ok := m.selected(); ok {
			m.mode = modeMove
		}
	case "shift+left":
		if m.col > 0 {
			return m.moveSelected(domain.Columns[m.col-1])
		}
	case "shift+right":
		if m.col < len(domain.Columns)-1 {
			return m.moveSelected(domain.Columns[m.col+1])
		}
	case "ctrl+z":
		return m, m.dispatch(domain.Undo{})
	case "ctrl+y":
		return m, m.dispatch(domain.Redo{})
	}
	return m, nil
}

func (m Model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	switch msg.String() {
	case "1", "2", "3":
		i := int(msg.String()[0] - '1')
		return m.moveSelected(domain.Columns[i])
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m = m.closeForm()
		return m, nil
	case "tab", "shift+tab", "down", "up":
		m.formFocus = 1 - m.formFocus
		if m.formFocus == 0 {
			m.desc.Blur()
			return m, m.title.Focus()
		}
		m.title.Blur()
		return m, m.desc.Focus()
	case "enter":
		title := strings.TrimSpace(m.title.Value())
		if title == "" {
			m.formErr = titleRequired
			return m, nil
		}
		cmd := domain.AddTask{Title: title, Desc: strings.TrimSpace(m.desc.Value())}
		m = m.closeForm()
		return m, m.dispatch(cmd)
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

// closeForm discards the form input.
func (m Model) closeForm() Model {
	m.mode = modeNormal
	m.formErr = ""
	m.title.Reset()
	m.desc.Reset()
	m.title.Blur()
	m.desc.Blur()
	return m
}

func (m Model) View() string {
	if !m.loaded {
		if m.message != "" {
			return errorStyle.Render(m.message) + "\n"
		}
		return "Loading board...\n"
	}

	cols := make([]string, 0, len(domain.Columns))
	for i, c := range domain.Columns {
		cols = append(cols, m.renderColumn(i, c))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Kanban"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	case modeMove:
		b.WriteString("Move to: 1 To Do  2 In Progress  3 Done  (esc cancel)\n")
	}
	if m.warning != "" {
		b.WriteString(warnStyle.Render(m.warning))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) renderColumn(i int, c domain.Column) string {
	tasks := m.out.Board.Tasks(c)
	lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", c.Title(), len(tasks)))}
	for j, t := range tasks {
		card := t.Title
		if t.Desc != "" {
			card += "\n" + descStyle.Render(t.Desc)
		}
		style := cardStyle
		if i == m.col && j == m.cursor[i] {
			style = selectedCardStyle
		}
		lines = append(lines, style.Render(card))
	}
	style := columnStyle
	if i == m.col {
		style = activeColumnStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderForm() string {
	lines := []string{
		headerStyle.Render("New task"),
		m.title.View(),
		m.desc.View(),
	}
	if m.formErr != "" {
		lines = append(lines, errorStyle.Render(m.formErr))
	}
	lines = append(lines, helpStyle.Render("enter save • tab switch field • esc cancel"))
	return formStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) help() string {
	undo := "ctrl+z undo"
	if !m.out.CanUndo {
		undo = "(nothing to undo)"
	}
	redo := "ctrl+y redo"
	if !m.out.CanRedo {
		redo = "(nothing to redo)"
	}
	return strings.Join([]string{"n new", "d delete", "m move", "shift+←/→ shift", undo, redo, "q quit"}, " • ")
}
