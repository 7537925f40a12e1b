package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/reconcile"
)

type pickerKeys struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func (k pickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.All, k.Confirm, k.Cancel}
}

func (k pickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

func defaultPickerKeys() pickerKeys {
	return pickerKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/none")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:  key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

type pickItem struct {
	title  string
	detail string
}

// pickerModel is a checkbox list.
type pickerModel struct {
	title    string
	items    []pickItem
	checked  []bool
	cursor   int
	keys     pickerKeys
	help     help.Model
	canceled bool
}

func newPicker(title string, items []pickItem, preselect bool) pickerModel {
	checked := make([]bool, len(items))
	for i := range checked {
		checked[i] = preselect
	}
	return pickerModel{
		title:   title,
		items:   items,
		checked: checked,
		keys:    defaultPickerKeys(),
		help:    help.New(),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.canceled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Confirm):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.checked) > 0 {
				m.checked[m.cursor] = !m.checked[m.cursor]
			}
		case key.Matches(msg, m.keys.All):
			target := !m.allChecked()
			for i := range m.checked {
				m.checked[i] = target
			}
		}
	}
	return m, nil
}

func (m pickerModel) allChecked() bool {
	for _, c := range m.checked {
		if !c {
			return false
		}
	}
	return true
}

func (m pickerModel) selected() []int {
	out := make([]int, 0, len(m.checked))
	for i, c := range m.checked {
		if c {
			out = append(out, i)
		}
	}
	return out
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(Bold.Render(m.title))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = Accent.Render("› ")
		}
		box := "[ ]"
		if m.checked[i] {
			box = AccentBold.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, item.title)
		if item.detail != "" {
			line += "  " + Muted.Render(item.detail)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// MultiSelect asks the operator which items to apply using a checkbox
// list. As a reconcile.Selector every candidate starts checked; commands
// offered by SelectCommands start unchecked.
type MultiSelect struct {
	Title string
	In    io.Reader
	Out   io.Writer
}

var _ reconcile.Selector = MultiSelect{}

// Select runs the picker over reconciliation candidates. Backing out
// returns reconcile.ErrCanceled.
func (s MultiSelect) Select(ctx context.Context, candidates []reconcile.Candidate) ([]int, error) {
	items := make([]pickItem, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem(c)
	}
	return s.run(ctx, s.titleOr("Select commands to sync"), items, true)
}

// SelectCommands runs the picker over fetched commands. Backing out
// returns reconcile.ErrCanceled.
func (s MultiSelect) SelectCommands(ctx context.Context, cmds []*command.Command) ([]int, error) {
	items := make([]pickItem, len(cmds))
	for i, c := range cmds {
		items[i] = pickItem{title: c.FullName(), detail: c.Description}
	}
	return s.run(ctx, s.titleOr("Select commands to install"), items, false)
}

func (s MultiSelect) titleOr(fallback string) string {
	if s.Title != "" {
		return s.Title
	}
	return fallback
}

func (s MultiSelect) run(ctx context.Context, title string, items []pickItem, preselect bool) ([]int, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}

	final, err := tea.NewProgram(newPicker(title, items, preselect), opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("run picker: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok || m.canceled {
		return nil, reconcile.ErrCanceled
	}
	return m.selected(), nil
}

func candidateItem(c reconcile.Candidate) pickItem {
	switch c.Action {
	case reconcile.ActionUpdate:
		return pickItem{
			title:  fmt.Sprintf("[update] %s", c.Key()),
			detail: fmt.Sprintf("%s → %s  (%s)", c.OldVersion, c.NewVersion, c.Source),
		}
	default:
		return pickItem{
			title:  fmt.Sprintf("[new] %s", c.Key()),
			detail: fmt.Sprintf("v%s  (%s)", c.NewVersion, c.Source),
		}
	}
}
