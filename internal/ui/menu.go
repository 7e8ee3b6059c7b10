package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/solana-devkit/internal/ui/style"
)

// Prompt текстовый вопрос перед выполнением действия.
type Prompt struct {
	Label       string
	Placeholder string
	Secret      bool
	Validate    func(string) error
}

// RunFunc выполняет действие с ответами на промпты в порядке их объявления.
type RunFunc func(ctx context.Context, inputs []string) (string, error)

// Item пункт меню: действие, подменю (Children) или выход.
type Item struct {
	Label       string
	Description string
	Prompts     []Prompt
	Run         RunFunc
	Children    []Item
	Exit        bool
}

type mode int

const (
	modeMenu mode = iota
	modePrompt
	modeRunning
)

// actionDoneMsg результат выполнения действия.
type actionDoneMsg struct {
	output string
	err    error
}

// Menu интерактивное меню: выбор пункта, ввод ответов, выполнение, возврат в главное меню.
type Menu struct {
	ctx    context.Context
	title  string
	keyMap KeyMap
	styles style.Styles

	root     []Item
	stack    [][]Item // открытые подменю
	selected int
	mode     mode

	current *Item
	inputs  []string
	input   textinput.Model
	err     string

	spinner spinner.Model
	help    help.Model

	output    string
	outputErr bool
	quitting  bool
}

// NewMenu создает меню с корневыми пунктами.
func NewMenu(ctx context.Context, title string, items []Item) *Menu {
	palette := style.DefaultPalette()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Width = 64
	ti.CharLimit = 512

	return &Menu{
		ctx:     ctx,
		title:   title,
		keyMap:  DefaultKeyMap(),
		styles:  style.DefaultStyles(palette),
		root:    items,
		stack:   [][]Item{items},
		input:   ti,
		spinner: sp,
		help:    help.New(),
	}
}

func (m *Menu) Init() tea.Cmd {
	return nil
}

func (m *Menu) items() []Item {
	return m.stack[len(m.stack)-1]
}

func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(msg)
		case modePrompt:
			return m.updatePrompt(msg)
		}

	case actionDoneMsg:
		m.mode = modeMenu
		m.stack = [][]Item{m.root}
		m.selected = 0
		if msg.err != nil {
			m.output = "Error: " + msg.err.Error()
			m.outputErr = true
		} else {
			m.output = msg.output
			m.outputErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode != modeRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Menu) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.items()
	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.selected > 0 {
			m.selected--
		} else {
			m.selected = len(items) - 1
		}

	case key.Matches(msg, m.keyMap.Down):
		if m.selected < len(items)-1 {
			m.selected++
		} else {
			m.selected = 0
		}

	case key.Matches(msg, m.keyMap.Back):
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
			m.selected = 0
		}

	case key.Matches(msg, m.keyMap.Enter):
		if len(items) == 0 {
			return m, nil
		}
		item := items[m.selected]
		switch {
		case item.Exit:
			m.quitting = true
			return m, tea.Quit
		case len(item.Children) > 0:
			m.stack = append(m.stack, item.Children)
			m.selected = 0
		default:
			return m, m.start(&item)
		}
	}
	return m, nil
}

// start открывает первый промпт или сразу запускает действие без вопросов.
func (m *Menu) start(item *Item) tea.Cmd {
	m.current = item
	m.inputs = m.inputs[:0]
	m.output = ""
	m.err = ""
	if len(item.Prompts) == 0 {
		return m.run()
	}
	m.mode = modePrompt
	m.preparePrompt()
	return textinput.Blink
}

func (m *Menu) preparePrompt() {
	p := m.current.Prompts[len(m.inputs)]
	m.input.Reset()
	m.input.Placeholder = p.Placeholder
	if p.Secret {
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	m.input.Focus()
}

func (m *Menu) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Back):
		m.mode = modeMenu
		m.current = nil
		m.err = ""
		return m, nil

	case key.Matches(msg, m.keyMap.Enter):
		value := strings.TrimSpace(m.input.Value())
		p := m.current.Prompts[len(m.inputs)]
		if p.Validate != nil {
			if err := p.Validate(value); err != nil {
				m.err = err.Error()
				return m, nil
			}
		}
		m.err = ""
		m.inputs = append(m.inputs, value)
		if len(m.inputs) < len(m.current.Prompts) {
			m.preparePrompt()
			return m, nil
		}
		m.input.Blur()
		return m, m.run()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Menu) run() tea.Cmd {
	m.mode = modeRunning
	run := m.current.Run
	ctx := m.ctx
	inputs := append([]string(nil), m.inputs...)

	exec := func() tea.Msg {
		if run == nil {
			return actionDoneMsg{}
		}
		out, err := run(ctx, inputs)
		return actionDoneMsg{output: out, err: err}
	}
	return tea.Batch(m.spinner.Tick, exec)
}

func (m *Menu) View() string {
	if m.quitting {
		return "Exiting the program. Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")

	switch m.mode {
	case modeMenu:
		b.WriteString(m.renderMenu())
		if m.output != "" {
			b.WriteString("\n\n")
			if m.outputErr {
				b.WriteString(m.styles.Error.Render(m.output))
			} else {
				b.WriteString(m.styles.Output.Render(m.output))
			}
		}
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keyMap.ShortHelp()))

	case modePrompt:
		p := m.current.Prompts[len(m.inputs)]
		b.WriteString(m.styles.Prompt.Render(p.Label))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		if m.err != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Error.Render(m.err))
		}
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keyMap.PromptHelp()))

	case modeRunning:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.current.Label)
		b.WriteString("...")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Menu) renderMenu() string {
	var lines []string
	for i, item := range m.items() {
		if i == m.selected {
			lines = append(lines, m.styles.Selected.Render("> "+item.Label))
			if item.Description != "" {
				lines = append(lines, m.styles.Description.Render(item.Description))
			}
			continue
		}
		lines = append(lines, m.styles.Item.Render("  "+item.Label))
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

// Output последний результат действия; используется после выхода из программы.
func (m *Menu) Output() string {
	return m.output
}

// Run запускает меню в терминале до выбора Exit.
func Run(ctx context.Context, title string, items []Item, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(NewMenu(ctx, title, items), opts...).Run()
	return err
}
