// Package replui implements the interactive REPL, built on Bubble Tea
// the way dr8co-kong/repl builds its Monkey REPL: a styled textinput
// plus a scrolling transcript of past inputs and results.
//
// The language has no statement for discarding a mid-program value and
// no I/O primitives, so re-evaluating the whole accumulated source on
// every submission (rather than threading incremental compiler state
// across inputs) is observably identical to a persistent environment -
// there is nothing to compile incrementally, since there is no
// CompileIncremental pass and no side effect that would make
// replaying history twice wrong.
package replui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/parser"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

const (
	Prompt     = "smog> "
	ContPrompt = "   .. "
)

// Options configures the REPL's look and behavior.
type Options struct {
	NoColor bool
	Debug   bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F5FD7")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))
)

type historyEntry struct {
	input    string
	output   string
	isError  bool
	duration time.Duration
}

type evalResultMsg struct {
	output   string
	isError  bool
	duration time.Duration
}

type model struct {
	textInput textinput.Model
	spinner   spinner.Model
	history   []historyEntry

	sessionID string
	source    strings.Builder

	evaluating   bool
	currentInput string
	options      Options
}

// Start runs the REPL until the user exits. Each process gets its own
// session id, used only to label the session in --verbose logging.
func Start(options Options) error {
	p := tea.NewProgram(initialModel(options))
	_, err := p.Run()
	return err
}

func initialModel(options Options) model {
	ti := textinput.New()
	ti.Placeholder = "expression or statement"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = applyStyle(options, promptStyle, Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F5FD7"))

	return model{
		textInput: ti,
		spinner:   s,
		sessionID: uuid.NewString(),
		options:   options,
	}
}

func applyStyle(o Options, style lipgloss.Style, text string) string {
	if o.NoColor {
		return text
	}
	return style.Render(text)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// evalCmd compiles and runs the accumulated source (everything entered
// so far, plus this new line) against a fresh VM, and reports the
// result or error of the final statement. With options.Debug set, the
// compile and run stages emit trace events tagged with sessionID.
func evalCmd(accumulated, sessionID string, options Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		var log zerolog.Logger
		if options.Debug {
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				With().Timestamp().Str("session", sessionID).Logger()
		}

		p := parser.New(accumulated)
		program, err := p.Parse()
		if err != nil {
			return evalResultMsg{output: fmt.Sprintf("parse error: %v", err), isError: true, duration: time.Since(start)}
		}

		comp := compiler.New()
		if options.Debug {
			comp.AttachLogger(log)
		}
		co, err := comp.Compile(program)
		if err != nil {
			return evalResultMsg{output: fmt.Sprintf("compile error: %v", err), isError: true, duration: time.Since(start)}
		}

		machine := vm.New()
		if options.Debug {
			machine.AttachLogger(log)
		}
		result, err := machine.Run(co)
		if err != nil {
			return evalResultMsg{output: err.Error(), isError: true, duration: time.Since(start)}
		}

		var out string
		if result == nil {
			out = value.NullValue.Inspect()
		} else {
			out = result.Inspect()
		}
		return evalResultMsg{output: out, duration: time.Since(start)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{
			input:    m.currentInput,
			output:   msg.output,
			isError:  msg.isError,
			duration: msg.duration,
		})
		// The accumulated source is rebuilt from every line that
		// evaluated cleanly. A failing line does not become part of it -
		// the next submission retries from the last good state instead
		// of re-raising the same error forever.
		m.source.Reset()
		for _, h := range m.history {
			if !h.isError {
				m.source.WriteString(h.input)
				m.source.WriteString("\n")
			}
		}
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if strings.TrimSpace(input) == "" {
				return m, nil
			}
			m.evaluating = true
			m.currentInput = input
			m.textInput.SetValue("")

			accumulated := m.source.String() + input + "\n"
			return m, evalCmd(accumulated, m.sessionID, m.options)
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(applyStyle(m.options, titleStyle, " smog REPL "))
	b.WriteString("\n\n")

	for _, h := range m.history {
		b.WriteString(applyStyle(m.options, promptStyle, Prompt))
		b.WriteString(h.input)
		b.WriteString("\n")
		if h.isError {
			b.WriteString(applyStyle(m.options, errorStyle, h.output))
		} else {
			b.WriteString(applyStyle(m.options, resultStyle, h.output))
		}
		if h.duration > 10*time.Millisecond {
			b.WriteString(applyStyle(m.options, historyStyle, fmt.Sprintf(" (%.2fs)", h.duration.Seconds())))
		}
		b.WriteString("\n\n")
	}

	if m.evaluating {
		b.WriteString(applyStyle(m.options, promptStyle, Prompt))
		b.WriteString(m.currentInput)
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" evaluating...\n\n")
	} else {
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	}

	b.WriteString(applyStyle(m.options, historyStyle, "\nEsc or Ctrl+C/D to exit"))
	return b.String()
}
