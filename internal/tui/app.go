// Package tui is the interactive terminal chat for a single session.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/config"
	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/profiles"
	"github.com/simonyos/geochat/internal/render"
	"github.com/simonyos/geochat/internal/session"
	"github.com/simonyos/geochat/internal/tui/components"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

const version = "0.1.0"

// Layout heights
const (
	headerHeight = 2
	statusHeight = 2
	editorHeight = 5
)

// Options configures the chat UI
type Options struct {
	Model    string             // shown in the status bar
	Profiles *profiles.Registry // for /profiles; may be nil
	Theme    string
}

// Streaming message types
type streamEventChanMsg struct {
	events <-chan agent.StreamEvent
}

type streamThinkingMsg struct{}

type streamToolStartMsg struct {
	name string
	args string
}

type streamToolResultMsg struct {
	event agent.StreamEvent
}

type streamDoneMsg struct {
	event agent.StreamEvent
}

// Model is the main TUI model
type Model struct {
	session  *session.Session
	profiles *profiles.Registry

	// Components
	header      *components.Header
	messages    *components.Messages
	editor      *components.Editor
	status      *components.Status
	help        *components.HelpDialog
	suggestions *components.Suggestions
	results     *components.ResultsPanel
	spinner     spinner.Model

	// Layout
	layout *layout.SplitPane

	// State
	width     int
	height    int
	ready     bool
	thinking  bool
	showHelp  bool
	eventChan <-chan agent.StreamEvent
	cancel    context.CancelFunc
}

// New creates a new TUI model bound to a session
func New(sess *session.Session, opts Options) Model {
	theme.Use(opts.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	status := components.NewStatus(80)
	status.SetModel(opts.Model)
	status.SetTokens(sess.Info().Usage.TotalTokens)

	return Model{
		session:     sess,
		profiles:    opts.Profiles,
		header:      components.NewHeader(80, version, sess.Profile, sess.ID),
		status:      status,
		help:        components.NewHelpDialog(),
		suggestions: components.NewSuggestions(),
		results:     components.NewResultsPanel(30, 20),
		spinner:     sp,
	}
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case "ctrl+?", "ctrl+h":
			m.showHelp = !m.showHelp
			return m, nil

		case "ctrl+l":
			m.messages.Clear()
			return m, nil

		case "ctrl+r":
			m.toggleResults()
			return m, nil

		case "esc":
			if m.suggestions.IsVisible() {
				m.suggestions.Hide()
				return m, nil
			}
			// cancels the running turn; the loop reports it as failed
			if m.thinking && m.cancel != nil {
				m.cancel()
			}
			return m, nil

		case "tab":
			if m.suggestions.IsVisible() {
				selected := m.suggestions.GetSelected()
				if selected != "" {
					m.editor.SetValue(selected)
					m.suggestions.Hide()
				}
				return m, nil
			}

		case "up":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveUp()
				return m, nil
			}

		case "down":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveDown()
				return m, nil
			}

		case "enter":
			if m.suggestions.IsVisible() {
				selected := m.suggestions.GetSelected()
				if selected != "" {
					m.editor.Reset()
					m.suggestions.Hide()
					return m.handleCommand(selected)
				}
			}

			if !m.thinking && m.editor.Value() != "" {
				userMsg := m.editor.Value()
				m.editor.Reset()
				m.suggestions.Hide()

				if strings.HasPrefix(userMsg, "/") {
					return m.handleCommand(userMsg)
				}

				m.messages.AddMessage(components.Message{
					Role:    "user",
					Content: userMsg,
				})
				m.results.Reset()
				m.thinking = true
				m.status.SetThinking(true)
				m.editor.Blur()

				ctx, cancel := context.WithCancel(context.Background())
				m.cancel = cancel
				return m, tea.Batch(m.spinner.Tick, m.sendMessage(ctx, userMsg))
			}

		case "pgup", "pgdown":
			vp := m.messages.GetViewport()
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - headerHeight - statusHeight - editorHeight

		if !m.ready {
			m.layout = layout.NewSplitPane(msg.Width, bodyHeight)
			m.messages = components.NewMessages(msg.Width, bodyHeight)
			m.messages.SetWelcome("Ask questions about places, distances, map tiles and imagery")
			m.replayHistory()
			m.editor = components.NewEditor(msg.Width, editorHeight)
			// Clear any garbage that may have accumulated before init
			m.editor.Reset()
			m.ready = true
		} else {
			m.layout.SetSize(msg.Width, bodyHeight)
			m.editor.SetSize(msg.Width, editorHeight)
		}
		m.resizeBody()

		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case streamEventChanMsg:
		m.eventChan = msg.events
		cmds = append(cmds, readNextEvent(m.eventChan))

	case streamThinkingMsg:
		m.messages.SetPending("working out the next step...")
		cmds = append(cmds, m.next())

	case streamToolStartMsg:
		m.messages.SetPending("")
		m.messages.AddMessage(components.Message{
			Role:     "tool",
			ToolName: msg.name,
			ToolArgs: msg.args,
			Running:  true,
		})
		cmds = append(cmds, m.next())

	case streamToolResultMsg:
		ev := msg.event
		text := ev.ToolResult
		if ev.Result != nil {
			text = render.Describe(*ev.Result)
		}
		m.messages.FinishTool(ev.ToolName, text, ev.ToolError)
		m.results.Add(components.ResultLine{Tool: ev.ToolName, Text: text, Failed: ev.ToolError})
		cmds = append(cmds, m.next())

	case streamDoneMsg:
		m.finishTurn(msg.event)
	}

	// Update editor if not thinking - only pass key messages
	if !m.thinking && m.editor != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			cmds = append(cmds, cmd)

			m.suggestions.Filter(m.editor.Value())
		}
	}

	if m.messages != nil {
		vp := m.messages.GetViewport()
		var cmd tea.Cmd
		*vp, cmd = vp.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) finishTurn(ev agent.StreamEvent) {
	m.thinking = false
	m.status.SetThinking(false)
	if m.editor != nil {
		m.editor.Focus()
	}
	m.eventChan = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.messages.SetPending("")

	turn := ev.Turn
	switch {
	case ev.Type == "error":
		m.messages.AddMessage(components.Message{
			Role:    "error",
			Content: turn.Answer,
		})
	case turn.Answer != "":
		m.messages.AddMessage(components.Message{
			Role:    "assistant",
			Content: turn.Answer,
		})
	}

	m.results.SetResults(resultLines(m.session.LastResults()), turnStats(turn))
	m.status.SetTokens(m.session.Info().Usage.TotalTokens)
}

func (m Model) next() tea.Cmd {
	if m.eventChan == nil {
		return nil
	}
	return readNextEvent(m.eventChan)
}

func (m *Model) toggleResults() {
	m.layout.Toggle()
	m.resizeBody()
}

func (m *Model) resizeBody() {
	h := m.height - headerHeight - statusHeight - editorHeight
	m.messages.SetSize(m.layout.GetLeftWidth(), h)
	m.results.SetSize(m.layout.GetRightWidth(), h)
}

// replayHistory shows a resumed session's earlier messages
func (m *Model) replayHistory() {
	for _, msg := range m.session.Conversation().Messages() {
		switch msg.Role {
		case llm.RoleUser:
			m.messages.AddMessage(components.Message{Role: "user", Content: msg.Content})
		case llm.RoleAssistant:
			if msg.Content != "" && len(msg.ToolCalls) == 0 {
				m.messages.AddMessage(components.Message{Role: "assistant", Content: msg.Content})
			}
		case llm.RoleTool:
			line := components.Message{Role: "tool", ToolName: msg.Name, Content: msg.Content}
			if msg.Result != nil {
				line.Content = render.Describe(*msg.Result)
				line.Failed = !msg.Result.OK()
			}
			m.messages.AddMessage(line)
		}
	}
	m.results.SetResults(resultLines(m.session.LastResults()), "")
}

func (m *Model) sendMessage(ctx context.Context, content string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return streamEventChanMsg{events: sess.Stream(ctx, content)}
	}
}

// readNextEvent reads the next event from the channel
func readNextEvent(events <-chan agent.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		for {
			event, ok := <-events
			if !ok {
				return streamDoneMsg{event: agent.StreamEvent{Type: "done"}}
			}

			switch event.Type {
			case "thinking":
				return streamThinkingMsg{}
			case "tool_start":
				return streamToolStartMsg{name: event.ToolName, args: event.ToolArgs}
			case "tool_result":
				return streamToolResultMsg{event: event}
			case "done", "error":
				// drain so the session is released
				for range events {
				}
				return streamDoneMsg{event: event}
			}
		}
	}
}

// handleCommand processes slash commands
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help":
		m.showHelp = true

	case "/clear":
		m.messages.Clear()

	case "/reset":
		if err := m.session.Reset(); err != nil {
			m.systemError(fmt.Sprintf("Failed to save session: %v", err))
		}
		m.messages.Clear()
		m.results.Reset()
		m.system("Conversation reset.")

	case "/tools":
		var sb strings.Builder
		sb.WriteString("Available tools:\n")
		for _, def := range m.session.ToolDefinitions() {
			sb.WriteString(fmt.Sprintf("  %-12s %s\n", def.Name, firstSentence(def.Description)))
		}
		m.system(strings.TrimRight(sb.String(), "\n"))

	case "/profiles":
		if m.profiles == nil {
			m.system("Profiles are not available.")
			break
		}
		var sb strings.Builder
		sb.WriteString("Profiles:\n")
		for _, p := range m.profiles.List() {
			marker := " "
			if p.Name == m.session.Profile {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf(" %s %-12s %s\n", marker, p.Name, p.Description))
		}
		sb.WriteString("\nStart a session with another profile using --profile <name>.")
		m.system(sb.String())

	case "/results":
		m.toggleResults()

	case "/map":
		path := fmt.Sprintf("geochat-%s.geojson", m.session.ID[:8])
		if len(parts) > 1 {
			path = parts[1]
		}
		n, err := writeGeoJSON(path, m.session)
		if err != nil {
			m.systemError(err.Error())
			break
		}
		m.system(fmt.Sprintf("Wrote %d features to %s.", n, path))

	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/config":
		m.handleConfig(parts[1:])

	default:
		m.systemError("Unknown command: " + cmd + "\nType /help for available commands.")
	}
	return m, nil
}

func (m *Model) handleConfig(args []string) {
	if len(args) == 0 {
		keys := config.ListKeys()
		var sb strings.Builder
		sb.WriteString("Configuration:\n")
		sb.WriteString(fmt.Sprintf("  Config file: %s\n\n", config.ConfigPath()))

		if len(keys) == 0 {
			sb.WriteString("  No keys configured.\n")
		} else {
			for _, k := range config.Keys() {
				if v, ok := keys[k]; ok {
					sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
				}
			}
		}
		sb.WriteString("\nUsage:\n")
		sb.WriteString("  /config set <key> <value>  - Set a config value\n")
		sb.WriteString("  /config delete <key>       - Delete a config value\n")
		sb.WriteString("\nChanges apply to new sessions.")
		m.system(sb.String())
		return
	}

	switch sub := strings.ToLower(args[0]); sub {
	case "set":
		if len(args) < 3 {
			m.systemError("Usage: /config set <key> <value>")
			return
		}
		if err := config.Set(args[1], strings.Join(args[2:], " ")); err != nil {
			m.systemError(fmt.Sprintf("Failed to set config: %v", err))
			return
		}
		m.system(fmt.Sprintf("Set %s successfully.", args[1]))

	case "delete", "remove", "unset":
		if len(args) < 2 {
			m.systemError("Usage: /config delete <key>")
			return
		}
		if err := config.Delete(args[1]); err != nil {
			m.systemError(fmt.Sprintf("Failed to delete config: %v", err))
			return
		}
		m.system(fmt.Sprintf("Deleted %s.", args[1]))

	default:
		m.systemError("Unknown config subcommand: " + sub + "\nUse: set, delete")
	}
}

func (m *Model) system(text string) {
	m.messages.AddMessage(components.Message{Role: "system", Content: text})
}

func (m *Model) systemError(text string) {
	m.messages.AddMessage(components.Message{Role: "error", Content: text})
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	t := theme.Current

	messagesView := m.messages.View()
	if m.thinking {
		thinkingStyle := lipgloss.NewStyle().Foreground(t.Primary)
		messagesView += "\n" + thinkingStyle.Render(m.spinner.View()+" Thinking... (esc to cancel)")
	}
	body := m.layout.Render(messagesView, m.results.View())

	sections := []string{m.header.View(), body}
	if m.suggestions.IsVisible() {
		m.suggestions.SetWidth(m.width)
		sections = append(sections, m.suggestions.View())
	}
	sections = append(sections, m.editor.View(), m.status.View())

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.showHelp {
		view = components.PlaceOverlay(m.help.View(), m.width, m.height)
	}

	return lipgloss.NewStyle().
		Background(t.Background).
		Width(m.width).
		Height(m.height).
		Render(view)
}

// Run starts the program and blocks until the user quits
func Run(sess *session.Session, opts Options) error {
	p := tea.NewProgram(
		New(sess, opts),
		tea.WithAltScreen(),
		tea.WithoutBracketedPaste(), // keeps paste escape sequences out of the editor
	)
	_, err := p.Run()
	return err
}

func writeGeoJSON(path string, sess *session.Session) (int, error) {
	m, err := render.BuildMap(sess.LastResults())
	if err != nil {
		return 0, err
	}
	fc := m.FeatureCollection()
	data, err := fc.MarshalJSON()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, err
	}
	return len(fc.Features), nil
}
