// Package admin is the terminal moderation console for the relay. It lists
// pending and approved questions and sends approve, decline and project
// commands.
package admin

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iburimskiy/gridscan/internal/relay"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	panel  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	active = panel.BorderForeground(lipgloss.Color("86"))
)

type pane int

const (
	panePending pane = iota
	paneApproved
)

type sender interface {
	Send(event string, id int) error
}

type envelopeMsg relay.Envelope

type disconnectedMsg struct{}

type model struct {
	client sender
	events <-chan relay.Envelope

	lists  relay.Lists
	live   *relay.Question
	focus  pane
	cursor [2]int
	status string

	width  int
	height int
}

func newModel(client sender, events <-chan relay.Envelope) model {
	return model{
		client: client,
		events: events,
		lists:  relay.Lists{Pending: []relay.Question{}, Approved: []relay.Question{}},
		status: "waiting for data",
		width:  80,
		height: 24,
	}
}

// Run opens the console on an established client and blocks until the user
// quits.
func Run(c *Client) error {
	_, err := tea.NewProgram(newModel(c, c.Events()), tea.WithAltScreen()).Run()
	return err
}

func waitFor(events <-chan relay.Envelope) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-events
		if !ok {
			return disconnectedMsg{}
		}
		return envelopeMsg(env)
	}
}

func (m model) Init() tea.Cmd { return waitFor(m.events) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case envelopeMsg:
		m.apply(relay.Envelope(msg))
		return m, waitFor(m.events)

	case disconnectedMsg:
		m.status = red.Render("disconnected")
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) apply(env relay.Envelope) {
	switch env.Event {
	case relay.EventRefreshData:
		var l relay.Lists
		if err := json.Unmarshal(env.Data, &l); err != nil {
			m.status = red.Render("bad refresh: " + err.Error())
			return
		}
		m.lists = l
		m.clampCursors()
		m.status = fmt.Sprintf("%d pending, %d approved", len(l.Pending), len(l.Approved))

	case relay.EventProjectLive:
		var q relay.Question
		if err := json.Unmarshal(env.Data, &q); err != nil {
			m.status = red.Render("bad project_live: " + err.Error())
			return
		}
		m.live = &q
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right", "h", "l":
		m.focus = 1 - m.focus
	case "up", "k":
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case "down", "j":
		if m.cursor[m.focus] < len(m.current())-1 {
			m.cursor[m.focus]++
		}
	case "a":
		m.command(relay.EventApprove)
	case "d":
		m.command(relay.EventDecline)
	case "p", "enter":
		m.command(relay.EventProject)
	}
	return m, nil
}

// command sends event for the selected question. The lists change only when
// the relay broadcasts them back.
func (m *model) command(event string) {
	q, ok := m.selected()
	if !ok {
		return
	}
	if err := m.client.Send(event, q.ID); err != nil {
		m.status = red.Render("send failed: " + err.Error())
		return
	}
	m.status = fmt.Sprintf("%s #%d sent", strings.TrimPrefix(event, "admin_"), q.ID)
}

func (m model) current() []relay.Question {
	if m.focus == paneApproved {
		return m.lists.Approved
	}
	return m.lists.Pending
}

func (m model) selected() (relay.Question, bool) {
	qs := m.current()
	i := m.cursor[m.focus]
	if i < 0 || i >= len(qs) {
		return relay.Question{}, false
	}
	return qs[i], true
}

func (m *model) clampCursors() {
	for p, qs := range [][]relay.Question{m.lists.Pending, m.lists.Approved} {
		m.cursor[p] = max(0, min(m.cursor[p], len(qs)-1))
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(cyan.Bold(true).Render("gridscan relay"))
	b.WriteString("  ")
	b.WriteString(dim.Render(m.status))
	b.WriteString("\n\n")

	colWidth := max(24, (m.width-6)/2)
	left := m.renderList("Pending", m.lists.Pending, panePending, yellow, colWidth)
	right := m.renderList("Approved", m.lists.Approved, paneApproved, green, colWidth)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if m.live != nil {
		b.WriteString(magenta.Render(fmt.Sprintf("live: %s (%s)", m.live.Question, m.live.Name)))
		b.WriteString("\n")
	}
	b.WriteString(dim.Render("tab switch · j/k move · a approve · d decline · p project · q quit"))
	return b.String()
}

func (m model) renderList(title string, qs []relay.Question, p pane, accent lipgloss.Style, width int) string {
	var b strings.Builder
	b.WriteString(accent.Bold(true).Render(fmt.Sprintf("%s (%d)", title, len(qs))))
	for i, q := range qs {
		line := fmt.Sprintf("#%d %s: %s", q.ID, q.Name, q.Question)
		if len([]rune(line)) > width-2 {
			line = string([]rune(line)[:width-3]) + "…"
		}
		b.WriteString("\n")
		if p == m.focus && i == m.cursor[p] {
			b.WriteString(accent.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
	}

	style := panel
	if p == m.focus {
		style = active
	}
	return style.Width(width).Render(b.String())
}
