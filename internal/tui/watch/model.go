package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrkirby153/todoist-bot/internal/events"
)

const (
	maxEventLog  = 50
	tableRows    = 12
	healthPeriod = 5 * time.Second
)

// Model is the BubbleTea model of the watch TUI.
type Model struct {
	baseURL string
	apiKey  string

	width  int
	height int

	health  HealthState
	tracker *Tracker
	log     []events.Event
	lastID  int64
	pulse   Pulse
	table   table.Model
	theme   Theme

	hubEvents chan events.Event
	lastError string
	now       func() time.Time
}

// New creates a watch model for the bot listening at baseURL.
func New(baseURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 8},
			{Title: "Interaction", Width: 10},
			{Title: "Command", Width: 24},
			{Title: "Status", Width: 12},
			{Title: "Took", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(tableRows),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		tracker:   NewTracker(),
		table:     t,
		theme:     NewDefaultTheme(),
		hubEvents: make(chan events.Event, 100),
		now:       time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.baseURL, m.apiKey, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.baseURL) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(max(20, m.width-8))

	case tickMsg:
		m.pulse.Fade(time.Time(msg))
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		m.applyEvent(events.Event(msg))
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Connected = true
		m.health.Healthy = msg.OK
		m.health.Latency = msg.Latency
		m.health.LastCheck = m.now()
		m.lastError = ""
		return m, tea.Tick(healthPeriod, func(time.Time) tea.Msg { return fetchHealth(m.baseURL) })

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, subscribeToEvents(m.baseURL, m.apiKey, m.lastID, m.hubEvents)

	case errMsg:
		m.health.Connected = false
		m.lastError = msg.Error()
		return m, tea.Tick(healthPeriod, func(time.Time) tea.Msg { return fetchHealth(m.baseURL) })
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) applyEvent(e events.Event) {
	if e.ID > m.lastID {
		m.lastID = e.ID
	}
	if e.At.IsZero() {
		e.At = m.now()
	}

	m.log = append([]events.Event{e}, m.log...)
	if len(m.log) > maxEventLog {
		m.log = m.log[:maxEventLog]
	}

	if m.tracker.Apply(e) {
		m.refreshTable()
	}
	m.pulse.Hit(m.now())
	m.health.Connected = true
	m.lastError = ""
}

func (m *Model) refreshTable() {
	recent := m.tracker.Recent(tableRows * 4)
	rows := make([]table.Row, 0, len(recent))
	for _, st := range recent {
		took := fmt.Sprintf("%dms", st.DurationMS)
		if st.DurationMS >= 1000 {
			took = fmt.Sprintf("%.1fs", float64(st.DurationMS)/1000)
		}
		rows = append(rows, table.Row{
			st.Updated.Local().Format("15:04:05"),
			shortID(st.ID),
			st.Label,
			st.Status,
			took,
		})
	}
	m.table.SetRows(rows)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to " + m.baseURL + "..."
	}

	header := renderHeader(m.baseURL, m.health, m.tracker.Totals(), m.tracker.Pending(), m.pulse, m.theme, m.width, m.now())
	interactions := m.theme.Border.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("INTERACTIONS"),
		m.table.View(),
	))
	stream := renderEventStream(m.log, m.theme, m.width)

	parts := []string{header, interactions, stream}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(" ⚠ "+m.lastError))
	}
	parts = append(parts, m.theme.Dim.Render(" [q] Quit • [↑/↓] Scroll"))

	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
