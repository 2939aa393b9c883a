// Package ui renders the interactive process tree and drives the desired
// forwarded-port set from the groups the user toggles.
package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/soraxas/auto-portforward/internal/appconfig"
	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/provider"
	"github.com/soraxas/auto-portforward/internal/util"
)

type tickMsg time.Time

type row struct {
	isGroup  bool
	groupKey string
	text     string
	selected bool
}

type modelUI struct {
	prov     provider.Provider
	cfg      appconfig.Config
	snap     model.Snapshot
	groupBy  GroupBy
	reverse  bool
	selected map[string]bool
	applied  []int

	rows []row
	sel  int

	filter     textinput.Model
	filterMode bool

	logs    *logBuffer
	logView viewport.Model

	width  int
	height int
	status string
}

func initialModel(prov provider.Provider, cfg appconfig.Config, logs *logBuffer) modelUI {
	ti := textinput.New()
	ti.Placeholder = "process name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	vp := viewport.New(100, 8)

	m := modelUI{
		prov:     prov,
		cfg:      cfg,
		groupBy:  GroupByCwd,
		selected: map[string]bool{},
		filter:   ti,
		logs:     logs,
		logView:  vp,
		status:   "Monitoring " + prov.Name() + ". Press t on a group to forward its ports.",
	}
	m.refresh()
	return m
}

func tickCmd(seconds int) tea.Cmd {
	if seconds <= 0 {
		seconds = util.DefaultRefreshSeconds
	}
	return tea.Tick(time.Duration(seconds)*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m modelUI) Init() tea.Cmd {
	return tickCmd(m.cfg.UI.RefreshSeconds)
}

// refresh pulls the latest snapshot and relays it out. The provider accessor
// returns the cached snapshot immediately, so this never waits on the remote.
func (m *modelUI) refresh() {
	snap, err := m.prov.Processes()
	if err != nil {
		m.status = "snapshot error: " + err.Error()
	} else {
		m.snap = snap
	}
	m.relayout()
}

// relayout rebuilds the visible rows and pushes the desired port set derived
// from the selected groups down to the provider.
func (m *modelUI) relayout() {
	groups := buildGroups(m.snap, m.groupBy, m.reverse, m.filter.Value(), m.selected)

	m.rows = m.rows[:0]
	for _, g := range groups {
		m.rows = append(m.rows, row{isGroup: true, groupKey: g.Key, text: g.Key, selected: g.Selected})
		for _, p := range g.Procs {
			m.rows = append(m.rows, row{groupKey: g.Key, text: processLine(p), selected: g.Selected})
		}
	}
	if m.sel >= len(m.rows) {
		m.sel = len(m.rows) - 1
	}
	if m.sel < 0 {
		m.sel = 0
	}

	want := desiredPorts(groups)
	if !portsMatch(want, m.applied) {
		m.prov.SetToggledPorts(want)
		m.applied = want
	}

	m.logView.SetContent(strings.Join(m.logs.Tail(), "\n"))
	m.logView.GotoBottom()
}

func processLine(p model.ProcessRecord) string {
	line := fmt.Sprintf("  PID: %d - %s - %s", p.PID, util.DefaultString(p.Name, "?"), util.DefaultString(p.Status, "?"))
	if ports := p.Ports(); len(ports) > 0 {
		line += " [Ports: " + util.JoinPorts(ports) + "]"
	}
	return line
}

func portsMatch(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (m modelUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.cfg.UI.RefreshSeconds)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = m.effectiveWidth() - 4
		return m, nil
	case tea.KeyMsg:
		if m.filterMode {
			switch msg.String() {
			case "enter", "esc":
				m.filterMode = false
				m.filter.Blur()
				m.relayout()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.relayout()
				return m, cmd
			}
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.prov.Cleanup()
			return m, tea.Quit
		case "j", "down":
			if m.sel < len(m.rows)-1 {
				m.sel++
			}
		case "k", "up":
			if m.sel > 0 {
				m.sel--
			}
		case "g":
			m.groupBy = m.groupBy.next()
			m.status = "Grouping by " + string(m.groupBy)
			m.relayout()
		case "s":
			m.reverse = !m.reverse
			m.relayout()
		case "/":
			m.filterMode = true
			m.filter.Focus()
			m.status = "Filter mode: type and press Enter"
		case "t":
			if len(m.rows) == 0 {
				break
			}
			key := m.rows[m.sel].groupKey
			if m.selected[key] {
				delete(m.selected, key)
				m.status = "Deselected " + key
			} else {
				m.selected[key] = true
				m.status = "Forwarding ports of " + key
			}
			m.relayout()
		}
	}
	return m, nil
}

func (m modelUI) View() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("Auto Portforward — " + m.prov.Name())
	subhead := fmt.Sprintf("processes=%d group=%s forwarded=%s", len(m.snap), m.groupBy, util.EmptyDash(util.JoinPorts(m.applied)))

	tree := strings.Builder{}
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Italic(true)
	for i, r := range m.rows {
		cursor := " "
		if i == m.sel {
			cursor = ">"
		}
		line := r.text
		if r.selected {
			line = selectedStyle.Render(line)
		}
		tree.WriteString(cursor + line + "\n")
	}
	if len(m.rows) == 0 {
		tree.WriteString("  (no processes matched)\n")
	}

	filterLine := "Filter: " + m.filter.View()
	quickHelp := "Keys: t toggle group | g group by | s sort | / filter | j/k move | q quit"

	width := m.effectiveWidth()
	layout := lipgloss.JoinVertical(
		lipgloss.Left,
		head,
		subhead,
		filterLine,
		quickHelp,
		m.renderPanel("Processes", tree.String(), width, lipgloss.Color("39")),
		m.renderPanel("Log", m.logView.View(), width, lipgloss.Color("63")),
		m.renderPanel("Status", m.status, width, lipgloss.Color("205")),
	)
	return layout
}

func (m modelUI) effectiveWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

func (m modelUI) renderPanel(title, body string, width int, accent lipgloss.Color) string {
	if width < 24 {
		width = 24
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title)
	content := strings.TrimSuffix(body, "\n")
	panel := strings.TrimSpace(header + "\n" + content)
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(panel)
}

// Run takes over the terminal until the user quits. While the program is up
// the default slog output is redirected into the log pane.
func Run(prov provider.Provider, cfg appconfig.Config) error {
	logs := newLogBuffer(200)
	prev := slog.Default()
	slog.SetDefault(slog.New(newLogHandler(logs)))
	defer slog.SetDefault(prev)

	p := tea.NewProgram(initialModel(prov, cfg, logs), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
