package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"

	"sandboxd/internal/process"
	"sandboxd/internal/proxy"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live terminal view of a running sandboxd instance",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	m := newDashboardModel(addr)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

var (
	dashHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	dashMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	dashError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)

type dashboardModel struct {
	client       *http.Client
	addr         string
	spinner      spinner.Model
	connected    bool
	ping         map[string]interface{}
	processes    []process.Snapshot
	exposedPorts []proxy.ExposedPort
	lastErr      error
	width        int
}

func newDashboardModel(addr string) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dashMuted
	return dashboardModel{
		client:  &http.Client{Timeout: 3 * time.Second},
		addr:    addr,
		spinner: sp,
	}
}

type dashboardTickMsg time.Time

type dashboardDataMsg struct {
	ping         map[string]interface{}
	processes    []process.Snapshot
	exposedPorts []proxy.ExposedPort
	err          error
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.poll(),
		m.spinner.Tick,
		tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return dashboardTickMsg(t) }),
	)
}

func (m dashboardModel) poll() tea.Cmd {
	return func() tea.Msg {
		var data dashboardDataMsg
		if err := getJSON(m.client, m.addr+"/api/ping", &data.ping); err != nil {
			data.err = err
			return data
		}
		if err := getJSON(m.client, m.addr+"/api/process/list", &data.processes); err != nil {
			data.err = err
			return data
		}
		if err := getJSON(m.client, m.addr+"/api/exposed-ports", &data.exposedPorts); err != nil {
			data.err = err
			return data
		}
		return data
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		if m.connected {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case dashboardTickMsg:
		return m, tea.Batch(m.poll(), tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return dashboardTickMsg(t) }))
	case dashboardDataMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.connected = true
			m.ping = msg.ping
			m.processes = msg.processes
			m.exposedPorts = msg.exposedPorts
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(dashHeader.Render("sandboxd dashboard"))
	b.WriteString("  ")
	b.WriteString(dashMuted.Render(m.addr))
	b.WriteString("\n\n")

	if m.lastErr != nil {
		b.WriteString(dashError.Render(fmt.Sprintf("connection error: %v", m.lastErr)))
		b.WriteString("\n\n")
	} else if !m.connected {
		b.WriteString(m.spinner.View())
		b.WriteString(" connecting...\n\n")
	} else if m.ping != nil {
		b.WriteString(fmt.Sprintf("sandboxId: %v   status: %v\n\n", m.ping["sandboxId"], m.ping["status"]))
	}

	b.WriteString(dashHeader.Render("Processes"))
	b.WriteString("\n")
	if len(m.processes) == 0 {
		b.WriteString(dashMuted.Render("  (none)\n"))
	} else {
		b.WriteString(fmt.Sprintf("  %-10s %-8s %-10s %s\n", "ID", "PID", "STATUS", "COMMAND"))
		for _, p := range m.processes {
			b.WriteString(fmt.Sprintf("  %-10s %-8d %-10s %s\n", truncateID(p.ID), p.Pid, p.Status, p.Command))
		}
	}
	b.WriteString("\n")

	b.WriteString(dashHeader.Render("Exposed ports"))
	b.WriteString("\n")
	if len(m.exposedPorts) == 0 {
		b.WriteString(dashMuted.Render("  (none)\n"))
	} else {
		b.WriteString(fmt.Sprintf("  %-8s %-16s %s\n", "PORT", "NAME", "EXPOSED AT"))
		for _, ep := range m.exposedPorts {
			b.WriteString(fmt.Sprintf("  %-8d %-16s %s\n", ep.Port, ep.Name, ep.ExposedAt.Format(time.Kitchen)))
		}
	}

	b.WriteString("\n")
	b.WriteString(dashMuted.Render("press q to quit"))
	return b.String()
}

func truncateID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
