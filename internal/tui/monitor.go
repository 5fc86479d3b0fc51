// Package tui renders a terminal view of one indexing job, driven by the
// progress package: live snapshots on one side, control keys on the other.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pg "github.com/mishrapravin114/pharmadoc/pkg/progress"
)

const commandTimeout = 10 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	docStyles = map[pg.DocumentStatus]lipgloss.Style{
		pg.DocPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		pg.DocProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		pg.DocIndexed:    okStyle,
		pg.DocFailed:     errStyle,
	}
)

type snapshotMsg struct {
	snapshot *pg.JobSnapshot
}

type connStateMsg struct {
	state pg.ConnectionState
}

type channelClosedMsg struct{}

type commandResultMsg struct {
	command string
	err     error
}

// Model is the bubbletea model for one job's progress view
type Model struct {
	channel    pg.Channel
	engine     *pg.Engine
	controller *pg.Controller
	jobID      string

	bar        progress.Model
	state      *pg.JobSnapshot
	connection pg.ConnectionState
	notice     string
	closed     bool
}

// NewModel creates the monitor view over an open channel
func NewModel(channel pg.Channel, engine *pg.Engine, controller *pg.Controller, jobID string) Model {
	return Model{
		channel:    channel,
		engine:     engine,
		controller: controller,
		jobID:      jobID,
		bar:        progress.New(progress.WithDefaultGradient()),
		connection: pg.ConnectionState{Status: pg.StatusDisconnected},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.waitForConnState())
}

// waitForSnapshot blocks on the channel and turns the next delivery into a
// message; re-issued after every receipt
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-m.channel.Snapshots()
		if !ok {
			return channelClosedMsg{}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func (m Model) waitForConnState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.channel.States()
		if !ok {
			return channelClosedMsg{}
		}
		return connStateMsg{state: state}
	}
}

func (m Model) runCommand(name string, run func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{command: name, err: run(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.channel.Close()
			return m, tea.Quit
		case "p":
			return m, m.runCommand("pause", m.controller.Pause)
		case "r":
			return m, m.runCommand("resume", m.controller.Resume)
		case "c":
			return m, m.runCommand("cancel", m.controller.Cancel)
		case "R":
			return m, m.runCommand("retry all failed", m.controller.RetryAllFailed)
		case "n":
			m.channel.RetryConnection()
			m.notice = "reconnecting..."
			return m, nil
		}

	case snapshotMsg:
		m.state = m.engine.Apply(msg.snapshot)
		return m, m.waitForSnapshot()

	case connStateMsg:
		m.connection = msg.state
		return m, m.waitForConnState()

	case commandResultMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s: %v", msg.command, msg.err)
		} else {
			m.notice = msg.command + " requested"
			// Show the optimistic state without waiting for the next push
			m.state = m.engine.State()
		}
		return m, nil

	case channelClosedMsg:
		m.closed = true
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Indexing job "+m.jobID) + "\n\n")

	summary := pg.Summarize(m.state)

	b.WriteString(labelStyle.Render("Status: "))
	switch summary.Status {
	case pg.JobCompleted:
		b.WriteString(okStyle.Render(summary.StatusLabel))
	case pg.JobFailed, pg.JobCancelled:
		b.WriteString(errStyle.Render(summary.StatusLabel))
	case pg.JobPaused:
		b.WriteString(warnStyle.Render(summary.StatusLabel))
	default:
		b.WriteString(summary.StatusLabel)
	}
	b.WriteString("\n")

	b.WriteString(m.bar.ViewAs(summary.OverallProgress/100) + "\n")
	b.WriteString(fmt.Sprintf("%s %d indexed, %d failed, %d pending, %d processing\n",
		labelStyle.Render("Documents:"),
		summary.Counts.Indexed, summary.Counts.Failed,
		summary.Counts.Pending, summary.Counts.Processing))

	if summary.CurrentDocument != "" {
		b.WriteString(labelStyle.Render("Working on: ") + summary.CurrentDocument + "\n")
	}
	if summary.Error != "" {
		b.WriteString(errStyle.Render(summary.Error) + "\n")
	}

	if m.state != nil && len(m.state.Documents) > 0 {
		b.WriteString("\n")
		for _, entry := range m.state.Documents {
			style := docStyles[entry.Status]
			line := fmt.Sprintf("  %-10s %s", entry.Status, entry.Name)
			if entry.Error != "" {
				line += "  " + entry.Error
			}
			b.WriteString(style.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.closed:
		b.WriteString(errStyle.Render("channel closed") + "\n")
	case m.connection.Status == pg.StatusConnected:
		b.WriteString(okStyle.Render("connected") + "\n")
	case m.connection.Status == pg.StatusError:
		b.WriteString(errStyle.Render("connection error: "+m.connection.Message) + "\n")
	default:
		b.WriteString(warnStyle.Render("disconnected") + "\n")
	}

	if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}

	b.WriteString(helpStyle.Render("p pause · r resume · c cancel · R retry failed · n reconnect · q quit"))
	return b.String()
}
