package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haatos/stageflow/internal/execution"
	"github.com/haatos/stageflow/internal/topology"
)

// SnapshotMsg carries a controller snapshot into the watcher. Programs feed
// it with tea.Program.Send from the controller observer.
type SnapshotMsg execution.Snapshot

// WatchModel renders one pipeline and the status of its current run.
type WatchModel struct {
	pipeline   topology.Pipeline
	snap       execution.Snapshot
	start      func() bool
	cursor     int
	expanded   bool
	quitOnDone bool
	autoStart  bool
	notice     string
	width      int
}

type WatchOption func(*WatchModel)

// WithAutoStart starts a run as soon as the program is running.
func WithAutoStart() WatchOption {
	return func(m *WatchModel) {
		m.autoStart = true
	}
}

// WithQuitOnDone makes the program exit once the run completes.
func WithQuitOnDone() WatchOption {
	return func(m *WatchModel) {
		m.quitOnDone = true
	}
}

// NewWatchModel watches p. start is called when the user asks for a run and
// reports whether a run was started.
func NewWatchModel(p topology.Pipeline, start func() bool, opts ...WatchOption) WatchModel {
	m := WatchModel{
		pipeline: p,
		snap:     execution.Snapshot{State: execution.StateNotStarted, Current: -1, StageCount: len(p.Stages)},
		start:    start,
		expanded: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// startRejectedMsg reports that a start request found a run in flight.
type startRejectedMsg struct{}

// startCmd calls start off the event loop, since start delivers snapshots
// back into the program.
func (m WatchModel) startCmd() tea.Cmd {
	if m.start == nil {
		return nil
	}
	start := m.start
	return func() tea.Msg {
		if !start() {
			return startRejectedMsg{}
		}
		return nil
	}
}

func (m WatchModel) Init() tea.Cmd {
	if !m.autoStart {
		return nil
	}
	return m.startCmd()
}

func (m WatchModel) Snapshot() execution.Snapshot {
	return m.snap
}

func (m WatchModel) Cursor() int {
	return m.cursor
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case SnapshotMsg:
		m.snap = execution.Snapshot(msg)
		m.notice = ""
		if m.snap.State == execution.StateRunning && m.snap.Current >= 0 {
			m.cursor = m.snap.Current
		}
		if m.snap.State == execution.StateCompleted && m.quitOnDone {
			return m, tea.Quit
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.pipeline.Stages)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "tab":
			m.expanded = !m.expanded
		case "r", "enter":
			return m, m.startCmd()
		}

	case startRejectedMsg:
		m.notice = "a run is already in progress"
	}
	return m, nil
}

func statusIcon(s execution.Status) string {
	switch s {
	case execution.StatusCompleted:
		return "✓"
	case execution.StatusRunning:
		return "●"
	case execution.StatusWaiting:
		return "…"
	case execution.StatusFailed:
		return "✗"
	}
	return "○"
}

func (m WatchModel) header() string {
	name := m.pipeline.Name
	if name == "" {
		name = m.pipeline.ID
	}
	switch m.snap.State {
	case execution.StateRunning:
		return fmt.Sprintf("%s  run %s  stage %d/%d", name, shortID(m.snap.RunID), m.snap.Current+1, m.snap.StageCount)
	case execution.StateCompleted:
		return fmt.Sprintf("%s  run %s  completed", name, shortID(m.snap.RunID))
	}
	return name + "  not started"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m WatchModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	if len(m.pipeline.Stages) == 0 {
		sb.WriteString("  (no stages)\n")
	}
	for i, s := range m.pipeline.Stages {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		status := m.snap.StageStatus(i)
		fmt.Fprintf(&sb, "%s%s %-24s %s\n", prefix, statusIcon(status), s.Name, status)
		if !m.expanded {
			continue
		}
		for gi, g := range s.Groups {
			chain := make([]string, len(g))
			for ji, j := range g {
				chain[ji] = j.Name
			}
			branch := "├"
			if gi == len(s.Groups)-1 {
				branch = "└"
			}
			fmt.Fprintf(&sb, "     %s %s\n", branch, strings.Join(chain, " → "))
		}
	}

	if m.notice != "" {
		sb.WriteString("\n" + m.notice + "\n")
	}
	sb.WriteString("\nr run · j/k move · tab jobs · q quit\n")
	return clip(sb.String(), m.width)
}

// clip cuts every line to width runes. Zero width leaves lines untouched.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if r := []rune(l); len(r) > width {
			lines[i] = string(r[:width])
		}
	}
	return strings.Join(lines, "\n")
}
