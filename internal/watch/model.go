// Package watch is a small terminal view that shows the running session and
// lets the user start or stop it.
package watch

import (
	"time"

	"timetrack/internal/timelog"
	"timetrack/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
)

// Tracker is the subset of tracker.Tracker the view needs.
type Tracker interface {
	Start() (timelog.StartTime, error)
	Stop() (timelog.Record, error)
	Status() (tracker.Status, error)
}

// MsgTick triggers a refresh of the elapsed time.
type MsgTick struct{}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return MsgTick{} })
}

// Model is the bubbletea model for the watch view.
type Model struct {
	Status     tracker.Status
	LastRecord *timelog.Record
	Err        error

	tracker  Tracker
	interval time.Duration
}

// NewModel returns a Model refreshing every second.
func NewModel(t Tracker) *Model {
	m := &Model{tracker: t, interval: time.Second}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tick(m.interval)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.refresh()
		return m, tick(m.interval)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) refresh() {
	st, err := m.tracker.Status()
	if err != nil {
		m.Err = err
		return
	}
	m.Status = st
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "s", "enter", " ":
		m.Err = nil
		if m.Status.Running {
			rec, err := m.tracker.Stop()
			if err != nil {
				m.Err = err
			} else {
				m.LastRecord = &rec
			}
		} else {
			if _, err := m.tracker.Start(); err != nil {
				m.Err = err
			} else {
				m.LastRecord = nil
			}
		}
		m.refresh()
	}
	return m, nil
}
