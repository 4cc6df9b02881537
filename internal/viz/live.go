// Package viz renders a running simulation in the terminal: a stats
// panel plus scrolling energy and bond-count traces. It only reads
// world snapshots and aggregates; it never mutates simulation state.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/shatter/internal/world"
)

const historyCapacity = 600

type TickMsg time.Time

// Model drives the live view: it owns the world, steps it on a frame
// timer, and keeps bounded metric histories for the graphs.
type Model struct {
	w        *world.World
	rebuild  func() *world.World
	scenario string
	fps      int

	running bool
	showAll bool

	energy []float64
	bonds  []float64
}

func NewModel(w *world.World, rebuild func() *world.World, scenario string, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		w:        w,
		rebuild:  rebuild,
		scenario: scenario,
		fps:      fps,
		running:  true,
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.w = m.rebuild()
			m.energy = m.energy[:0]
			m.bonds = m.bonds[:0]
		case "b":
			m.showAll = !m.showAll
		}
		return m, nil

	case TickMsg:
		if m.running {
			m.w.Advance(1.0 / float64(m.fps))
			m.energy = appendBounded(m.energy, m.w.KineticEnergy())
			m.bonds = appendBounded(m.bonds, float64(m.w.LiveBonds()))
		}
		return m, m.tickCmd()
	}
	return m, nil
}

func appendBounded(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[len(hist)-historyCapacity:]
	}
	return hist
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("shatter · %s", m.scenario)))
	b.WriteString("\n")

	status := "running"
	style := statusRunning
	if !m.running {
		status = "paused"
		style = statusPaused
	}

	snap := m.w.Snapshot()
	stats := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("status"), style.Render(status)),
		fmt.Sprintf("%s %d", labelStyle.Render("tick"), snap.Tick),
		fmt.Sprintf("%s %.2fs", labelStyle.Render("time"), snap.Time),
		fmt.Sprintf("%s %d", labelStyle.Render("bodies"), m.w.LiveCount()),
		fmt.Sprintf("%s %d / %d", labelStyle.Render("bonds"), m.w.LiveBonds(), builtBonds(m.w)),
		fmt.Sprintf("%s %d", labelStyle.Render("resting"), m.w.RestingCount()),
		fmt.Sprintf("%s %.3f J", labelStyle.Render("kinetic"), m.w.KineticEnergy()),
	}
	b.WriteString(panelStyle.Render(strings.Join(stats, "\n")))
	b.WriteString("\n")

	if len(m.energy) > 1 {
		b.WriteString(graphStyle.Render(asciigraph.Plot(m.energy,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("kinetic energy"),
		)))
		b.WriteString("\n")
	}
	if len(m.bonds) > 1 {
		b.WriteString(graphStyle.Render(asciigraph.Plot(m.bonds,
			asciigraph.Height(6),
			asciigraph.Width(70),
			asciigraph.Caption("live bonds"),
		)))
		b.WriteString("\n")
	}

	if m.showAll {
		b.WriteString(bodyTable(snap))
	}

	b.WriteString(helpStyle.Render("space pause · r reset · b bodies · q quit"))
	return b.String()
}

func builtBonds(w *world.World) int {
	total := 0
	for _, n := range w.Networks() {
		total += n.Built()
	}
	return total
}

func bodyTable(snap world.Snapshot) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("  idx        position              speed   state"))
	b.WriteString("\n")
	for _, bs := range snap.Bodies {
		b.WriteString(fmt.Sprintf("  %3d  (%6.2f %6.2f %6.2f)  %6.2f   %s\n",
			bs.Index,
			bs.Position.X(), bs.Position.Y(), bs.Position.Z(),
			bs.Velocity.Len(),
			bs.State,
		))
	}
	return b.String()
}
