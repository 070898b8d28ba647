// Package display renders the receiver's view of the controller in the
// terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/receive"
	"github.com/Alia5/padlink/internal/statebuf"
	"github.com/Alia5/padlink/pkg/controller"
)

const refreshInterval = 100 * time.Millisecond

// Display is a receive.Sink. Apply only stores the snapshot; the terminal is
// redrawn on its own schedule so a slow terminal never stalls the receiver.
type Display struct {
	latest *statebuf.Buffer
	stats  func() receive.Stats
	onQuit func()
	opts   []tea.ProgramOption
}

// New creates a display. stats may be nil. onQuit runs when the user quits
// the display with q or ctrl+c.
func New(stats func() receive.Stats, onQuit func(), opts ...tea.ProgramOption) *Display {
	return &Display{latest: statebuf.New(), stats: stats, onQuit: onQuit, opts: opts}
}

// Apply records s for the next redraw.
func (d *Display) Apply(s controller.Snapshot) { d.latest.Write(s) }

// Run draws until ctx is cancelled or the user quits.
func (d *Display) Run(ctx context.Context, out io.Writer) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}, d.opts...)
	p := tea.NewProgram(newModel(d.latest, d.stats, d.onQuit), opts...)
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	src     *statebuf.Buffer
	stats   func() receive.Stats
	onQuit  func()
	snap    controller.Snapshot
	cmd     actuator.MotorCommand
	st      receive.Stats
	updates uint64
}

func newModel(src *statebuf.Buffer, stats func() receive.Stats, onQuit func()) model {
	return model{src: src, stats: stats, onQuit: onQuit}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	case tickMsg:
		m = m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m model) refresh() model {
	m.snap = m.src.Read()
	m.updates = m.src.Updates()
	m.cmd = actuator.Mix(m.snap)
	if m.stats != nil {
		m.st = m.stats()
	}
	return m
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("padlink receiver\n\n")
	if m.updates == 0 {
		b.WriteString("  waiting for controller data...\n")
	} else {
		s := m.snap
		fmt.Fprintf(&b, "  left stick   x %6.3f  y %6.3f\n", s.LeftStick.X, s.LeftStick.Y)
		fmt.Fprintf(&b, "  right stick  x %6.3f  y %6.3f\n", s.RightStick.X, s.RightStick.Y)
		fmt.Fprintf(&b, "  triggers     l %6.3f  r %6.3f\n", s.Triggers.Left, s.Triggers.Right)
		fmt.Fprintf(&b, "  buttons      %s\n\n", pressed(s.Buttons))
		fmt.Fprintf(&b, "  steering     %s %.0f\n", m.cmd.Steering.Dir, m.cmd.Steering.Magnitude)
		fmt.Fprintf(&b, "  throttle     %s %.0f\n", m.cmd.Throttle.Dir, m.cmd.Throttle.Magnitude)
		fmt.Fprintf(&b, "  motors       L %s  R %s\n", m.cmd.Left, m.cmd.Right)
	}
	if m.stats != nil {
		fmt.Fprintf(&b, "\n  packets %d  accepted %d  stale %d  malformed %d\n",
			m.st.Received, m.st.Accepted, m.st.Stale, m.st.Malformed)
	}
	b.WriteString("\n  q to quit\n")
	return b.String()
}

func pressed(bs controller.Buttons) string {
	var names []string
	for b := controller.Button(0); b < controller.ButtonCount; b++ {
		if bs.Pressed(b) {
			names = append(names, b.String())
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, " ")
}
