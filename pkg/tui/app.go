// Package tui runs the multi-planar viewer in a terminal.
// The three slice views are drawn side by side as shaded character panes and
// respond to the mouse the way the graphical viewports do.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
	"mprviewer/pkg/logging"
	"mprviewer/pkg/render"
	"mprviewer/pkg/viewer"
)

// ramp maps gray levels to characters, dark to bright
const ramp = " .:-=+*#%@"

const (
	minPaneWidth  = 12
	minPaneHeight = 6
	graphHeight   = 6
	// rows used by the title, the overlay line, the graph and the help line
	chromeRows = 2 + 1 + 1 + graphHeight + 3
)

var (
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	activeStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("86"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

// Model is the bubbletea model of the viewer
type Model struct {
	session  *viewer.Session
	surfaces [3]*render.Surface
	planes   *viewer.VolumePlanes
	widget   *render.Planes
	logger   *slog.Logger

	active models.Orientation
	ptrX   int
	ptrY   int
	paneW  int
	paneH  int
	status string
	err    error
}

// New creates the terminal model. The session must already be started.
func New(session *viewer.Session, surfaces [3]*render.Surface, planes *viewer.VolumePlanes, widget *render.Planes, logger *slog.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}
	m := Model{
		session:  session,
		surfaces: surfaces,
		planes:   planes,
		widget:   widget,
		logger:   logger,
		active:   models.Axial,
	}
	m.resize(80, 24+chromeRows)
	return m
}

// Run starts the terminal program and blocks until the user quits
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.active = models.Orientations[(int(m.active)+1)%len(models.Orientations)]
	case "shift+tab":
		m.active = models.Orientations[(int(m.active)+len(models.Orientations)-1)%len(models.Orientations)]
	case "pgup":
		m.record(m.session.Controller(m.active).Wheel(crosshair.ScrollForward))
	case "pgdown":
		m.record(m.session.Controller(m.active).Wheel(crosshair.ScrollBackward))
	case "left", "h":
		m.movePointer(-1, 0)
	case "right", "l":
		m.movePointer(1, 0)
	case "up", "k":
		m.movePointer(0, 1)
	case "down", "j":
		m.movePointer(0, -1)
	case "p":
		m.toggleAllPlanes()
	case "+", "=":
		m.zoom(m.session.Settings().ZoomStep)
	case "-", "_":
		m.zoom(1 / m.session.Settings().ZoomStep)
	case "r":
		for _, s := range m.surfaces {
			s.ResetView()
		}
		m.record(m.session.Reset())
	case "1", "2", "3":
		m.togglePlane(models.Orientations[msg.String()[0]-'1'])
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	o, x, y, ok := m.locate(msg.X, msg.Y)
	if !ok {
		if msg.Action == tea.MouseActionRelease {
			m.releaseAll()
		}
		return m
	}
	ctrl := m.session.Controller(o)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.record(ctrl.Wheel(crosshair.ScrollForward))
		case tea.MouseButtonWheelDown:
			m.record(ctrl.Wheel(crosshair.ScrollBackward))
		default:
			b, ok := button(msg.Button)
			if !ok {
				return m
			}
			m.active = o
			m.record(ctrl.Press(b, x, y))
		}
	case tea.MouseActionMotion:
		m.record(ctrl.Move(x, y))
	case tea.MouseActionRelease:
		m.releaseAll()
	}
	return m
}

// locate maps a terminal cell to a pane and to surface coordinates.
// Surface y grows upwards, terminal rows grow downwards.
func (m Model) locate(cellX, cellY int) (models.Orientation, int, int, bool) {
	// one border row and one title row above the content
	row := cellY - 2
	if row < 0 || row >= m.paneH {
		return 0, 0, 0, false
	}
	stride := m.paneW + 2
	i := cellX / stride
	col := cellX%stride - 1
	if i >= len(models.Orientations) || col < 0 || col >= m.paneW {
		return 0, 0, 0, false
	}
	return models.Orientations[i], col, m.paneH - 1 - row, true
}

func (m *Model) releaseAll() {
	for _, o := range models.Orientations {
		ctrl := m.session.Controller(o)
		for _, b := range []viewer.Button{viewer.ButtonLeft, viewer.ButtonMiddle, viewer.ButtonRight} {
			ctrl.Release(b)
		}
	}
}

// movePointer steps the keyboard pointer inside the active pane and picks there
func (m *Model) movePointer(dx, dy int) {
	m.ptrX = min(max(m.ptrX+dx, 0), m.paneW-1)
	m.ptrY = min(max(m.ptrY+dy, 0), m.paneH-1)
	ctrl := m.session.Controller(m.active)
	cs, err := ctrl.Press(viewer.ButtonLeft, m.ptrX, m.ptrY)
	ctrl.Release(viewer.ButtonLeft)
	m.record(cs, err)
}

func (m *Model) zoom(factor float64) {
	if !m.session.Settings().Capabilities.Zoom {
		return
	}
	s := m.surfaces[m.active]
	s.Zoom(factor)
	s.RequestRedraw()
	m.status = fmt.Sprintf("%s zoom %.2f", m.active, s.ZoomFactor())
}

func (m *Model) togglePlane(o models.Orientation) {
	if m.planes == nil {
		return
	}
	on, err := m.planes.Toggle(o)
	if err != nil {
		m.err = err
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	m.status = fmt.Sprintf("%s plane %s", o, state)
}

func (m *Model) toggleAllPlanes() {
	if m.planes == nil {
		return
	}
	for _, o := range models.Orientations {
		if m.planes.Enabled(o) {
			m.planes.DisableAll()
			m.status = "planes off"
			return
		}
	}
	if err := m.planes.EnableAll(); err != nil {
		m.err = err
		return
	}
	m.status = "planes on"
}

func (m *Model) record(cs models.ChangeSet, err error) {
	if err != nil {
		m.err = err
		m.logger.Warn("interaction failed", "error", err)
		return
	}
	m.err = nil
	if cs.Empty() && cs.Indices == (models.SliceIndices{}) {
		return
	}
	m.status = fmt.Sprintf("cursor (%.1f, %.1f, %.1f)  sagital %d  coronal %d  axial %d",
		cs.CrossHair.X, cs.CrossHair.Y, cs.CrossHair.Z,
		cs.Indices.Sagital(), cs.Indices.Coronal(), cs.Indices.Axial())
}

func (m *Model) resize(width, height int) {
	m.paneW = (width - 2*len(models.Orientations)) / len(models.Orientations)
	if m.paneW < minPaneWidth {
		m.paneW = minPaneWidth
	}
	m.paneH = height - chromeRows
	if m.paneH < minPaneHeight {
		m.paneH = minPaneHeight
	}
	for _, s := range m.surfaces {
		s.Resize(m.paneW, m.paneH)
	}
	m.ptrX, m.ptrY = m.paneW/2, m.paneH/2
}

func (m Model) View() string {
	panes := make([]string, len(models.Orientations))
	for i, o := range models.Orientations {
		style := paneStyle
		if o == m.active {
			style = activeStyle
		}
		panes[i] = style.Render(m.renderPane(o))
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panes...))
	b.WriteString("\n")
	b.WriteString(m.overlay())
	b.WriteString("\n")
	b.WriteString(m.profile())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
	} else {
		b.WriteString(dimStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("click/drag/arrows: cursor  wheel/pgup/pgdn: slice  +/-: zoom  tab: view  p/1-3: planes  r: reset  q: quit"))
	return b.String()
}

// renderPane draws the title line and the shaded slice with its cross-hair
func (m Model) renderPane(o models.Orientation) string {
	s := m.surfaces[o]
	labels := s.Labels()
	title := fmt.Sprintf("%s %s  %s", o, s.SliceText(), labels[2])
	title = lipgloss.NewStyle().Width(m.paneW).MaxWidth(m.paneW).Render(titleStyle.Render(title))

	img := s.Render()
	cx, cy, hasCursor := s.CursorScreen()
	cursorRow := m.paneH - 1 - cy

	lines := make([]string, m.paneH)
	row := make([]byte, m.paneW)
	for r := 0; r < m.paneH; r++ {
		for c := 0; c < m.paneW; c++ {
			g := img.GrayAt(c, r).Y
			ch := ramp[int(g)*(len(ramp)-1)/255]
			if hasCursor {
				switch {
				case r == cursorRow && c == cx:
					ch = '+'
				case r == cursorRow:
					ch = '-'
				case c == cx:
					ch = '|'
				}
			}
			row[c] = ch
		}
		lines[r] = string(row)
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (m Model) overlay() string {
	parts := make([]string, 0, len(models.Orientations)+2)
	for _, o := range models.Orientations {
		s := m.surfaces[o]
		labels := s.Labels()
		parts = append(parts, fmt.Sprintf("%s %s [%s|%s %s|%s]", o, s.SliceText(), labels[0], labels[1], labels[2], labels[3]))
	}
	parts = append(parts, m.surfaces[m.active].WindowText())
	if m.widget != nil && m.planes != nil {
		parts = append(parts, "planes: "+m.widget.Summary(m.planes.Enabled))
	}
	return strings.Join(parts, "  ")
}

// profile plots the active view's intensities along the cursor row
func (m Model) profile() string {
	data := m.surfaces[m.active].Profile()
	if len(data) == 0 {
		return strings.Repeat("\n", graphHeight)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(graphHeight),
		asciigraph.Width(m.paneW*2),
		asciigraph.Caption(fmt.Sprintf("%s intensity along cursor row", m.active)))
	return graphStyle.Render(graph)
}

// Active returns the orientation that receives keyboard input
func (m Model) Active() models.Orientation { return m.active }

// Status returns the last status line
func (m Model) Status() string { return m.status }

// Err returns the last interaction error, if any
func (m Model) Err() error { return m.err }

func button(b tea.MouseButton) (viewer.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return viewer.ButtonLeft, true
	case tea.MouseButtonMiddle:
		return viewer.ButtonMiddle, true
	case tea.MouseButtonRight:
		return viewer.ButtonRight, true
	}
	return 0, false
}
