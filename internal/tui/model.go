// Package tui is an interactive terminal view of a vault's link graph. The
// bubbletea runtime is the frame scheduler: one tick runs one simulation
// frame, and ticks are only scheduled while the view is active.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/noteservice"
)

const (
	defaultFPS   = 30
	panelWidth   = 36
	previewRunes = 280
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	stylePanel  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#8b5cf6")).Padding(0, 1)
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
)

// Source loads what the view shows. *noteservice.Service implements it.
type Source interface {
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	GetNote(ctx context.Context, vaultID, noteID string) (*noteservice.NoteDetail, error)
}

// Options configures the view.
type Options struct {
	FPS     int
	Params  graph.Params
	Palette graph.Palette
	Logger  *slog.Logger
}

type (
	frameMsg  struct{}
	notesMsg  struct{ notes []models.Note }
	detailMsg struct{ note *noteservice.NoteDetail }
	errMsg    struct{ err error }
)

// Model is the bubbletea model of the graph view.
type Model struct {
	ctx     context.Context
	src     Source
	vaultID string
	opts    Options
	logger  *slog.Logger

	engine *graph.Engine
	canvas *Canvas
	notes  []models.Note
	loaded bool
	titles map[string]string

	width, height int
	focused       bool
	panelOpen     bool
	ticking       bool
	frames        int

	detail *noteservice.NoteDetail
	err    error
}

// New creates the model. Nothing is loaded until Init runs.
func New(ctx context.Context, src Source, vaultID string, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.Palette == (graph.Palette{}) {
		opts.Palette = graph.DefaultPalette()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Model{
		ctx:     ctx,
		src:     src,
		vaultID: vaultID,
		opts:    opts,
		logger:  logger,
		canvas:  NewCanvas(0, 0),
		focused: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadNotes()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layoutCanvas()
		return m, m.resume()

	case tea.FocusMsg:
		m.focused = true
		return m, m.resume()

	case tea.BlurMsg:
		m.focused = false
		if m.engine != nil {
			m.engine.PointerLeave()
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case frameMsg:
		if !m.active() {
			m.ticking = false
			return m, nil
		}
		m.engine.Frame(m.canvas, m.opts.Palette)
		m.frames++
		return m, m.tick()

	case notesMsg:
		m.err = nil
		m.setNotes(msg.notes)
		return m, m.resume()

	case detailMsg:
		m.detail = msg.note
		return m, nil

	case errMsg:
		m.err = msg.err
		m.logger.Error("tui: load failed", slog.String("error", msg.err.Error()))
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "tab":
		m.panelOpen = !m.panelOpen
		m.layoutCanvas()
		return m.resume()
	case "esc":
		if m.panelOpen {
			m.panelOpen = false
			m.layoutCanvas()
			return m.resume()
		}
	case "r":
		return m.loadNotes()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.engine == nil {
		return nil
	}
	cols, rows := m.canvas.Grid()
	if msg.X >= cols || msg.Y >= rows {
		if msg.Action == tea.MouseActionMotion {
			m.engine.PointerLeave()
		}
		return nil
	}
	x, y := toPixel(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.engine.PointerDown(x, y)
		}
	case tea.MouseActionMotion:
		m.engine.PointerMove(x, y)
	case tea.MouseActionRelease:
		id, ok := m.engine.PointerUp(x, y)
		if ok {
			return m.selectNote(id)
		}
	}
	if !m.active() {
		m.engine.Draw(m.canvas, m.opts.Palette)
	}
	return nil
}

func (m *Model) selectNote(id string) tea.Cmd {
	m.panelOpen = true
	m.detail = nil
	m.layoutCanvas()
	ctx, src, vaultID := m.ctx, m.src, m.vaultID
	return func() tea.Msg {
		n, err := src.GetNote(ctx, vaultID, id)
		if err != nil {
			return errMsg{err}
		}
		return detailMsg{n}
	}
}

func (m *Model) loadNotes() tea.Cmd {
	ctx, src, vaultID := m.ctx, m.src, m.vaultID
	return func() tea.Msg {
		notes, err := src.ListNotes(ctx, vaultID)
		if err != nil {
			return errMsg{err}
		}
		return notesMsg{notes}
	}
}

func (m *Model) setNotes(notes []models.Note) {
	m.notes, m.loaded = notes, true
	m.titles = make(map[string]string, len(notes))
	for _, n := range notes {
		m.titles[n.ID] = n.Title
	}
	m.logger.Info("tui: notes loaded", slog.String("vault", m.vaultID), slog.Int("notes", len(notes)))
	if m.engine != nil {
		m.engine.Rebuild(notes)
		m.engine.Draw(m.canvas, m.opts.Palette)
		return
	}
	m.ensureEngine()
}

// ensureEngine creates the engine once both the notes and the terminal
// size are known, so initial positions are seeded on the real canvas.
func (m *Model) ensureEngine() {
	if m.engine != nil || !m.loaded {
		return
	}
	cols, rows := m.canvas.Grid()
	if cols <= 0 || rows <= 0 {
		return
	}
	w, h := m.canvas.Size()
	logger := m.logger
	m.engine = graph.New(m.notes, w, h,
		graph.WithParams(m.opts.Params),
		graph.WithSelectHandler(func(id string) {
			logger.Debug("tui: note selected", slog.String("note", id))
		}),
	)
	m.engine.Draw(m.canvas, m.opts.Palette)
}

// layoutCanvas fits the canvas to the terminal, leaving a status line and,
// when open, the side panel.
func (m *Model) layoutCanvas() {
	cols := m.width
	if m.panelOpen {
		cols -= panelWidth
	}
	m.canvas.Resize(cols, m.height-1)
	m.ensureEngine()
	if m.engine != nil {
		w, h := m.canvas.Size()
		m.engine.Resize(w, h)
		m.engine.Draw(m.canvas, m.opts.Palette)
	}
}

// active reports whether frames should run.
func (m *Model) active() bool {
	cols, rows := m.canvas.Grid()
	return m.engine != nil && m.focused && !m.panelOpen && cols > 0 && rows > 0
}

// resume starts the tick loop if the view just became active.
func (m *Model) resume() tea.Cmd {
	if m.ticking || !m.active() {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	body := m.canvas.Render()
	if m.panelOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.panel())
	}
	return body + "\n" + m.status()
}

func (m *Model) status() string {
	if m.err != nil {
		return styleError.Render("error: " + m.err.Error())
	}
	state := "running"
	if !m.active() {
		state = "paused"
	}
	n := 0
	if m.engine != nil {
		n = m.engine.Len()
	}
	return styleStatus.Render(fmt.Sprintf("%d notes · %s · drag to move · click to open · tab panel · r reload · q quit", n, state))
}

func (m *Model) panel() string {
	var b strings.Builder
	switch {
	case m.detail != nil:
		title := m.detail.Title
		if title == "" {
			title = graph.DefaultLabel
		}
		b.WriteString(styleTitle.Render(title))
		b.WriteString("\n\n")
		b.WriteString(preview(m.detail.Content))
		b.WriteString("\n\n")
		b.WriteString(m.titleList("Links", m.detail.Links))
		b.WriteString("\n")
		b.WriteString(m.titleList("Backlinks", m.detail.Backlinks))
	default:
		b.WriteString(styleDim.Render("Click a node to open its note."))
	}
	return stylePanel.Width(panelWidth - 2).Height(max(m.height-3, 1)).Render(b.String())
}

func (m *Model) titleList(label string, ids []string) string {
	var b strings.Builder
	b.WriteString(styleDim.Render(fmt.Sprintf("%s (%d)", label, len(ids))))
	for _, id := range ids {
		title := m.titles[id]
		if title == "" {
			title = graph.DefaultLabel
		}
		b.WriteString("\n  " + graph.TruncateLabel(title, panelWidth-8))
	}
	return b.String()
}

func preview(content string) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) > previewRunes {
		return string(r[:previewRunes]) + "..."
	}
	return string(r)
}

// Run starts the program on the terminal and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, src Source, vaultID string, opts Options) error {
	m := New(ctx, src, vaultID, opts)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
