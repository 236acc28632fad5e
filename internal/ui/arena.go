package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/BioHazard786/eggcombat/internal/game"
	"github.com/BioHazard786/eggcombat/internal/protocol"
	"github.com/BioHazard786/eggcombat/internal/publish"
	"github.com/BioHazard786/eggcombat/internal/reconcile"
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Mode selects what the arena does on start.
type Mode int

const (
	ModeMenu Mode = iota
	ModeHost
	ModeJoin
)

// Options configures the arena view.
type Options struct {
	Coordinator   *session.Coordinator
	Mode          Mode
	Code          roomcode.Code // for ModeJoin
	TickInterval  time.Duration
	SmoothingRate float64
	RoomLink      func(roomcode.Code) string
	Logger        *slog.Logger
}

// A key press moves the egg as far as moveStep of held movement would.
const moveStep = 0.25

const (
	gridCols = 40
	gridRows = 20
)

var floorDot = FloorStyle.Render("·")

type (
	tickMsg   time.Time
	updateMsg session.Update
	actionErr struct{ err error }
)

// Model is the bubbletea model for the menu, lobby and arena.
type Model struct {
	opts   Options
	ctx    context.Context
	coord  *session.Coordinator
	player *game.Player
	pub    *publish.Publisher
	rec    *reconcile.Reconciler
	log    *slog.Logger

	spinner spinner.Model
	input   textinput.Model

	state    session.State
	role     session.Role
	code     roomcode.Code
	err      error
	notice   string
	practice bool
	eggs     []reconcile.Display
	lastTick time.Time
	started  time.Time
	summary  Summary
}

// NewModel wires the publisher and reconciler to the coordinator's store.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	if opts.SmoothingRate <= 0 {
		opts.SmoothingRate = reconcile.DefaultRate
	}
	if opts.RoomLink == nil {
		opts.RoomLink = func(c roomcode.Code) string { return c.String() }
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	store := opts.Coordinator.Store()

	input := textinput.New()
	input.Placeholder = "ROOM CODE or link"
	input.CharLimit = 128
	input.Width = 32
	input.Prompt = IconRoom + " "

	return &Model{
		opts:    opts,
		ctx:     ctx,
		coord:   opts.Coordinator,
		player:  store.Local,
		pub:     publish.New(store.Local, opts.Coordinator, log),
		rec:     reconcile.New(store.Peers, opts.SmoothingRate),
		log:     log.With("component", "arena"),
		spinner: newSpinner(session.StateIdle),
		input:   input,
		state:   opts.Coordinator.State(),
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUpdate(), m.tick(), m.spinner.Tick}

	switch m.opts.Mode {
	case ModeHost:
		cmds = append(cmds, m.startHost())
	case ModeJoin:
		cmds = append(cmds, m.joinRoom(m.opts.Code))
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.coord.Updates()
	return func() tea.Msg {
		select {
		case u := <-updates:
			return updateMsg(u)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) startHost() tea.Cmd {
	return func() tea.Msg {
		if err := m.coord.StartHost(m.ctx); err != nil {
			return actionErr{err}
		}
		return nil
	}
}

func (m *Model) joinRoom(code roomcode.Code) tea.Cmd {
	return func() tea.Msg {
		if err := m.coord.JoinRoom(m.ctx, code); err != nil {
			return actionErr{err}
		}
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case updateMsg:
		m.applyUpdate(session.Update(msg))
		return m, m.waitForUpdate()

	case actionErr:
		// The coordinator reports failed starts as updates too; only keep
		// errors that never reached it.
		if errors.Is(msg.err, session.ErrInvalidTransition) || m.state == session.StateIdle {
			m.err = msg.err
		}
		return m, nil

	case tickMsg:
		m.step(time.Time(msg))
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyUpdate(u session.Update) {
	prev := m.state
	m.state, m.role = u.State, u.Role
	if u.Code != "" {
		m.code = u.Code
	}
	if u.Err != nil {
		m.err = u.Err
		m.summary.LastError = u.Err
	}

	switch {
	case u.State.Pending():
		m.err = nil
		m.spinner = newSpinner(u.State)
	case u.State == session.StateConnected && prev != session.StateConnected:
		m.err, m.notice = nil, ""
		m.practice = false
		m.pub.SetMultiplayer(true)
		if m.started.IsZero() {
			m.started = time.Now()
		}
		m.summary.Role = u.Role.String()
		m.summary.RoomCode = u.Code.String()
	case u.State == session.StateIdle || u.State == session.StateDisconnected:
		m.eggs = nil
	}
	m.log.Debug("session update", "state", u.State, "role", u.Role, "error", u.Err)
}

// step advances one simulation tick: publish the local transform, then smooth remotes.
func (m *Model) step(now time.Time) {
	dt := time.Duration(0)
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick)
	}
	m.lastTick = now

	if m.state != session.StateConnected {
		return
	}
	if _, err := m.pub.Tick(); err != nil {
		m.log.Debug("move not sent", "error", err)
	}
	m.eggs = m.rec.Step(dt)
	m.summary.PeakPeers = max(m.summary.PeakPeers, len(m.eggs))
}

func (m *Model) inArena() bool {
	return m.practice || m.state == session.StateConnected
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.coord.Leave()
		return tea.Quit
	}

	if m.input.Focused() {
		return m.handleInput(msg)
	}

	switch {
	case m.inArena():
		return m.handleArenaKey(msg)
	case m.state.Pending():
		if key := msg.String(); key == "q" || key == "esc" {
			m.coord.Leave()
		}
	case m.state == session.StateDisconnected:
		switch msg.String() {
		case "enter", "m":
			m.coord.Leave()
		case "q":
			m.coord.Leave()
			return tea.Quit
		}
	default:
		return m.handleMenuKey(msg)
	}
	return nil
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "h":
		m.err = nil
		return m.startHost()
	case "j":
		m.err = nil
		m.input.SetValue("")
		return m.input.Focus()
	case "p":
		m.err = nil
		m.practice = true
		m.pub.SetMultiplayer(false)
		m.player.Reset()
		m.summary.Role = "practice"
		if m.started.IsZero() {
			m.started = time.Now()
		}
	case "q", "esc":
		return tea.Quit
	}
	return nil
}

func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		code, err := roomcode.ParseInput(m.input.Value())
		if err != nil {
			m.err = err
			return nil
		}
		m.input.Blur()
		m.err = nil
		return m.joinRoom(code)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleArenaKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "q" || key == "esc" {
		m.leaveArena()
		return nil
	}

	if m.player.Status() != game.StatusPlaying {
		return nil
	}

	dist := game.PlayerSpeed * moveStep
	turn := game.TurnSpeed * moveStep
	tr := m.player.Transform()

	switch key {
	case "w", "up":
		tr = game.Step(tr, dist, 0, 0)
	case "s", "down":
		tr = game.Step(tr, -dist, 0, 0)
	case "a":
		tr = game.Step(tr, 0, -dist, 0)
	case "d":
		tr = game.Step(tr, 0, dist, 0)
	case "left":
		tr = game.Step(tr, 0, 0, turn)
	case "right":
		tr = game.Step(tr, 0, 0, -turn)
	case " ":
		m.shoot()
		return nil
	case "r":
		m.player.Reload()
		m.notice = "Reloading..."
		return nil
	default:
		return nil
	}
	m.player.SetTransform(tr)
	return nil
}

func (m *Model) leaveArena() {
	if m.practice {
		m.practice = false
		m.player.SetStatus(game.StatusMenu)
		m.pub.SetMultiplayer(true)
		return
	}
	m.coord.Leave()
}

// shoot fires one egg along the facing direction and reports a hit on the nearest live egg.
func (m *Model) shoot() {
	if !m.player.Shoot() {
		m.notice = "Out of ammo, press r to reload"
		return
	}
	m.summary.Shots++
	m.notice = ""

	targets := make([]game.Target, 0, len(m.eggs))
	for _, e := range m.eggs {
		if !e.IsDead {
			targets = append(targets, game.Target{ID: e.ID, Position: e.Position})
		}
	}

	tr := m.player.Transform()
	id, ok := game.Aim(tr.Position, tr.Rotation.Yaw(), targets)
	if !ok {
		return
	}
	if err := m.coord.Publish(protocol.NewHit("", id, game.HitDamage)); err != nil {
		m.log.Debug("hit not sent", "target", id, "error", err)
		return
	}
	m.summary.Hits++

	if rec, ok := m.coord.Store().Peers.Get(id); ok && rec.IsDead {
		m.player.AddScore(game.KillScore)
		m.summary.Kills++
		m.notice = fmt.Sprintf("%s Cracked %s!", IconSkull, shortID(id))
	}
}

// Summary reports the run so far.
func (m *Model) Summary() Summary {
	s := m.summary
	if !m.started.IsZero() {
		s.Duration = time.Since(m.started)
	}
	snap := m.player.Snapshot()
	s.Score = snap.Score
	s.Health = snap.Health
	s.Moves = m.pub.Seq()
	if s.Role == "" {
		s.Role = session.RoleNone.String()
	}
	return s
}

func (m *Model) View() string {
	var body string
	switch {
	case m.inArena():
		body = m.arenaView()
	case m.state.Pending():
		body = fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), pendingLabel(m.state),
			FooterStyle.Render("[q] cancel"))
	case m.state == session.StateDisconnected:
		body = m.disconnectedView()
	default:
		body = m.menuView()
	}

	header := HeaderStyle.Render(IconEgg + " Egg Combat")
	return ContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}

func (m *Model) menuView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Main menu"))
	b.WriteString("\n")
	if m.input.Focused() {
		b.WriteString("Enter a room code or link:\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(FooterStyle.Render("[enter] join  [esc] back"))
	} else {
		b.WriteString("[h] Host a room\n[j] Join a room\n[p] Practice\n[q] Quit")
	}

	view := InfoBoxStyle.Render(b.String())
	if m.err != nil {
		view = lipgloss.JoinVertical(lipgloss.Left, view, FormatError(m.err))
	}
	return view
}

func (m *Model) disconnectedView() string {
	msg := "The session ended."
	if m.err != nil {
		msg = m.err.Error()
	}
	content := fmt.Sprintf("%s Disconnected\n\n%s\n\n%s",
		IconConnect, msg, MutedStyle.Render("[enter] back to menu  [q] quit"))
	return ErrorBoxStyle.Render(content)
}

func (m *Model) arenaView() string {
	snap := m.player.Snapshot()
	arena := renderArena(snap.Transform, m.eggs)

	side := []string{m.hudView(snap)}
	if m.role == session.RoleHost && !m.practice && m.code != "" {
		side = append(side, NewRoomInfo(m.code.String(), m.opts.RoomLink(m.code)).View())
	}
	if !m.practice {
		side = append(side, ScoreboardView(m.eggs))
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, arena, "  ", lipgloss.JoinVertical(lipgloss.Left, side...))

	var footer string
	switch {
	case snap.Status == game.StatusGameOver:
		footer = ErrorStyle.Render(IconSkull + " You cracked! [q] leave")
	case m.notice != "":
		footer = WarningStyle.Render(m.notice)
	default:
		footer = FooterStyle.Render("[wasd] move  [←/→] turn  [space] shoot  [r] reload  [q] leave")
	}
	return lipgloss.JoinVertical(lipgloss.Left, view, footer)
}

func (m *Model) hudView(snap game.Snapshot) string {
	state := m.state.String()
	if m.practice {
		state = "PRACTICE"
	}

	ammo := fmt.Sprintf("%d/%d", snap.Ammo, snap.MaxAmmo)
	if snap.IsReloading {
		ammo = "reloading"
	}

	rows := []struct{ label, value string }{
		{IconHeart + " Health", fmt.Sprintf("%d", snap.Health)},
		{IconAmmo + " Ammo", ammo},
		{IconScore + " Score", fmt.Sprintf("%d", snap.Score)},
		{IconPeer + " Peers", fmt.Sprintf("%d", len(m.eggs))},
	}

	lines := []string{StatusStyle.Render(state)}
	for _, r := range rows {
		lines = append(lines, HUDLabelStyle.Render(r.label+": ")+HUDValueStyle.Render(r.value))
	}
	return strings.Join(lines, "\n")
}

// renderArena draws a top-down grid: x grows right, z grows down.
func renderArena(self game.Transform, eggs []reconcile.Display) string {
	grid := make([][]string, gridRows)
	for r := range grid {
		row := make([]string, gridCols)
		for c := range row {
			row[c] = floorDot
		}
		grid[r] = row
	}

	for _, e := range eggs {
		c, r := cell(e.Position)
		if e.IsDead {
			grid[r][c] = DeadEggStyle.Render("x")
		} else {
			grid[r][c] = RemoteEggStyle.Render("o")
		}
	}
	c, r := cell(self.Position)
	grid[r][c] = LocalEggStyle.Render(facingGlyph(self.Rotation.Yaw()))

	lines := make([]string, gridRows)
	for i, row := range grid {
		lines[i] = strings.Join(row, "")
	}
	return ArenaStyle.Render(strings.Join(lines, "\n"))
}

// cell maps an arena position to a grid column and row.
func cell(p game.Vec3) (int, int) {
	half := game.MapSize / 2
	c := int((p[0] + half) / game.MapSize * gridCols)
	r := int((p[2] + half) / game.MapSize * gridRows)
	return min(max(c, 0), gridCols-1), min(max(r, 0), gridRows-1)
}

func facingGlyph(yaw float64) string {
	f := game.Forward(yaw)
	if math.Abs(f[0]) > math.Abs(f[2]) {
		if f[0] > 0 {
			return "▶"
		}
		return "◀"
	}
	if f[2] > 0 {
		return "▼"
	}
	return "▲"
}
