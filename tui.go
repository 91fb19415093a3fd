package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tomaslejdung/pairdesk/pkg/present"
	"github.com/tomaslejdung/pairdesk/pkg/relay"
)

// sessionView is the single active screen of the lifecycle controller
type sessionView int

const (
	viewDashboard sessionView = iota
	viewSourceSelect
	viewWaiting
	viewEnterCode
	viewActive
)

// wheelDelta approximates one wheel notch in surface units
const wheelDelta = 100

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 2)
)

func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	default:
		if _, err := exec.LookPath("wl-copy"); err == nil {
			cmd = exec.Command("wl-copy")
		} else {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		}
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Messages

type relayConnectedMsg struct {
	conn *relay.Conn
}

type relayFailedMsg struct {
	err error
}

type sourcesMsg struct {
	sources []Source
	err     error
}

type sessionEventMsg SessionEvent

type copiedMsg struct{}

// Model

type model struct {
	config   Config
	settings UserSettings

	view sessionView
	role Role

	status    string
	lastError string
	notice    string

	// Source selection
	sources      []Source
	sourceCursor int

	// Code entry
	codeInput string

	// Active session
	roomCode    string
	connectedAt time.Time
	mediaWidth  int
	mediaHeight int

	// Components
	relayConn  *relay.Conn
	machine    *Machine
	session    *Session
	controller *InputController
	capture    CaptureService
	present    present.Controller

	copyMessage string

	// Terminal dimensions
	width  int
	height int
}

func initialModel(config Config) model {
	settings := DefaultSettings()
	if sm, err := NewSettingsManager(); err == nil {
		settings, _ = sm.Load()
	}
	if settings.RelayURL != "" && config.RelayURL == DefaultRelayServer {
		config.RelayURL = settings.RelayURL
	}

	return model{
		config:   config,
		settings: settings,
		view:     viewDashboard,
		status:   "Connecting to relay...",
		capture:  NewCaptureService(),
		present:  present.NewController(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		connectRelay(m.config.RelayURL),
		tea.SetWindowTitle("PairDesk - Remote Control"),
	)
}

func connectRelay(url string) tea.Cmd {
	return func() tea.Msg {
		conn, err := relay.Dial(url)
		if err != nil {
			return relayFailedMsg{err: err}
		}
		return relayConnectedMsg{conn: conn}
	}
}

func listSources(capture CaptureService) tea.Cmd {
	return func() tea.Msg {
		sources, err := capture.ListSources()
		return sourcesMsg{sources: sources, err: err}
	}
}

// waitForEvent re-arms after every delivered session event
func waitForEvent(events <-chan SessionEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg(ev)
	}
}

func clearCopyMessage() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return copiedMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.controller != nil {
			m.controller.SetViewport(ViewportBounds{
				Width:  float64(msg.Width),
				Height: float64(msg.Height),
			})
		}
		return m, nil

	case tea.BlurMsg:
		// Release modifiers so the host is never left with a stuck key
		if m.view == viewActive && m.role == RoleClient && m.controller != nil {
			m.controller.FocusLost()
		}
		return m, nil

	case relayConnectedMsg:
		m.relayConn = msg.conn
		m.status = "Connected to relay"
		return m, nil

	case relayFailedMsg:
		m.status = "Relay unreachable"
		m.lastError = fmt.Sprintf("Could not reach %s: %v", m.config.RelayURL, msg.err)
		return m, nil

	case sourcesMsg:
		if msg.err != nil {
			m.lastError = fmt.Sprintf("Could not list sources: %v", msg.err)
			return m, nil
		}
		m.sources = msg.sources
		m.sourceCursor = 0
		m.view = viewSourceSelect
		return m, nil

	case sessionEventMsg:
		return m.handleSessionEvent(SessionEvent(msg))

	case copiedMsg:
		m.copyMessage = ""
		return m, nil
	}

	return m, nil
}

func (m model) handleSessionEvent(ev SessionEvent) (tea.Model, tea.Cmd) {
	// A still-armed event wait can deliver after teardown dropped the
	// machine; the leftover event is stale, not fatal.
	if m.machine == nil {
		return m, nil
	}
	rearm := waitForEvent(m.machine.Events())

	switch ev.Kind {
	case EventConnected:
		if m.view != viewWaiting && m.view != viewEnterCode {
			return m, rearm
		}
		m.view = viewActive
		m.connectedAt = time.Now()
		m.lastError = ""
		m.status = "Session active"
		if m.role == RoleHost {
			m.present.PresentAs(present.ModeCompactOverlay)
		} else {
			m.present.PresentAs(present.ModeFullscreen)
			m.ensureController()
		}
		return m, rearm

	case EventStreamInfo:
		m.mediaWidth = ev.Width
		m.mediaHeight = ev.Height
		if m.controller != nil {
			m.controller.SetMediaSize(ev.Width, ev.Height)
		}
		return m, rearm

	case EventPeerDisconnected:
		m.notice = "The other side disconnected"
		m.teardown()
		return m, nil

	case EventError:
		m.lastError = ev.Err
		return m, rearm

	case EventRelayClosed:
		m.lastError = "Relay connection lost"
		m.relayConn = nil
		m.teardown()
		return m, nil
	}

	return m, rearm
}

// ensureController wires the client input pipeline to the control
// channel once the remote side has opened it.
func (m *model) ensureController() {
	if m.controller != nil || m.session == nil {
		return
	}
	channel := m.session.Channel()
	if channel == nil {
		return
	}
	interval := time.Duration(m.settings.SampleIntervalMS) * time.Millisecond
	m.controller = NewInputController(channel, interval)
	m.controller.SetViewport(ViewportBounds{
		Width:  float64(m.width),
		Height: float64(m.height),
	})
	if m.mediaWidth > 0 && m.mediaHeight > 0 {
		m.controller.SetMediaSize(m.mediaWidth, m.mediaHeight)
	}
	m.session.setSampler(m.controller.sampler)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// The active client view forwards keys to the host, so global
	// shortcuts are restricted there.
	if m.view == viewActive && m.role == RoleClient {
		return m.handleActiveClientKey(msg)
	}

	switch key {
	case "ctrl+c", "q":
		m.teardownAndLeave()
		return m, tea.Quit
	}

	switch m.view {
	case viewDashboard:
		return m.handleDashboardKey(key)
	case viewSourceSelect:
		return m.handleSourceSelectKey(key)
	case viewWaiting:
		return m.handleWaitingKey(key)
	case viewEnterCode:
		return m.handleEnterCodeKey(msg)
	case viewActive: // host side
		switch key {
		case "s", "esc":
			m.stopSession()
			return m, nil
		}
	}

	return m, nil
}

func (m model) handleDashboardKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "s":
		if m.relayConn == nil {
			m.lastError = "Not connected to the relay yet"
			return m, nil
		}
		m.notice = ""
		m.lastError = ""
		return m, listSources(m.capture)
	case "c":
		if m.relayConn == nil {
			m.lastError = "Not connected to the relay yet"
			return m, nil
		}
		m.notice = ""
		m.lastError = ""
		m.role = RoleClient
		m.codeInput = ""
		m.view = viewEnterCode
		return m, nil
	}
	return m, nil
}

func (m model) handleSourceSelectKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.view = viewDashboard
		return m, nil
	case "up", "k":
		if m.sourceCursor > 0 {
			m.sourceCursor--
		}
		return m, nil
	case "down", "j":
		if m.sourceCursor < len(m.sources)-1 {
			m.sourceCursor++
		}
		return m, nil
	case "enter":
		if len(m.sources) == 0 {
			return m, nil
		}
		return m.startHosting(m.sources[m.sourceCursor])
	}
	return m, nil
}

func (m model) handleWaitingKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "s":
		m.stopSession()
		return m, nil
	case "c":
		if err := copyToClipboard(m.roomCode); err == nil {
			m.copyMessage = "Copied!"
			return m, clearCopyMessage()
		}
	}
	return m, nil
}

func (m model) handleEnterCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewDashboard
		m.role = RoleNone
		m.codeInput = ""
		m.lastError = ""
		return m, nil
	case "backspace":
		if len(m.codeInput) > 0 {
			m.codeInput = m.codeInput[:len(m.codeInput)-1]
		}
		return m, nil
	case "enter":
		return m.submitCode()
	}

	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if r >= '0' && r <= '9' && len(m.codeInput) < 6 {
				m.codeInput += string(r)
			}
		}
	}
	return m, nil
}

// submitCode validates the connection code and joins the room. A code
// that is not exactly 6 digits is rejected with a message and no state
// transition.
func (m model) submitCode() (tea.Model, tea.Cmd) {
	code := NormalizeRoomCode(m.codeInput)
	if !ValidateRoomCode(code) {
		m.lastError = "Connection code must be exactly 6 digits"
		return m, nil
	}

	m.lastError = ""
	m.session = NewSession()
	m.machine = NewMachine(m.session, m.relayConn, iceConfigFromFlags(m.config))

	if err := m.machine.StartJoining(code, nil); err != nil {
		m.lastError = fmt.Sprintf("Could not join: %v", err)
		m.session.Teardown()
		m.machine = nil
		m.session = nil
		return m, nil
	}

	m.roomCode = code
	m.role = RoleClient
	m.status = "Waiting for the host's offer..."
	go m.machine.Run(m.relayConn.Messages())
	return m, waitForEvent(m.machine.Events())
}

// startHosting runs the source-chosen side effects: room code, media
// acquisition, peer connection + control channel, room join.
func (m model) startHosting(source Source) (tea.Model, tea.Cmd) {
	media, err := m.capture.AcquireMedia(source.ID)
	if err != nil {
		m.lastError = fmt.Sprintf("Could not acquire media: %v", err)
		return m, nil
	}

	code := GenerateRoomCode()
	m.session = NewSession()
	m.machine = NewMachine(m.session, m.relayConn, iceConfigFromFlags(m.config))

	dispatcher := m.newDispatcher()
	if err := m.machine.StartHosting(code, media, dispatcher.Dispatch); err != nil {
		m.lastError = fmt.Sprintf("Could not start sharing: %v", err)
		media.Stop()
		m.session.Teardown()
		m.machine = nil
		m.session = nil
		return m, nil
	}

	m.roomCode = code
	m.role = RoleHost
	m.view = viewWaiting
	m.status = "Waiting for connection..."
	go m.machine.Run(m.relayConn.Messages())
	return m, waitForEvent(m.machine.Events())
}

func (m *model) newDispatcher() *Dispatcher {
	width, height, ok := primaryDisplayBounds()
	if !ok {
		width, height = 1920, 1080
	}
	return NewDispatcher(NewInjector(), width, height,
		m.settings.DisplayScale, m.settings.ScrollDivisor)
}

func (m model) handleActiveClientKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+q" {
		m.stopSession()
		return m, nil
	}

	m.ensureController()
	if m.controller == nil {
		return m, nil
	}
	if name, ok := surfaceKeyName(msg); ok {
		m.controller.KeyDown(name)
		m.controller.KeyUp(name)
	}
	return m, nil
}

// surfaceKeyName maps a terminal key event to the surface-reported key
// names the host dispatcher understands.
func surfaceKeyName(msg tea.KeyMsg) (string, bool) {
	switch msg.String() {
	case "enter":
		return "Enter", true
	case "backspace":
		return "Backspace", true
	case "tab":
		return "Tab", true
	case "esc":
		return "Escape", true
	case "up":
		return "ArrowUp", true
	case "down":
		return "ArrowDown", true
	case "left":
		return "ArrowLeft", true
	case "right":
		return "ArrowRight", true
	case "home":
		return "Home", true
	case "end":
		return "End", true
	case "pgup":
		return "PageUp", true
	case "pgdown":
		return "PageDown", true
	case "delete":
		return "Delete", true
	case " ", "space":
		return " ", true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		return string(msg.Runes), true
	}
	return "", false
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.view != viewActive || m.role != RoleClient {
		return m, nil
	}
	m.ensureController()
	if m.controller == nil {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		m.controller.MouseMoved(float64(msg.X), float64(msg.Y))
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.controller.MouseDown(ButtonLeft)
		case tea.MouseButtonRight:
			m.controller.MouseDown(ButtonRight)
		case tea.MouseButtonWheelUp:
			m.controller.Wheel(0, -wheelDelta)
		case tea.MouseButtonWheelDown:
			m.controller.Wheel(0, wheelDelta)
		case tea.MouseButtonWheelLeft:
			m.controller.Wheel(-wheelDelta, 0)
		case tea.MouseButtonWheelRight:
			m.controller.Wheel(wheelDelta, 0)
		}
	case tea.MouseActionRelease:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.controller.MouseUp(ButtonLeft)
		case tea.MouseButtonRight:
			m.controller.MouseUp(ButtonRight)
		}
	}
	return m, nil
}

// stopSession leaves the room and tears everything down to the dashboard
func (m *model) stopSession() {
	if m.machine != nil {
		m.machine.LeaveRoom()
	}
	m.teardown()
}

// teardown releases all session resources and returns to the dashboard.
// Safe to call when nothing is running.
func (m *model) teardown() {
	if m.machine != nil {
		m.machine.Stop()
		m.machine = nil
	}
	if m.controller != nil {
		m.controller.Close()
		m.controller = nil
	}
	if m.session != nil {
		m.session.Teardown()
		m.session = nil
	}
	m.present.PresentAs(present.ModeDefault)

	m.role = RoleNone
	m.roomCode = ""
	m.codeInput = ""
	m.sources = nil
	m.mediaWidth = 0
	m.mediaHeight = 0
	m.view = viewDashboard
	if m.relayConn != nil {
		m.status = "Connected to relay"
	} else {
		m.status = "Idle"
	}
}

func (m *model) teardownAndLeave() {
	m.stopSession()
	if m.relayConn != nil {
		m.relayConn.Close()
	}
}

// View

func (m model) View() string {
	var b strings.Builder

	if m.view != viewActive {
		b.WriteString(titleStyle.Render("PairDesk"))
		b.WriteString("  ")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n\n")
	}

	switch m.view {
	case viewDashboard:
		b.WriteString(m.renderDashboard())
	case viewSourceSelect:
		b.WriteString(m.renderSourceSelect())
	case viewWaiting:
		b.WriteString(m.renderWaiting())
	case viewEnterCode:
		b.WriteString(m.renderEnterCode())
	case viewActive:
		b.WriteString(m.renderActive())
	}

	if m.notice != "" {
		b.WriteString("\n" + statusStyle.Render(m.notice))
	}
	if m.lastError != "" {
		b.WriteString("\n" + errorStyle.Render(m.lastError))
	}

	return b.String()
}

func (m model) renderDashboard() string {
	share := boxStyle.Render(selectedStyle.Render("s") + normalStyle.Render("  Share Screen\n") +
		dimStyle.Render("Let a partner control this machine"))
	control := boxStyle.Render(selectedStyle.Render("c") + normalStyle.Render("  Remote Control\n") +
		dimStyle.Render("Control a partner's machine"))

	cards := lipgloss.JoinHorizontal(lipgloss.Top, share, " ", control)
	return cards + "\n\n" + helpStyle.Render("s share · c control · q quit")
}

func (m model) renderSourceSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select Source") + "\n\n")

	if len(m.sources) == 0 {
		b.WriteString(dimStyle.Render("No sources found"))
	}
	for i, source := range m.sources {
		cursor := "  "
		style := normalStyle
		if i == m.sourceCursor {
			cursor = "> "
			style = selectedStyle
		}
		b.WriteString(cursor + style.Render(source.DisplayName) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ navigate · enter share · esc back"))
	return b.String()
}

func (m model) renderWaiting() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your Connection Code") + "\n\n")
	b.WriteString(boxStyle.Render(codeStyle.Render(m.roomCode)) + "\n")
	if m.copyMessage != "" {
		b.WriteString(selectedStyle.Render(m.copyMessage) + "\n")
	}
	b.WriteString(dimStyle.Render("Share this code with your partner.") + "\n")
	b.WriteString(statusStyle.Render("Waiting for connection...") + "\n\n")
	b.WriteString(helpStyle.Render("c copy code · esc cancel"))
	return b.String()
}

func (m model) renderEnterCode() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Enter Connection Code") + "\n\n")

	display := m.codeInput + strings.Repeat("·", 6-len(m.codeInput))
	b.WriteString(boxStyle.Render(codeStyle.Render(display)) + "\n\n")
	b.WriteString(helpStyle.Render("0-9 type · enter connect · esc back"))
	return b.String()
}

func (m model) renderActive() string {
	var b strings.Builder
	uptime := time.Since(m.connectedAt).Round(time.Second)

	if m.role == RoleHost {
		b.WriteString(selectedStyle.Render("● Sharing") + dimStyle.Render(fmt.Sprintf("  %s", uptime)) + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Room %s", m.roomCode)) + "\n\n")
		b.WriteString(helpStyle.Render("s stop sharing"))
	} else {
		b.WriteString(selectedStyle.Render("● Controlling") + dimStyle.Render(fmt.Sprintf("  %s", uptime)) + "\n")
		if m.mediaWidth > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("Remote screen %dx%d", m.mediaWidth, m.mediaHeight)) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("mouse and keys are forwarded · ctrl+q end session"))
	}
	return b.String()
}

// RunTUI starts the interactive application
func RunTUI(config Config) error {
	p := tea.NewProgram(
		initialModel(config),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
