// Package ui is the terminal chat client.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ahadchat/client/api"
	"ahadchat/client/metrics"
	"ahadchat/server/model"
)

const requestTimeout = 30 * time.Second

// Backend is the server API the client drives.
type Backend interface {
	Login(ctx context.Context, userID, password string) (model.View, error)
	Logout(ctx context.Context) (model.View, error)
	Refresh(ctx context.Context) (model.View, error)
	Send(ctx context.Context, text string) (model.View, error)
	Clear(ctx context.Context) (model.View, error)
	Keep(ctx context.Context, n int) (model.View, error)
	Stats(ctx context.Context) (model.Stats, error)
	Export(ctx context.Context) ([]byte, string, error)
}

// LiveFeed is a connected view stream.
type LiveFeed interface {
	Run(ctx context.Context) error
	Frames() <-chan model.LiveFrame
	Send(action model.LiveAction) error
}

type screen int

const (
	screenLogin screen = iota
	screenChat
)

type (
	viewMsg struct {
		view model.View
		err  error
	}
	loginMsg struct {
		view model.View
		err  error
	}
	logoutMsg struct{ view model.View }
	frameMsg  struct{ frame model.LiveFrame }
	liveEnded struct {
		feed LiveFeed
		err  error
	}
	statsMsg struct {
		stats model.Stats
		err   error
	}
	exportMsg struct {
		path string
		err  error
	}
)

// Model is the bubbletea model for both screens.
type Model struct {
	backend   Backend
	newLive   func() LiveFeed
	collector *metrics.Collector

	screen    screen
	userInput textinput.Model
	passInput textinput.Model
	input     textinput.Model
	viewport  viewport.Model

	view    model.View
	notice  string
	errText string

	live       LiveFeed
	cancelLive context.CancelFunc

	width  int
	height int
}

// New builds the model. newLive may be nil to run without a live feed, in
// which case the client polls over HTTP.
func New(backend Backend, newLive func() LiveFeed, collector *metrics.Collector, userID string) Model {
	user := textinput.New()
	user.Placeholder = "user id"
	user.Prompt = "User:     "
	user.PromptStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	user.SetValue(userID)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Password: "
	pass.PromptStyle = user.PromptStyle
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	if userID == "" {
		user.Focus()
	} else {
		pass.Focus()
	}

	in := textinput.New()
	in.Placeholder = "Type your message... (/help for commands)"
	in.Prompt = "> "
	in.PromptStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	in.CharLimit = 2000

	if collector == nil {
		collector = metrics.NewCollector(nil)
	}

	return Model{
		backend:   backend,
		newLive:   newLive,
		collector: collector,
		screen:    screenLogin,
		userInput: user,
		passInput: pass,
		input:     in,
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
}

// NewForClient wires a model to the HTTP client and its live feed.
func NewForClient(c *api.Client, collector *metrics.Collector, userID string) Model {
	return New(c, func() LiveFeed { return c.Live(collector) }, collector, userID)
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopLive()
			return m, tea.Quit
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)

	case loginMsg:
		if msg.err != nil {
			m.errText = loginError(msg.view, msg.err)
			m.passInput.SetValue("")
			return m, nil
		}
		m.screen = screenChat
		m.errText = ""
		m.passInput.SetValue("")
		m.passInput.Blur()
		m.input.Focus()
		m.setView(msg.view)
		live := m.startLive()
		return m, tea.Batch(live, m.pollTick())

	case logoutMsg:
		m.stopLive()
		m.screen = screenLogin
		m.view = msg.view
		m.notice = msg.view.Notice
		m.errText = ""
		m.input.Blur()
		m.input.SetValue("")
		m.passInput.Focus()
		return m, nil

	case viewMsg:
		if msg.view.State != "" {
			m.setView(msg.view)
		}
		if msg.err != nil && msg.view.Error == "" {
			m.errText = msg.err.Error()
		}
		return m.afterView()

	case frameMsg:
		m.setView(msg.frame.View)
		return m.afterViewWith(m.waitFrame())

	case liveEnded:
		if msg.feed != m.live {
			return m, nil
		}
		m.live = nil
		m.cancelLive = nil
		if m.screen != screenChat {
			return m, nil
		}
		if !errors.Is(msg.err, api.ErrSessionEnded) {
			m.notice = "Live feed lost, polling instead"
		}
		return m, m.pollTick()

	case pollMsg:
		if m.screen != screenChat || m.live != nil {
			return m, nil
		}
		return m, tea.Batch(m.call(func(ctx context.Context) (model.View, error) {
			return m.backend.Refresh(ctx)
		}), m.pollTick())

	case statsMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.notice = formatStats(msg.stats)
		return m, nil

	case exportMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.notice = "Exported to " + msg.path
		return m, nil
	}

	return m, nil
}

// afterView sends a logged-out view back to the login screen.
func (m Model) afterView() (tea.Model, tea.Cmd) {
	return m.afterViewWith(nil)
}

func (m Model) afterViewWith(next tea.Cmd) (tea.Model, tea.Cmd) {
	if m.screen == screenChat && m.view.State == model.StateLoggedOut {
		m.stopLive()
		m.screen = screenLogin
		m.errText = "Session ended, please log in again"
		m.input.Blur()
		m.passInput.Focus()
		return m, nil
	}
	return m, next
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.toggleLoginFocus()
		return m, nil
	case tea.KeyEnter:
		if m.userInput.Focused() && m.passInput.Value() == "" {
			m.toggleLoginFocus()
			return m, nil
		}
		id, pw := strings.TrimSpace(m.userInput.Value()), m.passInput.Value()
		m.notice = ""
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			v, err := m.backend.Login(ctx, id, pw)
			return loginMsg{view: v, err: err}
		}
	}

	var cmd tea.Cmd
	if m.userInput.Focused() {
		m.userInput, cmd = m.userInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleLoginFocus() {
	if m.userInput.Focused() {
		m.userInput.Blur()
		m.passInput.Focus()
		return
	}
	m.passInput.Blur()
	m.userInput.Focus()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlR:
		m.notice, m.errText = "", ""
		return m, m.refresh()
	case tea.KeyCtrlL:
		m.stopLive()
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			v, _ := m.backend.Logout(ctx)
			return logoutMsg{view: v}
		}
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyEnter:
		line := m.input.Value()
		m.input.SetValue("")
		if strings.TrimSpace(line) == "" {
			return m, nil
		}
		m.notice, m.errText = "", ""
		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			return m.runCommand(line)
		}
		return m, m.send(line)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	cmd, err := parseCommand(line)
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}
	if cmd.name == "help" {
		m.notice = helpText
		return m, nil
	}
	if m.view.Admin == nil {
		m.errText = "Admin tools are not available"
		return m, nil
	}

	backend := m.backend
	switch cmd.name {
	case "stats":
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			st, err := backend.Stats(ctx)
			return statsMsg{stats: st, err: err}
		}
	case "clear":
		return m, m.call(func(ctx context.Context) (model.View, error) {
			return backend.Clear(ctx)
		})
	case "keep":
		return m, m.call(func(ctx context.Context) (model.View, error) {
			return backend.Keep(ctx, cmd.keep)
		})
	case "export":
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			data, name, err := backend.Export(ctx)
			if err != nil {
				return exportMsg{err: err}
			}
			path := cmd.path
			if path == "" {
				path = name
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return exportMsg{err: fmt.Errorf("write export: %w", err)}
			}
			return exportMsg{path: path}
		}
	}
	return m, nil
}

// send goes over the live feed when connected, otherwise over HTTP.
func (m Model) send(text string) tea.Cmd {
	if m.live != nil {
		if err := m.live.Send(model.LiveAction{Action: model.ActionSend, Message: text}); err == nil {
			return nil
		}
	}
	backend := m.backend
	return m.call(func(ctx context.Context) (model.View, error) {
		return backend.Send(ctx, text)
	})
}

func (m Model) refresh() tea.Cmd {
	if m.live != nil {
		if err := m.live.Send(model.LiveAction{Action: model.ActionRefresh}); err == nil {
			return nil
		}
	}
	backend := m.backend
	return m.call(func(ctx context.Context) (model.View, error) {
		return backend.Refresh(ctx)
	})
}

func (m Model) call(fn func(ctx context.Context) (model.View, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		v, err := fn(ctx)
		return viewMsg{view: v, err: err}
	}
}

type pollMsg struct{}

// pollTick drives HTTP polling while no live feed is connected.
func (m Model) pollTick() tea.Cmd {
	interval := time.Duration(m.view.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *Model) startLive() tea.Cmd {
	if m.newLive == nil {
		return nil
	}
	live := m.newLive()
	if live == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.live = live
	m.cancelLive = cancel
	return tea.Batch(
		func() tea.Msg { return liveEnded{feed: live, err: live.Run(ctx)} },
		m.waitFrame(),
	)
}

func (m *Model) stopLive() {
	if m.cancelLive != nil {
		m.cancelLive()
	}
	m.live = nil
	m.cancelLive = nil
}

func (m Model) waitFrame() tea.Cmd {
	if m.live == nil {
		return nil
	}
	frames := m.live.Frames()
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return nil
		}
		return frameMsg{frame: f}
	}
}

func (m *Model) setView(v model.View) {
	m.view = v
	if v.Notice != "" {
		m.notice = v.Notice
	}
	m.errText = v.Error
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderMessages(v.Messages, m.viewport.Width))
	if atBottom || m.viewport.YOffset == 0 {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize() {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 4
	m.viewport.SetContent(renderMessages(m.view.Messages, w))
}

func loginError(v model.View, err error) string {
	if v.Error != "" {
		return v.Error
	}
	return err.Error()
}

func (m Model) View() string {
	if m.screen == screenLogin {
		return m.loginView()
	}
	return m.chatView()
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("💬 Ahad Chat"))
	b.WriteString("\n\n")
	b.WriteString(m.userInput.View())
	b.WriteString("\n")
	b.WriteString(m.passInput.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	b.WriteString("\n" + statusStyle.Render("tab switch field · enter log in · ctrl+c quit"))
	return boxStyle.Render(b.String())
}

func (m Model) chatView() string {
	title := "💬 Ahad Chat"
	if m.view.User != nil {
		title += " · " + m.view.User.DisplayName
		if m.view.User.IsAdmin {
			title += adminBadge
		}
	}

	live := ""
	if m.live != nil {
		live = m.collector.Summary()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(renderStatus(m.view, live)))
	b.WriteString("\n")
	switch {
	case m.errText != "":
		b.WriteString(errorStyle.Render(m.errText))
	case m.view.Admin != nil && m.view.Admin.ConfirmClearPending:
		b.WriteString(warnStyle.Render("Run /clear again to delete ALL messages"))
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}
