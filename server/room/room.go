// Package room runs the two-user chat: per-session login state, the
// reload-on-every-action view cycle, admin maintenance and idle polling.
package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"ahadchat/server/auth"
	"ahadchat/server/model"
	"ahadchat/server/store"
)

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrForbidden       = errors.New("admin tools are not available")
	ErrMessageTooLong  = errors.New("message too long")
	ErrInvalidKeep     = errors.New("invalid keep count")
	ErrNothingToExport = errors.New("no messages to export")
)

const loadErrorText = "Error loading messages"

type Options struct {
	DisplayLimit     int
	MaxMessageLength int
	PollInterval     time.Duration
	// AdminTools enables clear, keep-last, export and stats for admins.
	AdminTools bool
	KeepMin    int
	KeepMax    int
	Now        func() time.Time
}

// Room is the single chat shared by both users.
type Room struct {
	users   *auth.Directory
	backend store.Selection
	opts    Options
	logger  *zap.SugaredLogger

	// writeMu serialises read-modify-write cycles on the store.
	writeMu sync.Mutex
}

func New(users *auth.Directory, backend store.Selection, opts Options, logger *zap.SugaredLogger) *Room {
	if opts.DisplayLimit <= 0 {
		opts.DisplayLimit = 50
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = backend.Variant.PollInterval()
	}
	if opts.KeepMin <= 0 {
		opts.KeepMin = 10
	}
	if opts.KeepMax <= 0 {
		opts.KeepMax = 1000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Room{users: users, backend: backend, opts: opts, logger: logger}
}

func (r *Room) PollInterval() time.Duration {
	return r.opts.PollInterval
}

// Backend names the store in use and its variant.
func (r *Room) Backend() (string, store.Variant) {
	return r.backend.Name, r.backend.Variant
}

func (r *Room) now() time.Time {
	return r.opts.Now()
}

// NewSession creates a logged-out session bound to the backend's store.
func (r *Room) NewSession(id string) *Session {
	return newSession(id, r.backend.ForSession(), r.now())
}

// View returns the current screen for sess, reloading messages if logged in.
func (r *Room) View(ctx context.Context, sess *Session) model.View {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return r.render(ctx, sess)
}

// Login authenticates and moves the session to logged in.
func (r *Room) Login(ctx context.Context, sess *Session, userID, password string) (model.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	u, err := r.users.Authenticate(userID, password)
	if err != nil {
		view := r.render(ctx, sess)
		if errors.Is(err, auth.ErrMissingCredentials) {
			view.Error = "Please select a user and enter password!"
		} else {
			view.Error = "Invalid credentials!"
		}
		return view, err
	}

	sess.clear()
	sess.state = model.StateLoggedIn
	sess.userID = u.ID
	sess.displayName = u.DisplayName
	sess.isAdmin = u.IsAdmin
	r.logger.Infow("User logged in", "session", sess.ID, "user", u.ID)

	return r.render(ctx, sess), nil
}

// Logout clears the identity; the session and its store remain.
func (r *Room) Logout(ctx context.Context, sess *Session) model.View {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if sess.state == model.StateLoggedIn {
		r.logger.Infow("User logged out", "session", sess.ID, "user", sess.userID)
	}
	sess.clear()

	view := r.render(ctx, sess)
	view.Notice = "Logged out"
	return view
}

// Send appends one message from the session user and reloads. Blank text is
// ignored.
func (r *Room) Send(ctx context.Context, sess *Session, text string) (model.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if sess.state != model.StateLoggedIn {
		return r.render(ctx, sess), ErrNotLoggedIn
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return r.render(ctx, sess), nil
	}
	if n := utf8.RuneCountInString(text); n > r.opts.MaxMessageLength && r.opts.MaxMessageLength > 0 {
		view := r.render(ctx, sess)
		view.Error = fmt.Sprintf("Message is too long (%d characters, limit %d)", n, r.opts.MaxMessageLength)
		return view, ErrMessageTooLong
	}

	r.writeMu.Lock()
	_, err := store.Append(ctx, sess.store, sess.userID, text, r.now())
	r.writeMu.Unlock()

	view := r.render(ctx, sess)
	if err != nil {
		r.logger.Errorw("Failed to store message", "session", sess.ID, "user", sess.userID, "error", err)
		view.Error = "Error saving message"
		return view, err
	}
	return view, nil
}

// Refresh reloads on explicit request.
func (r *Room) Refresh(ctx context.Context, sess *Session) (model.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if sess.state != model.StateLoggedIn {
		return r.render(ctx, sess), ErrNotLoggedIn
	}
	return r.render(ctx, sess), nil
}

// Timeout reloads only when more than the poll interval has passed since the
// last reload. The bool reports whether a reload happened.
func (r *Room) Timeout(ctx context.Context, sess *Session) (model.View, bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != model.StateLoggedIn {
		return model.View{}, false, ErrNotLoggedIn
	}
	if r.now().Sub(sess.lastRefresh) <= r.opts.PollInterval {
		return model.View{}, false, nil
	}
	return r.render(ctx, sess), true, nil
}

// render builds a view for sess. Callers hold sess.mu.
func (r *Room) render(ctx context.Context, sess *Session) model.View {
	now := r.now()
	view := model.View{
		State:          sess.state,
		User:           sess.profile(),
		Messages:       []model.Entry{},
		PollIntervalMs: r.opts.PollInterval.Milliseconds(),
	}
	if sess.state != model.StateLoggedIn {
		return view
	}

	msgs, err := sess.store.Load(ctx)
	sess.lastRefresh = now
	view.RefreshedAt = now.Format(model.TimestampLayout)
	if err != nil {
		r.logger.Warnw("Failed to load messages", "session", sess.ID, "error", err)
		view.StoreUnavailable = true
		view.Error = loadErrorText
		msgs = nil
	}

	shown := model.Last(msgs, r.opts.DisplayLimit)
	view.Total = len(msgs)
	view.Shown = len(shown)
	view.Messages = make([]model.Entry, 0, len(shown))
	for _, m := range shown {
		view.Messages = append(view.Messages, r.entry(m, sess.userID))
	}

	if r.adminAllowed(sess) {
		view.Admin = &model.AdminPanel{
			Stats:               ComputeStats(msgs, r.users.IDs()),
			ConfirmClearPending: sess.confirmClear,
			KeepMin:             r.opts.KeepMin,
			KeepMax:             r.opts.KeepMax,
		}
	}
	return view
}

func (r *Room) entry(m model.Message, currentUser string) model.Entry {
	e := model.Entry{
		Username:    m.Username,
		DisplayName: m.Username,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
		Own:         m.Username == currentUser,
	}
	if u, ok := r.users.Lookup(m.Username); ok {
		e.DisplayName = u.DisplayName
		e.Admin = u.IsAdmin
	}
	return e
}
