package room

import (
	"context"
	"fmt"
	"math"
	"time"

	"ahadchat/server/model"
	"ahadchat/server/store"
)

const (
	warningSizeKB  = 500
	criticalSizeKB = 1000
)

func (r *Room) adminAllowed(sess *Session) bool {
	return r.opts.AdminTools && sess.state == model.StateLoggedIn && sess.isAdmin
}

// requireAdmin checks that sess may use admin tools. Callers hold sess.mu.
func (r *Room) requireAdmin(sess *Session) error {
	if sess.state != model.StateLoggedIn {
		return ErrNotLoggedIn
	}
	if !r.adminAllowed(sess) {
		return ErrForbidden
	}
	return nil
}

// Stats loads the history and summarises it.
func (r *Room) Stats(ctx context.Context, sess *Session) (model.Stats, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if err := r.requireAdmin(sess); err != nil {
		return model.Stats{}, err
	}
	msgs, err := sess.store.Load(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return ComputeStats(msgs, r.users.IDs()), nil
}

// ClearAll needs two requests. The first arms the confirmation, the second
// empties the store.
func (r *Room) ClearAll(ctx context.Context, sess *Session) (model.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if err := r.requireAdmin(sess); err != nil {
		return r.render(ctx, sess), err
	}

	if !sess.confirmClear {
		sess.confirmClear = true
		view := r.render(ctx, sess)
		view.Notice = "Click again to confirm deletion of ALL messages"
		return view, nil
	}

	r.writeMu.Lock()
	err := store.Clear(ctx, sess.store)
	r.writeMu.Unlock()
	if err != nil {
		r.logger.Errorw("Failed to clear messages", "session", sess.ID, "error", err)
		view := r.render(ctx, sess)
		view.Error = "Error clearing messages"
		return view, err
	}

	sess.confirmClear = false
	r.logger.Infow("Messages cleared", "session", sess.ID, "user", sess.userID)
	view := r.render(ctx, sess)
	view.Notice = "All messages cleared!"
	return view, nil
}

// KeepLast deletes all but the newest n messages.
func (r *Room) KeepLast(ctx context.Context, sess *Session, n int) (model.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if err := r.requireAdmin(sess); err != nil {
		return r.render(ctx, sess), err
	}
	if n < r.opts.KeepMin || n > r.opts.KeepMax {
		view := r.render(ctx, sess)
		view.Error = fmt.Sprintf("Keep count must be between %d and %d", r.opts.KeepMin, r.opts.KeepMax)
		return view, ErrInvalidKeep
	}

	r.writeMu.Lock()
	deleted, err := store.KeepLast(ctx, sess.store, n)
	r.writeMu.Unlock()
	if err != nil {
		r.logger.Errorw("Failed to clean up messages", "session", sess.ID, "error", err)
		view := r.render(ctx, sess)
		view.Error = "Error cleaning up messages"
		return view, err
	}

	view := r.render(ctx, sess)
	if deleted == 0 {
		view.Notice = "No cleanup needed"
		return view, nil
	}
	r.logger.Infow("Old messages deleted", "session", sess.ID, "kept", n, "deleted", deleted)
	view.Notice = fmt.Sprintf("Kept last %d messages, deleted %d old messages", n, deleted)
	return view, nil
}

// Export returns the full history for download.
func (r *Room) Export(ctx context.Context, sess *Session) (model.Export, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()

	if err := r.requireAdmin(sess); err != nil {
		return model.Export{}, err
	}
	msgs, err := sess.store.Load(ctx)
	if err != nil {
		return model.Export{}, err
	}
	if len(msgs) == 0 {
		return model.Export{}, ErrNothingToExport
	}
	now := r.now()
	return model.Export{
		ExportDate:    now.Format(model.TimestampLayout),
		TotalMessages: len(msgs),
		Messages:      msgs,
		FileName:      ExportFileName(now),
	}, nil
}

// ExportFileName names an export taken at t.
func ExportFileName(t time.Time) string {
	return "ahadchat_history_" + t.Format("20060102_150405") + ".json"
}

// ComputeStats summarises msgs. Every id in users is listed in PerUser even
// with no messages.
func ComputeStats(msgs []model.Message, users []string) model.Stats {
	st := model.Stats{
		Total:   len(msgs),
		PerUser: make(map[string]int, len(users)),
		Level:   model.LevelOK,
	}
	for _, id := range users {
		st.PerUser[id] = 0
	}
	if len(msgs) == 0 {
		return st
	}
	for _, m := range msgs {
		st.PerUser[m.Username]++
	}

	if data, err := store.Encode(msgs); err == nil {
		st.SizeBytes = len(data)
	}
	st.SizeKB = math.Round(float64(st.SizeBytes)/1024*100) / 100
	st.FirstMessage = msgs[0].Timestamp
	st.LastMessage = msgs[len(msgs)-1].Timestamp

	switch {
	case st.SizeKB > criticalSizeKB:
		st.Level = model.LevelCritical
	case st.SizeKB > warningSizeKB:
		st.Level = model.LevelWarning
	}
	return st
}
