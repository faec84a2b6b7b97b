package room

import (
	"context"
	"errors"
	"time"

	"ahadchat/server/model"
)

// pollSlack pushes the wake-up just past the interval boundary.
const pollSlack = 10 * time.Millisecond

// Poll reloads sess each time it has been idle for a full poll interval and
// hands the view to push. It returns when ctx is done, when the session logs
// out, or when push fails.
func (r *Room) Poll(ctx context.Context, sess *Session, push func(model.View) error) error {
	timer := time.NewTimer(r.untilTimeout(sess))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		view, fired, err := r.Timeout(ctx, sess)
		if errors.Is(err, ErrNotLoggedIn) {
			return err
		}
		if fired {
			if err := push(view); err != nil {
				return err
			}
		}
		timer.Reset(r.untilTimeout(sess))
	}
}

func (r *Room) untilTimeout(sess *Session) time.Duration {
	wait := r.opts.PollInterval - r.now().Sub(sess.LastRefresh()) + pollSlack
	if wait < pollSlack {
		wait = pollSlack
	}
	return wait
}
