package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ahadchat/server/model"
	"ahadchat/server/room"
)

const liveWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveConn serialises writes from the read loop and the poller.
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveConn) send(kind string, view model.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return c.conn.WriteJSON(model.LiveFrame{
		Kind:            kind,
		View:            view,
		ServerTimestamp: time.Now(),
	})
}

func (c *liveConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	c.conn.Close()
}

// HandleLive upgrades a logged-in session to a live feed. The server pushes
// a poll frame whenever the session has been idle for a poll interval and
// answers each client action with a reply frame.
func HandleLive(rm *room.Room, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if sess.State() != model.StateLoggedIn {
			writeError(w, room.ErrNotLoggedIn)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnw("Upgrade error", "error", err)
			return
		}
		lc := &liveConn{conn: conn}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go func() {
			err := rm.Poll(ctx, sess, func(v model.View) error {
				return lc.send(model.FramePoll, v)
			})
			logger.Debugw("Live poller stopped", "session", sess.ID, "reason", err)
			lc.close(websocket.CloseNormalClosure, "session ended")
		}()

		// The first frame gives the client something to draw immediately.
		view, _ := rm.Refresh(ctx, sess)
		if err := lc.send(model.FrameReply, view); err != nil {
			return
		}

		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Infow("Read error", "session", sess.ID, "error", err)
				}
				return
			}

			view := handleAction(ctx, rm, sess, p)
			if err := lc.send(model.FrameReply, view); err != nil {
				logger.Infow("Write error", "session", sess.ID, "error", err)
				return
			}
		}
	}
}

func handleAction(ctx context.Context, rm *room.Room, sess *room.Session, p []byte) model.View {
	var action model.LiveAction
	if err := json.Unmarshal(p, &action); err != nil {
		view := rm.View(ctx, sess)
		view.Error = "Invalid JSON format"
		return view
	}

	switch action.Action {
	case model.ActionSend:
		view, _ := rm.Send(ctx, sess, action.Message)
		return view
	case model.ActionRefresh:
		view, _ := rm.Refresh(ctx, sess)
		return view
	}

	view := rm.View(ctx, sess)
	view.Error = "invalid action"
	return view
}
