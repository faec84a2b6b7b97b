package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ahadchat/client/metrics"
	"ahadchat/server/model"
)

var (
	// ErrSessionEnded means the server closed the feed or refused it because
	// the session is no longer logged in. Reconnecting will not help.
	ErrSessionEnded = errors.New("live session ended")

	ErrNotConnected = errors.New("live feed not connected")
)

// Live is a reconnecting websocket feed of views.
type Live struct {
	client    *Client
	collector *metrics.Collector
	frames    chan model.LiveFrame

	MaxRetries int
	BaseDelay  time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// Live prepares a feed for the logged-in session of c.
func (c *Client) Live(collector *metrics.Collector) *Live {
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}
	return &Live{
		client:     c,
		collector:  collector,
		frames:     make(chan model.LiveFrame, 16),
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
	}
}

// Frames delivers every frame received. It is closed when Run returns.
func (l *Live) Frames() <-chan model.LiveFrame {
	return l.frames
}

func (l *Live) liveURL() string {
	u := *l.client.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/api/live"
	return u.String()
}

func (l *Live) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	for _, ck := range l.client.Cookies() {
		header.Add("Cookie", ck.String())
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, l.liveURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrSessionEnded
		}
		return nil, err
	}
	return conn, nil
}

// connect dials with exponential backoff.
func (l *Live) connect(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for i := 0; i <= l.MaxRetries; i++ {
		conn, err := l.dial(ctx)
		if err == nil {
			l.collector.RecordConnection()
			return conn, nil
		}
		if errors.Is(err, ErrSessionEnded) {
			return nil, err
		}
		lastErr = err
		l.collector.RecordRetry()

		if i == l.MaxRetries {
			break
		}
		delay := l.BaseDelay * time.Duration(math.Pow(2, float64(i)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect live feed after %d attempts: %w", l.MaxRetries+1, lastErr)
}

// Run keeps the feed connected until ctx ends, the session ends, or
// reconnecting fails.
func (l *Live) Run(ctx context.Context) error {
	defer close(l.frames)

	for {
		conn, err := l.connect(ctx)
		if err != nil {
			return err
		}
		l.setConn(conn)

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = l.readLoop(ctx, conn)
		stop()
		l.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return ErrSessionEnded
		}
		l.collector.RecordError()
	}
}

func (l *Live) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var frame model.LiveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		l.collector.RecordFrame(frame.Kind, frame.ServerTimestamp, time.Now())

		select {
		case l.frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Live) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = conn
}

// Send writes one action. The answer arrives on Frames as a reply frame.
func (l *Live) Send(action model.LiveAction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotConnected
	}
	l.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return l.conn.WriteJSON(action)
}
