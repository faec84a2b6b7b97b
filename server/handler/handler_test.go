package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahadchat/server/auth"
	"ahadchat/server/logs"
	"ahadchat/server/model"
	"ahadchat/server/room"
	"ahadchat/server/store"
)

type brokenStore struct{}

func (brokenStore) Load(ctx context.Context) ([]model.Message, error) {
	return nil, fmt.Errorf("load: %w", store.ErrUnavailable)
}

func (brokenStore) Save(ctx context.Context, msgs []model.Message) error {
	return fmt.Errorf("save: %w", store.ErrUnavailable)
}

type testServer struct {
	*httptest.Server
	manager *room.Manager
}

func newTestServer(t *testing.T, variant store.Variant, st store.Store, poll time.Duration) *testServer {
	t.Helper()
	users := auth.NewDirectory([]auth.User{
		{ID: "khizar", DisplayName: "Khizar", Password: "khizar123", IsAdmin: true},
		{ID: "ahad", DisplayName: "Ahad", Password: "ahad123"},
	})
	sel := store.Selection{Name: "test", Variant: variant, Shared: st}
	rm := room.New(users, sel, room.Options{
		DisplayLimit:     50,
		MaxMessageLength: 2000,
		PollInterval:     poll,
		AdminTools:       variant == store.VariantRemote,
	}, logs.Nop())
	manager := room.NewManager(rm)

	srv := httptest.NewServer(NewRouter(manager, logs.Nop()))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, manager: manager}
}

func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func do(t *testing.T, c *http.Client, method, url string, body any) (*http.Response, model.View) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var view model.View
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		json.NewDecoder(resp.Body).Decode(&view)
	}
	return resp, view
}

func loginAs(t *testing.T, s *testServer, c *http.Client, id, password string) {
	t.Helper()
	resp, view := do(t, c, http.MethodPost, s.URL+"/api/login", model.LoginRequest{UserID: id, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, model.StateLoggedIn, view.State)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)

	resp, err := http.Get(s.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "UP", health.Status)
	assert.Equal(t, "local", health.Variant)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)
	c := s.client(t)

	resp, view := do(t, c, http.MethodGet, s.URL+"/api/messages", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, model.StateLoggedOut, view.State)

	resp, view = do(t, c, http.MethodPost, s.URL+"/api/login", model.LoginRequest{UserID: "ahad", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials!", view.Error)

	resp, view = do(t, c, http.MethodPost, s.URL+"/api/login", model.LoginRequest{UserID: "ahad"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	loginAs(t, s, c, "ahad", "ahad123")
	assert.Equal(t, 1, s.manager.Len())

	resp, view = do(t, c, http.MethodPost, s.URL+"/api/messages", model.SendRequest{Message: "hello"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, view.Messages, 1)
	assert.True(t, view.Messages[0].Own)

	resp, view = do(t, c, http.MethodPost, s.URL+"/api/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.StateLoggedOut, view.State)

	resp, _ = do(t, c, http.MethodPost, s.URL+"/api/messages", model.SendRequest{Message: "again"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSend_BadBody(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)
	c := s.client(t)
	loginAs(t, s, c, "ahad", "ahad123")

	resp, err := c.Post(s.URL+"/api/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSend_StoreUnavailable(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, brokenStore{}, 0)
	c := s.client(t)
	loginAs(t, s, c, "ahad", "ahad123")

	resp, view := do(t, c, http.MethodPost, s.URL+"/api/messages", model.SendRequest{Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.True(t, view.StoreUnavailable)
	assert.Equal(t, "Error saving message", view.Error)
}

func TestTwoUsersSeeEachOther(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)
	a, b := s.client(t), s.client(t)
	loginAs(t, s, a, "khizar", "khizar123")
	loginAs(t, s, b, "ahad", "ahad123")

	do(t, a, http.MethodPost, s.URL+"/api/messages", model.SendRequest{Message: "hi"})
	_, view := do(t, b, http.MethodGet, s.URL+"/api/messages", nil)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "Khizar", view.Messages[0].DisplayName)
	assert.False(t, view.Messages[0].Own)
}

func TestAdminEndpoints(t *testing.T) {
	mem := store.NewMemoryStore()
	s := newTestServer(t, store.VariantRemote, mem, 0)
	admin := s.client(t)
	loginAs(t, s, admin, "khizar", "khizar123")

	resp, err := admin.Get(s.URL + "/api/admin/export")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for i := 0; i < 15; i++ {
		do(t, admin, http.MethodPost, s.URL+"/api/messages", model.SendRequest{Message: fmt.Sprintf("m%d", i)})
	}

	resp, err = admin.Get(s.URL + "/api/admin/stats")
	require.NoError(t, err)
	var stats model.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, 15, stats.Total)
	assert.Equal(t, 15, stats.PerUser["khizar"])

	resp, err = admin.Get(s.URL + "/api/admin/export")
	require.NoError(t, err)
	var exp model.Export
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exp))
	resp.Body.Close()
	assert.Equal(t, 15, exp.TotalMessages)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ahadchat_history_")

	resp, _ = do(t, admin, http.MethodPost, s.URL+"/api/admin/keep", model.KeepRequest{Keep: 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, view := do(t, admin, http.MethodPost, s.URL+"/api/admin/keep", model.KeepRequest{Keep: 10})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, view.Total)

	resp, view = do(t, admin, http.MethodPost, s.URL+"/api/admin/clear", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 10, view.Total)

	resp, view = do(t, admin, http.MethodPost, s.URL+"/api/admin/clear", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, view.Total)

	user := s.client(t)
	loginAs(t, s, user, "ahad", "ahad123")
	resp, _ = do(t, user, http.MethodPost, s.URL+"/api/admin/clear", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdmin_LocalVariantForbidden(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)
	c := s.client(t)
	loginAs(t, s, c, "khizar", "khizar123")

	resp, err := c.Get(s.URL + "/api/admin/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func dialLive(t *testing.T, s *testServer, c *http.Client) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	u := s.URL + "/api/live"
	req, _ := http.NewRequest(http.MethodGet, u, nil)
	for _, ck := range c.Jar.Cookies(req.URL) {
		header.Add("Cookie", ck.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(u, "http"), header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) model.LiveFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame model.LiveFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestLive(t *testing.T) {
	mem := store.NewMemoryStore()
	s := newTestServer(t, store.VariantRemote, mem, 50*time.Millisecond)
	c := s.client(t)
	loginAs(t, s, c, "ahad", "ahad123")

	conn := dialLive(t, s, c)
	first := readFrame(t, conn)
	assert.Equal(t, model.StateLoggedIn, first.View.State)

	require.NoError(t, conn.WriteJSON(model.LiveAction{Action: model.ActionSend, Message: "over the wire"}))
	var reply model.LiveFrame
	for reply.Kind != model.FrameReply || len(reply.View.Messages) == 0 {
		reply = readFrame(t, conn)
	}
	require.Len(t, reply.View.Messages, 1)
	assert.Equal(t, "over the wire", reply.View.Messages[0].Text)

	_, err := store.Append(context.Background(), mem, "khizar", "from elsewhere", time.Now())
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame := readFrame(t, conn)
		if frame.Kind == model.FramePoll && len(frame.View.Messages) == 2 {
			return
		}
	}
	t.Fatal("no poll frame with the new message")
}

func TestLive_InvalidAction(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), time.Minute)
	c := s.client(t)
	loginAs(t, s, c, "ahad", "ahad123")

	conn := dialLive(t, s, c)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "Invalid JSON format", readFrame(t, conn).View.Error)

	require.NoError(t, conn.WriteJSON(model.LiveAction{Action: "dance"}))
	assert.Equal(t, "invalid action", readFrame(t, conn).View.Error)
}

func TestLive_RequiresLogin(t *testing.T) {
	s := newTestServer(t, store.VariantLocal, store.NewMemoryStore(), 0)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/api/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logs.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{auth.ErrMissingCredentials, http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{room.ErrNotLoggedIn, http.StatusUnauthorized},
		{room.ErrForbidden, http.StatusForbidden},
		{room.ErrMessageTooLong, http.StatusBadRequest},
		{fmt.Errorf("save: %w", store.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("other"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}
