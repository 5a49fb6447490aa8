package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"nextfilm/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the env's app on a loopback port and returns its address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() {
		_ = e.srv.hub.Shutdown(context.Background())
		_ = e.app.ShutdownWithTimeout(time.Second)
	})
	return ln.Addr().String()
}

func dialActivity(t *testing.T, addr, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws/activity", header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readActivity(t *testing.T, conn *websocket.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notifications.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestActivityStream_RequiresIdentity(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, jsonRequest(t, http.MethodGet, "/api/ws/activity", nil, ""))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "UNAUTHENTICATED")
}

func TestActivityStream_PlainRequestNeedsUpgrade(t *testing.T) {
	e := newTestEnv(t)
	alice := e.createUser(t, "alice")

	resp, _ := e.do(t, jsonRequest(t, http.MethodGet, "/api/ws/activity", nil, e.tokenFor(t, alice)))
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestActivityStream_PushesEventsToRecipient(t *testing.T) {
	e := newTestEnv(t)
	alice := e.createUser(t, "alice")
	bob := e.createUser(t, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, e.srv.startActivityFanout(ctx))

	addr := e.listen(t)
	conn := dialActivity(t, addr, e.tokenFor(t, alice))
	require.Eventually(t, func() bool { return e.srv.hub.Connections(alice.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	// Follow over HTTP so the event travels service -> Redis -> hub -> socket.
	resp, _ := e.do(t, jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), nil, e.tokenFor(t, bob)))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	ev := readActivity(t, conn)
	assert.Equal(t, notifications.EventUserFollowed, ev.Type)
	assert.Equal(t, bob.ID, ev.ActorID)

	post := e.createPost(t, alice, "Rear Window holds up")
	resp, _ = e.do(t, jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), nil, e.tokenFor(t, bob)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ev = readActivity(t, conn)
	assert.Equal(t, notifications.EventPostLiked, ev.Type)
	assert.Equal(t, post.ID, ev.PostID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return e.srv.hub.Connections(alice.ID) == 0 },
		2*time.Second, 10*time.Millisecond)
}
