package wizard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type   string         `json:"type"`
	UserID string         `json:"userId"`
	Data   map[string]any `json:"data"`
}

func TestWebSocketRunsWizard(t *testing.T) {
	r, store := setupRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/u-ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "connected", frame.Type)
	assert.Equal(t, "u-ws", frame.UserID)

	messages := []string{"", "Designer", "Remote", "10h/week", "Adobe", "None"}
	for i, msg := range messages {
		require.NoError(t, conn.WriteJSON(map[string]string{"message": msg}))

		frame = wsFrame{}
		require.NoError(t, conn.ReadJSON(&frame))
		require.Equal(t, "turn", frame.Type, "frame %d: %+v", i, frame.Data)

		if i < 5 {
			assert.Equal(t, false, frame.Data["done"])
			assert.NotEmpty(t, frame.Data["reply"])
		} else {
			assert.Equal(t, true, frame.Data["done"])
			assert.Equal(t, "<h2><b>Freelance Designer</b></h2>", frame.Data["document"])
		}
	}
	assert.False(t, store.Exists("u-ws"))
}

func TestWebSocketReportsErrorsAndContinues(t *testing.T) {
	r, _ := setupRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/u-err"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))

	require.NoError(t, conn.WriteJSON(map[string]string{"locale": "xx"}))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.EqualValues(t, 400, frame.Data["status"])

	frame = wsFrame{}
	require.NoError(t, conn.WriteJSON(map[string]string{"locale": "en"}))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "turn", frame.Type)
}

func dialWizard(t *testing.T, srvURL, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "connected", frame.Type)
	return conn
}

func TestWebSocketValidatesAnswerLength(t *testing.T) {
	r, store := setupRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn := dialWizard(t, srv.URL, "u-long")

	var frame wsFrame
	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "turn", frame.Type)

	frame = wsFrame{}
	require.NoError(t, conn.WriteJSON(map[string]string{"message": strings.Repeat("x", 9000)}))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.EqualValues(t, 400, frame.Data["status"])
	assert.Equal(t, "message must be at most 8000 characters", frame.Data["message"])

	session, _, err := store.GetOrCreate(context.Background(), "u-long")
	require.NoError(t, err)
	assert.Empty(t, session.Answers)
}

func TestWebSocketClosesOnOversizedFrame(t *testing.T) {
	r, store := setupRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn := dialWizard(t, srv.URL, "u-huge")

	var frame wsFrame
	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))
	require.NoError(t, conn.ReadJSON(&frame))

	_ = conn.WriteJSON(map[string]string{"message": strings.Repeat("x", 200000)})
	err := conn.ReadJSON(&frame)
	require.Error(t, err)

	session, _, err := store.GetOrCreate(context.Background(), "u-huge")
	require.NoError(t, err)
	assert.Empty(t, session.Answers)
}

func TestWebSocketRejectsInvalidUserID(t *testing.T) {
	r, _ := setupRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + strings.Repeat("u", 200)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
