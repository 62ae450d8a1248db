package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainerrors "github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

func dialHub(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInAppHub_DeliversToOpenSession(t *testing.T) {
	hub := NewInAppHub(DefaultInAppConfig(), zaptest.NewLogger(t))
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dialHub(t, server, "admin-1")

	require.Eventually(t, func() bool {
		return hub.SessionCount("admin-1") == 1
	}, time.Second, 10*time.Millisecond)

	err := hub.SendInApp(context.Background(), "admin-1", "Risk alert", "data-access: score 90/100")
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg InAppMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "risk_alert", msg.Type)
	assert.Equal(t, "Risk alert", msg.Title)
	assert.Contains(t, msg.Body, "score 90/100")
}

func TestInAppHub_NoSessionIsDeliveryFailure(t *testing.T) {
	hub := NewInAppHub(DefaultInAppConfig(), zaptest.NewLogger(t))

	err := hub.SendInApp(context.Background(), "offline-user", "t", "b")
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeDelivery))
}

func TestInAppHub_RequiresUserID(t *testing.T) {
	hub := NewInAppHub(DefaultInAppConfig(), zaptest.NewLogger(t))
	server := httptest.NewServer(hub)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInAppHub_SessionRemovedOnDisconnect(t *testing.T) {
	hub := NewInAppHub(DefaultInAppConfig(), zaptest.NewLogger(t))
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server, "admin-1")

	require.Eventually(t, func() bool {
		return hub.SessionCount("admin-1") == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.SessionCount("admin-1") == 0
	}, time.Second, 10*time.Millisecond)
}
