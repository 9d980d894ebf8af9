package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRooms struct {
	err error
}

func (s stubRooms) RoomSession(ctx context.Context, caller *services.Principal, roomID string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Session{Status: models.SessionConfirmed}, nil
}

func roomServer(t *testing.T, resolver roomResolver) *httptest.Server {
	t.Helper()
	h := NewRoomHandler(resolver, services.NewRoomHub(nil), []string{"https://app.example.com"})
	r := chi.NewRouter()
	r.Use(as(principal(models.RoleClient)))
	r.Get("/ws/rooms/{roomID}", h.Connect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialRoom(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms/room-1"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) services.RoomEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev services.RoomEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRoomRelaysMessagesBetweenParticipants(t *testing.T) {
	srv := roomServer(t, stubRooms{})

	a, _, err := dialRoom(t, srv, "https://app.example.com")
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "joined", readEvent(t, a).Type)

	b, _, err := dialRoom(t, srv, "")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "joined", readEvent(t, a).Type)
	assert.Equal(t, "joined", readEvent(t, b).Type)

	require.NoError(t, b.WriteJSON(map[string]string{"type": "message", "body": "  hello  "}))
	ev := readEvent(t, a)
	assert.Equal(t, "message", ev.Type)
	assert.Equal(t, "hello", ev.Body)
	assert.Equal(t, "room-1", ev.RoomID)
	assert.Equal(t, "client", ev.Role)
}

func TestRoomRejectsUnknownOriginAndForbiddenCallers(t *testing.T) {
	srv := roomServer(t, stubRooms{})
	_, resp, err := dialRoom(t, srv, "https://evil.example.com")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	srv = roomServer(t, stubRooms{err: services.ErrForbidden})
	_, resp, err = dialRoom(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	srv = roomServer(t, stubRooms{err: services.ErrSessionNotFound})
	_, resp, err = dialRoom(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
