// internal/handlers/api_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kierki/internal/auth"
	"kierki/internal/protocol"
)

func TestListRoomsRequiresToken(t *testing.T) {
	srv := newTestServer()
	handler := ListRoomsHandler(srv)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer junk")
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListRoomsReturnsSnapshots(t *testing.T) {
	srv := newTestServer()
	host := login(t, srv, "alice")
	srv.HandleCreateRoom(host)

	token, err := auth.CreateSessionToken(host.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	ListRoomsHandler(srv)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snaps []*protocol.RoomSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, host.ID, snaps[0].HostID)
}

func TestListRoomsAcceptsCookieToken(t *testing.T) {
	token, err := auth.CreateSessionToken(1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Cookie", "auth_token="+token+"; other=1")
	ListRoomsHandler(newTestServer())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
