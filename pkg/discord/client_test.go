package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/serrors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(configuration.DiscordOptions{
		APIBase:         srv.URL,
		BotToken:        "token",
		GuildID:         "g1",
		InviteChannelID: "c1",
		Timeout:         time.Second,
	}, nil)
}

func TestClient_SetMemberRolesPatchesFinalList(t *testing.T) {
	var patched []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/guilds/g1/members/u1", r.URL.Path)
		assert.Equal(t, "Bot token", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(member{Roles: []string{"everyone", "swat", "k9"}})
		case http.MethodPatch:
			var body struct {
				Roles []string `json:"roles"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			patched = body.Roles
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected %s", r.Method)
		}
	})

	require.NoError(t, c.SetMemberRoles(context.Background(), "u1", []string{"detective", "swat"}, []string{"k9"}))
	assert.Equal(t, []string{"everyone", "swat", "detective"}, patched)
}

func TestClient_FailureIsExternalSyncFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Permissions"}`))
	})

	err := c.SetMemberRoles(context.Background(), "u1", []string{"a"}, nil)
	require.ErrorIs(t, err, ErrUpstream)
	code, _ := serrors.Code(err)
	assert.Equal(t, "EXTERNAL_SYNC_FAILURE", code)
}

func TestClient_CreateInviteLink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/channels/c1/invites", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 86400, body["max_age"])
		assert.EqualValues(t, 1, body["max_uses"])
		_, _ = w.Write([]byte(`{"code":"abc123"}`))
	})

	link, err := c.CreateInviteLink(context.Background(), 24*time.Hour, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://discord.gg/abc123", link)
}

func TestClient_KickSendsAuditReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "terminated", r.Header.Get("X-Audit-Log-Reason"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.KickMember(context.Background(), "u1", "terminated"))
}
