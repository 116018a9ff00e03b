package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

var secret = []byte("test-secret")

func protected(t *testing.T, roles ...models.UserRole) http.Handler {
	t.Helper()
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-User", actor.UserID)
		w.Header().Set("X-Role", string(actor.Role))
	})
	var h http.Handler = final
	if len(roles) > 0 {
		h = Authorize(roles...)(h)
	}
	return Authenticate(secret, slog.New(slog.NewTextHandler(io.Discard, nil)))(h)
}

func TestAuthenticate(t *testing.T) {
	good, err := IssueToken(secret, models.Actor{UserID: "u1", Role: models.RoleOrganizer}, "Ayşe", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, models.Actor{UserID: "u1", Role: models.RoleOrganizer}, "Ayşe", -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other"), models.Actor{UserID: "u1", Role: models.RoleOrganizer}, "Ayşe", time.Hour)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1", "role": "captain", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "valid bearer", header: "Bearer " + good, status: http.StatusOK},
		{name: "query token", query: good, status: http.StatusOK},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + good, status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + foreign, status: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + badRole, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/events"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(t).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u1", rec.Header().Get("X-User"))
				assert.Equal(t, "organizer", rec.Header().Get("X-Role"))
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	player, err := IssueToken(secret, models.Actor{UserID: "u2", Role: models.RolePlayer}, "Can", time.Hour)
	require.NoError(t, err)
	admin, err := IssueToken(secret, models.Actor{UserID: "u3", Role: models.RoleAdmin}, "Ece", time.Hour)
	require.NoError(t, err)

	h := protected(t, models.RoleOrganizer, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+player)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNumericUserIDClaim(t *testing.T) {
	ctx := WithActor(t.Context(), models.Actor{UserID: "7", Role: models.RolePlayer})
	id, err := GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	id, err = userIDClaim(jwt.MapClaims{"user_id": float64(42)})
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = userIDClaim(jwt.MapClaims{"user_id": 4.5})
	assert.Error(t, err)
}
