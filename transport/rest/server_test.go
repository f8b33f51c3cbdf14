package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/service"
)

const (
	testJWTSecret     = "jwt-secret"
	testSessionSecret = "session-secret"
)

var ann = &entity.User{ID: "google-1", Email: "ann@example.com", DisplayName: "Ann"}

type testServer struct {
	handler http.Handler
	auth    service.AuthService
	users   *mockUserUseCase
	games   *mockGameReader
}

func newTestServer(t *testing.T, identity identityProvider) *testServer {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	auth := service.NewAuthService(testJWTSecret)
	users := &mockUserUseCase{}
	games := &mockGameReader{}

	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg)

	srv := New(logger, testSessionSecret,
		NewAuth(logger, identity, auth, users),
		NewAPI(logger, games, auth),
		metrics.Handler(reg),
	)

	return &testServer{
		handler: srv.Handler(),
		auth:    auth,
		users:   users,
		games:   games,
	}
}

func (that *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	that.handler.ServeHTTP(rec, req)

	return rec
}

// login - starts a sign-in and returns the state and the session cookies.
func (that *testServer) login(t *testing.T) (string, []*http.Cookie) {
	t.Helper()

	rec := that.do(httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	return location.Query().Get("state"), rec.Result().Cookies()
}

func callbackRequest(query url.Values, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query.Encode(), nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	return req
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, &fakeIdentity{})

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	t.Run("Redirects with a state kept in the session cookie", func(t *testing.T) {
		// Given
		srv := newTestServer(t, &fakeIdentity{})

		// When
		state, cookies := srv.login(t)

		// Then
		assert.NotEmpty(t, state)
		require.NotEmpty(t, cookies)
		assert.Equal(t, sessionName, cookies[0].Name)
	})
}

func TestAuthHandler_GoogleCallback(t *testing.T) {
	t.Run("Signs the user in and returns a token", func(t *testing.T) {
		// Given: a started sign-in
		srv := newTestServer(t, &fakeIdentity{user: ann})
		srv.users.On("Update", mock.Anything, ann).Return(ann, nil)

		state, cookies := srv.login(t)

		// When: Google calls back with a code
		rec := srv.do(callbackRequest(url.Values{"state": {state}, "code": {"auth-code"}}, cookies))

		// Then: the user is stored and the token names them
		require.Equal(t, http.StatusOK, rec.Code)

		var resp signInResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ann, resp.User)

		userID, err := srv.auth.ParseToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, ann.ID, userID)
		srv.users.AssertExpectations(t)
	})

	t.Run("Cancelled consent is unauthorized", func(t *testing.T) {
		// Given
		srv := newTestServer(t, &fakeIdentity{user: ann})
		state, cookies := srv.login(t)

		// When: the user closed the consent screen
		rec := srv.do(callbackRequest(url.Values{"state": {state}, "error": {"access_denied"}}, cookies))

		// Then
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		srv.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("State mismatch", func(t *testing.T) {
		// Given
		srv := newTestServer(t, &fakeIdentity{user: ann})
		_, cookies := srv.login(t)

		// When
		rec := srv.do(callbackRequest(url.Values{"state": {"forged"}, "code": {"auth-code"}}, cookies))

		// Then
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("No session", func(t *testing.T) {
		// Given
		srv := newTestServer(t, &fakeIdentity{user: ann})

		// When
		rec := srv.do(callbackRequest(url.Values{"state": {"any"}, "code": {"auth-code"}}, nil))

		// Then
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Provider failure", func(t *testing.T) {
		// Given
		srv := newTestServer(t, &fakeIdentity{err: errors.New("token endpoint is down")})
		state, cookies := srv.login(t)

		// When
		rec := srv.do(callbackRequest(url.Values{"state": {state}, "code": {"auth-code"}}, cookies))

		// Then
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAPIHandler_Tally(t *testing.T) {
	// Given
	srv := newTestServer(t, &fakeIdentity{})
	srv.games.On("WinTally", mock.Anything).Return(4, 2)

	// When
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/tally", nil))

	// Then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"x":4,"o":2}`, rec.Body.String())
}

func TestAPIHandler_History(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Newest games first", func(t *testing.T) {
		// Given: two stored games returned oldest first
		srv := newTestServer(t, &fakeIdentity{})
		srv.games.On("History", mock.Anything, ann.ID).Return([]entity.GameRecord{
			{ID: "old", Winner: entity.MarkX, OwnerID: ann.ID, CreatedAt: base},
			{ID: "new", Winner: entity.MarkO, OwnerID: ann.ID, CreatedAt: base.Add(time.Hour)},
		})

		token, err := srv.auth.GenerateToken(ann)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		// When
		rec := srv.do(req)

		// Then
		require.Equal(t, http.StatusOK, rec.Code)

		var resp historyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Games, 2)
		assert.Equal(t, "new", resp.Games[0].ID)
		assert.Equal(t, "old", resp.Games[1].ID)
	})

	t.Run("Requires a valid token", func(t *testing.T) {
		srv := newTestServer(t, &fakeIdentity{})

		for _, header := range []string{"", "Bearer ", "Bearer garbage", "Basic abc"} {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			// When
			rec := srv.do(req)

			// Then
			assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		}

		srv.games.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeIdentity{})

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tictactoe_moves_applied_total")
}
