package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theEricHoang/coal/accounts"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/catalog"
	"github.com/theEricHoang/coal/library"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb := testutil.NewDB(t)
	tokens := auth.NewTokens("test-secret", time.Hour)
	store := library.NewGormStore(gdb)
	games := catalog.NewService(gdb, nil)
	users := accounts.NewService(gdb, nil, store)

	r := NewRouter(Deps{
		DB:        gdb,
		Tokens:    tokens,
		Accounts:  users,
		Catalog:   games,
		Engine:    library.NewEngine(store, games),
		Projector: library.NewProjector(store, games, users),
	})
	return &testServer{router: r, db: gdb, tokens: tokens}
}

func (s *testServer) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := s.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/register", "", gin.H{"username": "x", "email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[struct {
		Token string `json:"token"`
	}](t, w)

	session, err := s.tokens.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)

	w = s.do(t, http.MethodGet, "/library", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLibraryRequiresSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/library", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/library", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoanScenario(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	game := testutil.CreateGame(t, s.db, models.Game{Title: "Hollow Knight", Genre: "Metroidvania", Price: 14.99})
	aliceToken, bobToken := s.token(t, alice), s.token(t, bob)

	w := s.do(t, http.MethodPost, "/library", aliceToken, gin.H{"game_id": game.ID, "type": "digital"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[models.Ownership](t, w)
	assert.Equal(t, models.KindDigital, rec.Kind)
	assert.Contains(t, w.Body.String(), `"type":"digital"`)

	w = s.do(t, http.MethodPost, "/library", aliceToken, gin.H{"game_id": game.ID, "type": "digital"})
	assert.Equal(t, http.StatusConflict, w.Code)

	loanPath := fmt.Sprintf("/library/%d/loan", rec.ID)
	w = s.do(t, http.MethodPost, loanPath, aliceToken, gin.H{"borrower_id": bob.ID, "duration_days": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, loanPath, bobToken, gin.H{"borrower_id": bob.ID, "duration_days": 7})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, loanPath, aliceToken, gin.H{"borrower_id": bob.ID, "duration_days": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, loanPath, aliceToken, gin.H{"borrower_id": bob.ID, "duration_days": 7})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/library", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	borrowed := decode[library.Library](t, w)
	require.Len(t, borrowed.Games, 1)
	assert.True(t, borrowed.Games[0].IsBorrowed)
	assert.Equal(t, "alice", borrowed.Games[0].OwnerUsername)
	require.NotNil(t, borrowed.Games[0].DaysRemaining)
	assert.Equal(t, 7, *borrowed.Games[0].DaysRemaining)

	w = s.do(t, http.MethodGet, "/library", aliceToken, nil)
	owned := decode[library.Library](t, w)
	require.Len(t, owned.Games, 1)
	assert.True(t, owned.Games[0].IsLoanedOut)
	assert.Equal(t, "bob", owned.Games[0].LoanedToUsername)
	assert.Nil(t, owned.Games[0].HoursPlayed)

	w = s.do(t, http.MethodGet, "/library/loaned", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"loaned_to_username":"bob"`)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/library/%d", rec.ID), aliceToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/library/%d/playtime", rec.ID), bobToken, gin.H{"hours": 2.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/library/%d/return", rec.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/library/%d/return", rec.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "bob no longer holds the copy")

	w = s.do(t, http.MethodGet, "/library", bobToken, nil)
	assert.Empty(t, decode[library.Library](t, w).Games)

	w = s.do(t, http.MethodGet, "/library", aliceToken, nil)
	owned = decode[library.Library](t, w)
	require.Len(t, owned.Games, 1)
	assert.False(t, owned.Games[0].IsLoanedOut)
	require.NotNil(t, owned.Games[0].HoursPlayed)
	assert.Equal(t, 2.5, *owned.Games[0].HoursPlayed)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/library/%d/status", rec.ID), aliceToken, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, decode[models.Ownership](t, w).Status)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/library/%d/status", rec.ID), aliceToken, gin.H{"status": "abandoned"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/library/%d", rec.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/library/%d", rec.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryBadRequests(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	token := s.token(t, alice)

	w := s.do(t, http.MethodPost, "/library/abc/loan", token, gin.H{"borrower_id": 2, "duration_days": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/library", token, gin.H{"game_id": 999, "type": "digital"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/library?limit=500", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGamesEndpoints(t *testing.T) {
	s := newTestServer(t)
	player := testutil.CreateUser(t, s.db, "player")
	studio := testutil.CreateUser(t, s.db, "studio")
	require.NoError(t, s.db.Model(&studio).Update("role", models.RoleStudio).Error)
	studio.Role = models.RoleStudio

	w := s.do(t, http.MethodPost, "/games", s.token(t, player), gin.H{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/games", s.token(t, studio), gin.H{"title": "Celeste", "genre": "Platformer", "price": 19.99})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[models.Game](t, w)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/games/%d", game.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Celeste", decode[models.Game](t, w).Title)

	w = s.do(t, http.MethodGet, "/games/search?q=cel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Celeste")

	w = s.do(t, http.MethodGet, "/games?genre=platformer", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Game](t, w), 1)

	w = s.do(t, http.MethodGet, "/games/4040", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserProfile(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	game := testutil.CreateGame(t, s.db, models.Game{Title: "Hades"})
	aliceToken := s.token(t, alice)

	w := s.do(t, http.MethodPost, "/library", aliceToken, gin.H{"game_id": game.ID, "type": "physical"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", alice.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[models.UserProfile](t, w)
	assert.EqualValues(t, 1, profile.TotalGames)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", alice.ID), s.token(t, bob), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/users/%d/ban", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrDuplicateOwnership, http.StatusConflict},
		{models.ErrInvalidState, http.StatusConflict},
		{models.ErrInvalidArgument, http.StatusBadRequest},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", models.ErrNotFound), http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	root := testutil.CreateUser(t, s.db, "root")
	require.NoError(t, s.db.Model(&root).Update("role", models.RoleAdmin).Error)
	root.Role = models.RoleAdmin

	w := s.do(t, http.MethodGet, "/admin/stats", s.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/admin/stats", s.token(t, root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_users":2`)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/users/%d/ban", alice.ID), s.token(t, root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/admin/stats", s.token(t, root), nil)
	assert.Contains(t, w.Body.String(), `"active_users":1`)

	w = s.do(t, http.MethodGet, "/library", s.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "a ban applies to tokens issued before it")
}

func TestTokenRoleIsNotTrusted(t *testing.T) {
	s := newTestServer(t)
	mallory := testutil.CreateUser(t, s.db, "mallory")
	mallory.Role = models.RoleAdmin

	w := s.do(t, http.MethodGet, "/admin/stats", s.token(t, mallory), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
