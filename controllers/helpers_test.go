package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/middleware"
	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/security"
	"github.com/HSouheill/movie_mania_backend/services"
	"github.com/HSouheill/movie_mania_backend/utils"
)

const testFrom = "noreply@moviemania.test"

// memUsers is an in-memory UserStore with the same hashing policy as the Mongo one
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	failErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) findEmailLocked(email string) *models.User {
	for _, u := range m.byID {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u
		}
	}
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	if u := m.findEmailLocked(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, models.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, models.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, username, email, phone, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findEmailLocked(email) != nil {
		return nil, models.ErrDuplicateEmail
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     strings.ToLower(email),
		Phone:     phone,
		Password:  hash,
		CreatedAt: time.Now(),
	}
	m.byID[u.ID.Hex()] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, user *models.User, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[user.ID.Hex()]
	if !ok {
		return models.ErrUserNotFound
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	stored.Password = hash
	user.Password = hash
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	if upd.Email != "" {
		if other := m.findEmailLocked(upd.Email); other != nil && other.ID != u.ID {
			return nil, models.ErrDuplicateEmail
		}
		u.Email = upd.Email
	}
	if upd.Username != "" {
		u.Username = upd.Username
	}
	if upd.Phone != "" {
		u.Phone = upd.Phone
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		cp := *u
		cp.Password = ""
		out = append(out, cp)
	}
	return out, nil
}

func (m *memUsers) stored(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findEmailLocked(email)
}

type sentMail struct {
	Subject string
	Body    string
	To      string
	From    string
}

// recordingNotifier keeps every message and can be told to fail
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (n *recordingNotifier) Send(_ context.Context, subject, body, to, from string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return models.ErrDelivery
	}
	n.sent = append(n.sent, sentMail{Subject: subject, Body: body, To: to, From: from})
	return nil
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no mail sent")
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var otpInMail = regexp.MustCompile(`\b\d{6}\b`)

func (n *recordingNotifier) lastOTP(t *testing.T) string {
	t.Helper()
	code := otpInMail.FindString(n.last(t).Body)
	require.NotEmpty(t, code, "no code in mail")
	return code
}

type testServer struct {
	e        *echo.Echo
	users    *memUsers
	movies   *memMovies
	otpStore *services.MemoryOTPStore
	issuer   *security.TokenIssuer
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	issuer, err := security.NewTokenIssuer("controller-test-secret", time.Hour)
	require.NoError(t, err)

	ts := &testServer{
		e:        echo.New(),
		users:    newMemUsers(),
		movies:   newMemMovies(),
		otpStore: services.NewMemoryOTPStore(),
		issuer:   issuer,
		notifier: &recordingNotifier{},
	}
	ts.e.Validator = utils.NewValidator()

	logger := zap.NewNop()
	otps := services.NewOTPManager(ts.otpStore, services.DefaultOTPTTL, services.DefaultOTPMaxAttempts)
	images := services.NewMovieImageService(services.NewLocalImageStorage(t.TempDir(), "/uploads"), logger)

	auth := NewAuthController(ts.users, otps, issuer, ts.notifier, testFrom, logger)
	users := NewUserController(ts.users, ts.movies, logger)
	movies := NewMovieController(ts.movies, images, logger)

	requireAuth := []echo.MiddlewareFunc{
		middleware.JWTMiddleware(issuer, logger),
		middleware.LoadSessionUser(ts.users, logger),
	}

	a := ts.e.Group("/api/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/forgot-password", auth.ForgotPassword)
	a.POST("/reset-password", auth.ResetPassword)
	a.GET("/user", auth.GetUser, requireAuth...)
	a.GET("/users", users.GetUsers, requireAuth...)
	a.PUT("/:id/update", users.UpdateUser, append(requireAuth, middleware.RequireSelf("id"))...)
	a.DELETE("/:id/delete", users.DeleteUser, append(requireAuth, middleware.RequireSelf("id"))...)

	m := ts.e.Group("/api/movies")
	m.GET("", movies.GetMovies)
	m.GET("/:id", movies.GetMovie)
	m.POST("", movies.CreateMovie, requireAuth...)
	m.PUT("/:id", movies.UpdateMovie, requireAuth...)
	m.DELETE("/:id", movies.DeleteMovie, requireAuth...)

	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register creates an account through the handler and returns token and id
func (ts *testServer) register(t *testing.T, email, password string) (string, string) {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/register",
		`{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	return body["token"].(string), body["userId"].(string)
}

type memMovies struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]models.Movie
	ownerPurges []primitive.ObjectID
}

func newMemMovies() *memMovies {
	return &memMovies{byID: map[primitive.ObjectID]models.Movie{}}
}

func (m *memMovies) Create(_ context.Context, movie *models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	movie.ID = primitive.NewObjectID()
	movie.CreatedAt = time.Now()
	movie.UpdatedAt = movie.CreatedAt
	m.byID[movie.ID] = *movie
	return nil
}

func (m *memMovies) FindByID(_ context.Context, id string) (*models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrMovieNotFound
	}
	mv, ok := m.byID[oid]
	if !ok {
		return nil, models.ErrMovieNotFound
	}
	return &mv, nil
}

func (m *memMovies) List(_ context.Context) ([]models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Movie{}
	for _, mv := range m.byID {
		out = append(out, mv)
	}
	return out, nil
}

func (m *memMovies) Update(_ context.Context, movie *models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[movie.ID]; !ok {
		return models.ErrMovieNotFound
	}
	movie.UpdatedAt = time.Now()
	m.byID[movie.ID] = *movie
	return nil
}

func (m *memMovies) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return models.ErrMovieNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memMovies) DeleteByOwner(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownerPurges = append(m.ownerPurges, userID)
	var n int64
	for id, mv := range m.byID {
		if mv.UserID == userID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}
