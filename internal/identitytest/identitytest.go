// Package identitytest runs an in-process fake of the TrainLog identity
// service for client tests. It mimics the service's observable contract
// only: form-encoded login, bearer or cookie sessions, /auth/me, account
// registration and CORS with credentials.
package identitytest

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Mode selects which session variant the fake serves.
type Mode string

const (
	// ModeBearer issues an access token in the login response body.
	ModeBearer Mode = "bearer"
	// ModeCookie sets an opaque session cookie instead.
	ModeCookie Mode = "cookie"
)

const sessionCookieName = "session_id"

// User seeds an account on the fake service. Passwords are compared in
// plain text; hashing is the real service's concern, not the contract
// under test.
type User struct {
	UserID    int64
	Username  string
	Password  string
	Email     string
	IsAdmin   bool
	FirstName string
	LastName  string
}

// Claims is the token payload for ModeBearer.
type Claims struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service is the running fake.
type Service struct {
	mode   Mode
	secret []byte
	server *httptest.Server

	mu       sync.Mutex
	users    map[string]User
	sessions map[string]string // cookie session id -> username

	requests atomic.Int64
}

// New starts the fake identity service and registers its shutdown with t.
func New(t *testing.T, mode Mode, users ...User) *Service {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("failed to generate token secret: %v", err)
	}

	s := &Service{
		mode:     mode,
		secret:   secret,
		users:    make(map[string]User),
		sessions: make(map[string]string),
	}
	for _, u := range users {
		s.users[u.Username] = u
	}

	router := gin.New()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	router.Use(func(c *gin.Context) {
		s.requests.Add(1)
		c.Next()
	})

	router.POST("/auth/login", s.login)
	router.GET("/auth/me", s.me)
	router.POST("/auth/", s.register)
	router.POST("/auth/logout", s.logout)

	s.server = httptest.NewServer(router)
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the service origin.
func (s *Service) URL() string { return s.server.URL }

// Requests reports how many requests reached the service.
func (s *Service) Requests() int64 { return s.requests.Load() }

// SessionCount reports live cookie sessions (ModeCookie only).
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// HasUser reports whether an account with the username exists.
func (s *Service) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

func (s *Service) login(c *gin.Context) {
	// The real service takes an OAuth2 password form, not JSON.
	username := c.PostForm("username")
	password := c.PostForm("password")

	s.mu.Lock()
	user, ok := s.users[username]
	s.mu.Unlock()

	if !ok || user.Password != password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}

	if s.mode == ModeCookie {
		sessionID := newSessionID()
		s.mu.Lock()
		s.sessions[sessionID] = username
		s.mu.Unlock()

		c.SetCookie(sessionCookieName, sessionID, 3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Service) me(c *gin.Context) {
	user, ok := s.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	resp := gin.H{
		"user_id":  user.UserID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}
	if user.FirstName != "" {
		resp["first_name"] = user.FirstName
	}
	if user.LastName != "" {
		resp["last_name"] = user.LastName
	}
	c.JSON(http.StatusOK, resp)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Service) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username or email already registered."})
		return
	}
	s.users[req.Username] = User{
		UserID:   int64(len(s.users) + 1),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully."})
}

func (s *Service) logout(c *gin.Context) {
	if s.mode != ModeCookie {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Service) authenticate(c *gin.Context) (User, bool) {
	if s.mode == ModeCookie {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil {
			return User{}, false
		}
		s.mu.Lock()
		username, ok := s.sessions[cookie]
		user := s.users[username]
		s.mu.Unlock()
		return user, ok
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return User{}, false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return User{}, false
	}

	s.mu.Lock()
	user, ok := s.users[claims.Subject]
	s.mu.Unlock()
	return user, ok
}

func (s *Service) issueToken(user User) (string, error) {
	claims := Claims{
		UserID:  user.UserID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func newSessionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
