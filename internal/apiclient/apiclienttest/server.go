// Package apiclienttest provides an in-process fake of the upstream AG Office
// authentication API for tests. It issues HS256 JWT access tokens bound to a
// server-side session, so revoking a session invalidates its access tokens.
package apiclienttest

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const signingSecret = "apiclienttest-secret"

// User is an account known to the fake upstream.
type User struct {
	ID          string
	Email       string
	Password    string
	FullName    string
	Role        string
	Permissions []string
	// Configuration is served verbatim from GET /configuration/me.
	Configuration string

	passwordHash []byte
}

type session struct {
	id           string
	userID       string
	refreshToken string
	deviceInfo   string
	ipAddress    string
	createdAt    time.Time
	lastUsedAt   time.Time
}

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Server is the fake upstream.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*User
	sessions map[string]*session
	calls    map[string]int

	failures  map[string]int
	accessTTL time.Duration
}

// New starts a fake upstream that is closed when the test ends.
func New(t testing.TB, users ...User) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		users:     make(map[string]*User),
		sessions:  make(map[string]*session),
		calls:     make(map[string]int),
		accessTTL: time.Hour,
		failures:  make(map[string]int),
	}
	for i := range users {
		s.AddUser(users[i])
	}

	r := gin.New()
	r.Use(s.record)
	r.POST("/auth/login", s.login)
	r.POST("/auth/refresh", s.refresh)

	authed := r.Group("/", s.authenticate)
	authed.POST("/auth/logout", s.logout)
	authed.POST("/auth/logout-all", s.logoutAll)
	authed.GET("/auth/sessions", s.listSessions)
	authed.DELETE("/auth/sessions/:id", s.revokeSession)
	authed.GET("/auth/me/permissions", s.permissions)
	authed.GET("/users/me", s.me)
	authed.GET("/configuration/me", s.configuration)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// AddUser registers an account, hashing its password.
func (s *Server) AddUser(u User) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u.passwordHash = hash
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Email)] = &u
}

// SetPermissions replaces a user's permission codes.
func (s *Server) SetPermissions(email string, codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.Permissions = codes
	}
}

// SetFullName changes the name reported for a user.
func (s *Server) SetFullName(email, fullName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.FullName = fullName
	}
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// Fail makes the route path (gin syntax, e.g. "/auth/sessions/:id") answer
// with status until Recover is called.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Recover clears a failure installed with Fail.
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Calls returns how many requests path received.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RevokeAll drops every session, invalidating all issued tokens.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*session)
}

// StartSession opens a session for email as if signed in from another
// device, returning its id.
func (s *Server) StartSession(email, device string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[strings.ToLower(email)]
	if u == nil {
		return ""
	}
	sess := s.newSession(u.ID, device, "203.0.113.7")
	return sess.id
}

func (s *Server) record(c *gin.Context) {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	s.mu.Lock()
	s.calls[path]++
	status, failing := s.failures[path]
	s.mu.Unlock()
	if failing {
		c.AbortWithStatusJSON(status, gin.H{"detail": "induced failure"})
		return
	}
	c.Next()
}

func (s *Server) newSession(userID, device, ip string) *session {
	now := time.Now().UTC()
	sess := &session{
		id:         uuid.NewString(),
		userID:     userID,
		deviceInfo: device,
		ipAddress:  ip,
		createdAt:  now,
		lastUsedAt: now,
	}
	s.sessions[sess.id] = sess
	return sess
}

func (s *Server) issue(sess *session, withRefresh bool) (gin.H, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sess.id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString([]byte(signingSecret))
	if err != nil {
		return nil, err
	}
	out := gin.H{
		"access_token": signed,
		"token_type":   "bearer",
		"expires_in":   int64(s.accessTTL.Seconds()),
	}
	if withRefresh {
		sess.refreshToken = randomToken()
		out["refresh_token"] = sess.refreshToken
		out["refresh_expires_in"] = int64((7 * 24 * time.Hour).Seconds())
	}
	return out, nil
}

func (s *Server) login(c *gin.Context) {
	email := strings.ToLower(c.PostForm("username"))
	password := c.PostForm("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}

	sess := s.newSession(u.ID, c.GetHeader("User-Agent"), c.ClientIP())
	out, err := s.issue(sess, c.Query("remember_me") == "true")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid refresh token"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.refreshToken != "" && sess.refreshToken == body.RefreshToken {
			sess.lastUsedAt = time.Now().UTC()
			out, err := s.issue(sess, true)
			if err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid refresh token"})
}

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (interface{}, error) {
		return []byte(signingSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[parsed.SessionID]
	if ok {
		sess.lastUsedAt = time.Now().UTC()
	}
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Session revoked"})
		return
	}
	c.Set("session", sess)
	c.Next()
}

func (s *Server) currentUser(c *gin.Context) (*User, *session) {
	sess := c.MustGet("session").(*session)
	for _, u := range s.users {
		if u.ID == sess.userID {
			return u, sess
		}
	}
	return nil, sess
}

func (s *Server) logout(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, current := s.currentUser(c)
	delete(s.sessions, current.id)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) logoutAll(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"current_password"`
	}
	_ = c.ShouldBindJSON(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.currentUser(c)
	if u == nil || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(body.CurrentPassword)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect password"})
		return
	}
	revoked := 0
	for id, sess := range s.sessions {
		if sess.userID == u.ID {
			delete(s.sessions, id)
			revoked++
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "all sessions revoked", "revoked_sessions": revoked})
}

func (s *Server) listSessions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, current := s.currentUser(c)
	out := make([]gin.H, 0)
	for _, sess := range s.sessions {
		if u == nil || sess.userID != u.ID {
			continue
		}
		out = append(out, gin.H{
			"id":           sess.id,
			"device_info":  sess.deviceInfo,
			"ip_address":   sess.ipAddress,
			"created_at":   sess.createdAt,
			"last_used_at": sess.lastUsedAt,
			"is_current":   sess.id == current.id,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "total": len(out)})
}

func (s *Server) revokeSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.currentUser(c)
	sess, ok := s.sessions[c.Param("id")]
	if !ok || u == nil || sess.userID != u.ID {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	delete(s.sessions, sess.id)
	c.Status(http.StatusNoContent)
}

func (s *Server) permissions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.currentUser(c)
	out := make([]gin.H, 0)
	if u != nil {
		for _, code := range u.Permissions {
			resource, action, _ := strings.Cut(code, ":")
			out = append(out, gin.H{"code": code, "resource": resource, "action": action})
		}
	}
	c.JSON(http.StatusOK, gin.H{"permissions": out})
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.currentUser(c)
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"is_active": true,
		"roles":     []gin.H{{"id": "r-" + strings.ToLower(u.Role), "name": u.Role}},
	})
}

func (s *Server) configuration(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.currentUser(c)
	body := "{}"
	if u != nil && u.Configuration != "" {
		body = u.Configuration
	}
	c.Data(http.StatusOK, "application/json", []byte(body))
}

func randomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
