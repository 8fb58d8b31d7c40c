// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fakebackend runs an in-memory imitation of the REST backend for
// tests. It issues signed JWT access tokens, stores bcrypt password hashes
// and serves the auth, content and comment endpoints the site calls.
package fakebackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/olegiv/folio-go/internal/model"
)

var signingKey = []byte("fake-backend-signing-key")

const accessTTL = 15 * time.Minute

type claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type account struct {
	user model.User
	hash []byte
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	// RegisterSignsIn makes register return a token pair like login does.
	RegisterSignsIn bool

	mu        sync.Mutex
	nextID    int64
	accounts  map[string]*account
	refresh   map[string]int64
	posts     []model.Post
	portfolio []model.PortfolioItem
	comments  []model.Comment
	hits      map[string]int
	languages []string
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		RegisterSignsIn: true,
		accounts:        make(map[string]*account),
		refresh:         make(map[string]int64),
		hits:            make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.requireUser(s.handleMe))
		r.Put("/me", s.requireUser(s.handleUpdateMe))
	})

	r.Route("/content", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Post("/posts", s.requireAdmin(s.handleSavePost))
		r.Put("/posts/{id}", s.requireAdmin(s.handleSavePost))
		r.Delete("/posts/{id}", s.requireAdmin(s.handleDeletePost))

		r.Get("/portfolio", s.handleListPortfolio)
		r.Get("/portfolio/{id}", s.handleGetPortfolio)
		r.Post("/portfolio", s.requireAdmin(s.handleSavePortfolio))
		r.Put("/portfolio/{id}", s.requireAdmin(s.handleSavePortfolio))
		r.Delete("/portfolio/{id}", s.requireAdmin(s.handleDeletePortfolio))
	})

	r.Get("/comments", s.handleListComments)
	r.Post("/comments", s.requireUser(s.handleCreateComment))
	r.Delete("/comments/{id}", s.requireUser(s.handleDeleteComment))

	return r
}

// AddUser creates an account and returns it.
func (s *Server) AddUser(username, email, password string, role model.Role) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(username, email, hash, role)
}

func (s *Server) addLocked(username, email string, hash []byte, role model.Role) model.User {
	s.nextID++
	now := time.Now().UTC()
	u := model.User{
		ID:        s.nextID,
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[username] = &account{user: u, hash: hash}
	return u
}

// AddPost stores a post and returns it with its ID.
func (s *Server) AddPost(p model.Post) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.posts = append(s.posts, p)
	return p
}

// AddPortfolioItem stores a portfolio item and returns it with its ID.
func (s *Server) AddPortfolioItem(it model.PortfolioItem) model.PortfolioItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it.ID = s.nextID
	s.portfolio = append(s.portfolio, it)
	return it
}

// Posts returns a copy of the stored posts.
func (s *Server) Posts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

// PortfolioItems returns a copy of the stored portfolio items.
func (s *Server) PortfolioItems() []model.PortfolioItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.portfolio)
}

// Hits returns how many requests were made to "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Languages returns the Accept-Language values seen so far.
func (s *Server) Languages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.languages)
}

// IssueToken signs an access token for userID, for tests that need to
// seed a session directly.
func (s *Server) IssueToken(userID int64) string {
	tok, err := sign(userID, accessTTL)
	if err != nil {
		panic(err)
	}
	return tok
}

// ExpiredToken returns an access token that the backend rejects.
func (s *Server) ExpiredToken(userID int64) string {
	tok, err := sign(userID, -time.Minute)
	if err != nil {
		panic(err)
	}
	return tok
}

func sign(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	c := &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(signingKey)
}

func parse(raw string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		if lang := r.Header.Get("Accept-Language"); lang != "" {
			s.languages = append(s.languages, lang)
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, u model.User)

func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Full authentication is required")
			return
		}
		c, err := parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token expired or invalid")
			return
		}
		u, found := s.userByID(c.UserID)
		if !found {
			writeError(w, http.StatusUnauthorized, "Token expired or invalid")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request, u model.User) {
		if !u.HasPrivilegedRole() && u.Username != model.LegacyAdminUsername {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r)
	})
}

func (s *Server) userByID(id int64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return model.User{}, false
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user,omitempty"`
}

func (s *Server) issuePair(u model.User) (authResponse, error) {
	access, err := sign(u.ID, accessTTL)
	if err != nil {
		return authResponse{}, err
	}
	refresh := uuid.NewString()
	s.mu.Lock()
	s.refresh[refresh] = u.ID
	s.mu.Unlock()
	return authResponse{AccessToken: access, RefreshToken: refresh, User: &u}, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[in.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(in.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}

	resp, err := s.issuePair(a.user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Validation failed")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	if _, taken := s.accounts[in.Username]; taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, in.Email) {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "Email is already in use")
			return
		}
	}
	u := s.addLocked(in.Username, in.Email, hash, model.RoleUser)
	s.mu.Unlock()

	if !s.RegisterSignsIn {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully"})
		return
	}
	resp, err := s.issuePair(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshBody
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	id, ok := s.refresh[in.RefreshToken]
	delete(s.refresh, in.RefreshToken)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Refresh token is not valid")
		return
	}
	u, found := s.userByID(id)
	if !found {
		writeError(w, http.StatusUnauthorized, "Refresh token is not valid")
		return
	}
	resp, err := s.issuePair(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in refreshBody
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	delete(s.refresh, in.RefreshToken)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, u model.User) {
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, u model.User) {
	var in struct {
		Email     string `json:"email"`
		AvatarURL string `json:"avatarUrl"`
		Gender    string `json:"gender"`
		Birthday  string `json:"birthday"`
		Address   string `json:"address"`
		Phone     string `json:"phone"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	a := s.accounts[u.Username]
	for field, value := range map[*string]string{
		&a.user.Email:     in.Email,
		&a.user.AvatarURL: in.AvatarURL,
		&a.user.Gender:    in.Gender,
		&a.user.Birthday:  in.Birthday,
		&a.user.Address:   in.Address,
		&a.user.Phone:     in.Phone,
	} {
		if value != "" {
			*field = value
		}
	}
	a.user.UpdatedAt = time.Now().UTC()
	updated := a.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListPosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Posts())
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.posts, func(p model.Post) bool { return p.ID == id })
	var p model.Post
	if i >= 0 {
		s.posts[i].Views++
		p = s.posts[i]
	}
	s.mu.Unlock()
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSavePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !decode(w, r, &in) {
		return
	}
	now := time.Now().UTC()
	p := model.Post{
		Title:            in.Title,
		TitleLocalized:   in.TitleLocalized,
		Content:          in.Content,
		ContentLocalized: in.ContentLocalized,
		Excerpt:          in.Excerpt,
		ExcerptLocalized: in.ExcerptLocalized,
		Slug:             in.Slug,
		ImageURL:         in.ImageURL,
		CategoryKey:      in.CategoryKey,
		Date:             in.Date,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if chi.URLParam(r, "id") == "" {
		s.nextID++
		p.ID = s.nextID
		p.CreatedAt = now
		s.posts = append(s.posts, p)
		writeJSON(w, http.StatusCreated, p)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	i := slices.IndexFunc(s.posts, func(p model.Post) bool { return p.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	p.ID, p.CreatedAt, p.Views = id, s.posts[i].CreatedAt, s.posts[i].Views
	s.posts[i] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	n := len(s.posts)
	s.posts = slices.DeleteFunc(s.posts, func(p model.Post) bool { return p.ID == id })
	removed := n != len(s.posts)
	s.mu.Unlock()
	if !removed {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.PortfolioItems())
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.portfolio, func(it model.PortfolioItem) bool { return it.ID == id })
	var it model.PortfolioItem
	if i >= 0 {
		s.portfolio[i].Views++
		it = s.portfolio[i]
	}
	s.mu.Unlock()
	if i < 0 {
		writeError(w, http.StatusNotFound, "Portfolio item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleSavePortfolio(w http.ResponseWriter, r *http.Request) {
	var in model.PortfolioInput
	if !decode(w, r, &in) {
		return
	}
	now := time.Now().UTC()
	it := model.PortfolioItem{
		Title:                in.Title,
		TitleLocalized:       in.TitleLocalized,
		Description:          in.Description,
		DescriptionLocalized: in.DescriptionLocalized,
		ImageURL:             in.ImageURL,
		Width:                in.Width,
		Height:               in.Height,
		CategoryKey:          in.CategoryKey,
		Date:                 in.Date,
		UpdatedAt:            now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if chi.URLParam(r, "id") == "" {
		s.nextID++
		it.ID = s.nextID
		it.CreatedAt = now
		s.portfolio = append(s.portfolio, it)
		writeJSON(w, http.StatusCreated, it)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	i := slices.IndexFunc(s.portfolio, func(it model.PortfolioItem) bool { return it.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Portfolio item not found")
		return
	}
	it.ID, it.CreatedAt, it.Views = id, s.portfolio[i].CreatedAt, s.portfolio[i].Views
	s.portfolio[i] = it
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	n := len(s.portfolio)
	s.portfolio = slices.DeleteFunc(s.portfolio, func(it model.PortfolioItem) bool { return it.ID == id })
	removed := n != len(s.portfolio)
	s.mu.Unlock()
	if !removed {
		writeError(w, http.StatusNotFound, "Portfolio item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(r.URL.Query().Get("postId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "postId is required")
		return
	}
	s.mu.Lock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, u model.User) {
	var in model.CommentInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		writeError(w, http.StatusBadRequest, "Comment content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.ContainsFunc(s.posts, func(p model.Post) bool { return p.ID == in.PostID }) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	s.nextID++
	c := model.Comment{
		ID:        s.nextID,
		PostID:    in.PostID,
		UserID:    u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Content:   in.Content,
		CreatedAt: time.Now().UTC(),
	}
	s.comments = append(s.comments, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, u model.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.comments, func(c model.Comment) bool { return c.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if s.comments[i].UserID != u.ID && !u.HasPrivilegedRole() {
		writeError(w, http.StatusForbidden, "You can only delete your own comments")
		return
	}
	s.comments = slices.Delete(s.comments, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"status":  status,
		"message": msg,
	})
}
