// Package client is a Go client for the Inkwell HTTP API. A Session carries the
// bearer token between calls; Logout discards it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-blog/inkwell/internal/blog"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Account is returned by Register and Login.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Profile is the caller's own account.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("inkwell api: %d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("inkwell api: %d %s", e.Status, e.Title)
}

// Unwrap maps the status back to the shared error taxonomy so callers can use
// errors.Is with the same sentinels the server uses.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return shared.ErrValidation
	case http.StatusUnauthorized:
		return shared.ErrUnauthenticated
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusConflict:
		return shared.ErrConflict
	default:
		return shared.ErrInternal
	}
}

// Option customises a Session.
type Option func(*Session)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.http = c
	}
}

// WithToken starts the session already signed in.
func WithToken(token string) Option {
	return func(s *Session) {
		s.token = token
	}
}

// Session talks to one API base URL on behalf of at most one signed in user.
type Session struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New builds a Session for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether the session holds a token.
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// Logout forgets the token. Tokens are stateless, so nothing is sent to the
// server; the token stays valid until it expires.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Register creates an account and signs the session in as it.
func (s *Session) Register(ctx context.Context, name, email, password string) (Account, error) {
	var account Account
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/register", body, &account); err != nil {
		return Account{}, err
	}
	s.setToken(account.Token)
	return account, nil
}

// Login signs the session in.
func (s *Session) Login(ctx context.Context, email, password string) (Account, error) {
	var account Account
	body := map[string]string{"email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", body, &account); err != nil {
		return Account{}, err
	}
	s.setToken(account.Token)
	return account, nil
}

// Profile fetches the signed in account.
func (s *Session) Profile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := s.do(ctx, http.MethodGet, "/api/profile", nil, &profile)
	return profile, err
}

// Feed lists every post, newest first.
func (s *Session) Feed(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	err := s.do(ctx, http.MethodGet, "/api/blogs", nil, &posts)
	return posts, err
}

// MyPosts lists the posts authored by the signed in account.
func (s *Session) MyPosts(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	err := s.do(ctx, http.MethodGet, "/api/blogs/my-blogs", nil, &posts)
	return posts, err
}

// Post fetches one post.
func (s *Session) Post(ctx context.Context, id string) (blog.Post, error) {
	var post blog.Post
	err := s.do(ctx, http.MethodGet, "/api/blogs/"+url.PathEscape(id), nil, &post)
	return post, err
}

// CreatePost publishes a post as the signed in account.
func (s *Session) CreatePost(ctx context.Context, title, content string) (blog.Post, error) {
	var post blog.Post
	body := map[string]string{"title": title, "content": content}
	err := s.do(ctx, http.MethodPost, "/api/blogs", body, &post)
	return post, err
}

// UpdatePost changes title and/or content. Empty values keep the stored text.
func (s *Session) UpdatePost(ctx context.Context, id, title, content string) (blog.Post, error) {
	var post blog.Post
	body := map[string]string{"title": title, "content": content}
	err := s.do(ctx, http.MethodPut, "/api/blogs/"+url.PathEscape(id), body, &post)
	return post, err
}

// DeletePost removes a post.
func (s *Session) DeletePost(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/blogs/"+url.PathEscape(id), nil, nil)
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Title == "" {
			apiErr.Title = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}
