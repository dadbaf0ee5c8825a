// Package rest is an identity.Provider backed by an identity toolkit REST API
// (accounts:signInWithPassword, accounts:signUp, accounts:update,
// accounts:sendOobCode).
//
// The provider session lives in the client: SignIn and SignUp make a
// principal current, SignOut forgets it. Nothing survives a process restart,
// so a new process reports no principal until the next sign-in.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/jwt"
)

const (
	defaultEndpoint = "https://identitytoolkit.googleapis.com"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

// Config configures the client. APIKey is required for every call; without it
// every operation reports identity.ErrUnavailable.
type Config struct {
	APIKey   string
	Endpoint string

	HTTPClient *http.Client
	// RequestsPerSecond bounds outbound calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int

	Logger *zap.Logger
}

// Client implements identity.Provider and identity.PasswordVerifier.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger

	mu        sync.Mutex
	current   *identity.Principal
	listeners map[uint64]func(*identity.Principal)
	nextID    uint64
}

var (
	_ identity.Provider         = (*Client)(nil)
	_ identity.PasswordVerifier = (*Client)(nil)
)

// New returns a Client. The endpoint defaults to the public identity toolkit.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:       cfg,
		http:      httpClient,
		limiter:   limiter,
		log:       log,
		listeners: make(map[uint64]func(*identity.Principal)),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn calls accounts:signInWithPassword and makes the result current.
func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	var resp accountResponse
	if err := c.call(ctx, "accounts:signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return nil, err
	}
	pr := c.principal(resp)
	c.setCurrent(pr)
	return pr, nil
}

// SignUp calls accounts:signUp and makes the new account current.
func (c *Client) SignUp(ctx context.Context, email, password string) (*identity.Principal, error) {
	var resp accountResponse
	if err := c.call(ctx, "accounts:signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp); err != nil {
		return nil, err
	}
	pr := c.principal(resp)
	c.setCurrent(pr)
	return pr, nil
}

// UpdateDisplayName calls accounts:update with the principal's ID token.
func (c *Client) UpdateDisplayName(ctx context.Context, pr *identity.Principal, name string) error {
	if pr == nil || pr.IDToken == "" {
		return errors.New("rest identity: principal has no id token")
	}
	var resp accountResponse
	if err := c.call(ctx, "accounts:update", updateRequest{IDToken: pr.IDToken, DisplayName: name, ReturnSecureToken: true}, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	if c.current != nil && c.current.UID == pr.UID {
		c.current.DisplayName = name
		if resp.IDToken != "" {
			c.current.IDToken = resp.IDToken
		}
	}
	c.mu.Unlock()
	return nil
}

// SignOut forgets the current principal and notifies listeners. It does not
// contact the server.
func (c *Client) SignOut(ctx context.Context) error {
	if !c.Configured() {
		return identity.ErrUnavailable
	}
	c.setCurrent(nil)
	return nil
}

// SendPasswordReset calls accounts:sendOobCode with PASSWORD_RESET.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.call(ctx, "accounts:sendOobCode", oobRequest{RequestType: "PASSWORD_RESET", Email: email}, nil)
}

// Current returns the principal established by this client, or nil.
func (c *Client) Current(ctx context.Context) (*identity.Principal, error) {
	if !c.Configured() {
		return nil, identity.ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, nil
	}
	pr := *c.current
	return &pr, nil
}

// Subscribe registers fn for sign-in and sign-out events.
func (c *Client) Subscribe(fn func(*identity.Principal)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// VerifyPassword re-authenticates email without changing the current principal.
func (c *Client) VerifyPassword(ctx context.Context, email, password string) error {
	var resp accountResponse
	return c.call(ctx, "accounts:signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp)
}

func (c *Client) principal(resp accountResponse) *identity.Principal {
	pr := &identity.Principal{
		UID:         resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		IDToken:     resp.IDToken,
	}
	if resp.IDToken == "" {
		return pr
	}
	claims, err := jwt.ParseUnverified(resp.IDToken)
	if err != nil {
		c.log.Debug("id token not decodable", zap.Error(err))
		return pr
	}
	if pr.UID == "" {
		pr.UID = claims.UserID
	}
	if pr.Email == "" {
		pr.Email = claims.Email
	}
	if pr.DisplayName == "" {
		pr.DisplayName = claims.Name
	}
	return pr
}

func (c *Client) setCurrent(pr *identity.Principal) {
	c.mu.Lock()
	if pr == nil {
		c.current = nil
	} else {
		cp := *pr
		c.current = &cp
	}
	fns := make([]func(*identity.Principal), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		if pr == nil {
			fn(nil)
			continue
		}
		cp := *pr
		fn(&cp)
	}
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	if !c.Configured() {
		return identity.ErrUnavailable
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	u := c.cfg.Endpoint + "/v1/" + method + "?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.statusError(method, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", identity.ErrUnavailable, method, err)
	}
	return nil
}

func (c *Client) statusError(method string, status int, raw []byte) error {
	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	reason := providerReason(er.Error.Message)

	if code, ok := mapReason(reason); ok && status < http.StatusInternalServerError {
		return identity.NewCredentialError(code, er.Error.Message)
	}

	c.log.Warn("identity provider call failed",
		zap.String("method", method),
		zap.Int("status", status),
		zap.String("reason", reason),
	)
	return fmt.Errorf("%w: %s returned %d %s", identity.ErrUnavailable, method, status, reason)
}

// providerReason strips the free-text suffix from messages such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func providerReason(msg string) string {
	reason, _, _ := strings.Cut(msg, " ")
	reason, _, _ = strings.Cut(reason, ":")
	return strings.TrimSpace(reason)
}

func mapReason(reason string) (identity.Code, bool) {
	switch reason {
	case "EMAIL_NOT_FOUND":
		return identity.CodeUserNotFound, true
	case "INVALID_PASSWORD":
		return identity.CodeWrongPassword, true
	case "INVALID_EMAIL":
		return identity.CodeInvalidEmail, true
	case "USER_DISABLED":
		return identity.CodeUserDisabled, true
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return identity.CodeTooManyRequests, true
	case "INVALID_LOGIN_CREDENTIALS":
		return identity.CodeInvalidCredential, true
	case "EMAIL_EXISTS":
		return identity.CodeEmailInUse, true
	case "WEAK_PASSWORD":
		return identity.CodeWeakPassword, true
	default:
		return "", false
	}
}

// transportError maps a failed round trip. Deadlines and cancellation are an
// unavailable provider; anything else is a client-side network failure.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	return identity.NewCredentialError(identity.CodeNetworkFailed, err.Error())
}
