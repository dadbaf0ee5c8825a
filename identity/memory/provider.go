// Package memory is an in-process identity provider. It keeps accounts in a
// map, hashes passwords with Argon2id and issues HS256 ID tokens. It backs
// the CLI's offline mode, the HTTP example and the tests.
package memory

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/jwt"
	"github.com/MrEthical07/recipeauth/password"
)

// Op names a provider operation for fault injection.
type Op string

const (
	OpSignIn            Op = "signIn"
	OpSignUp            Op = "signUp"
	OpUpdateDisplayName Op = "updateDisplayName"
	OpSignOut           Op = "signOut"
	OpSendPasswordReset Op = "sendPasswordReset"
	OpCurrent           Op = "current"
)

type account struct {
	uid         string
	email       string
	displayName string
	hash        string
	disabled    bool
}

// Provider implements identity.Provider and identity.PasswordVerifier.
type Provider struct {
	hasher *password.Argon2
	tokens *jwt.Manager

	mu        sync.Mutex
	accounts  map[string]*account
	current   *identity.Principal
	listeners map[uint64]func(*identity.Principal)
	nextID    uint64
	faults    map[Op]error
	resets    []string

	unavailable atomic.Bool
}

var (
	_ identity.Provider         = (*Provider)(nil)
	_ identity.PasswordVerifier = (*Provider)(nil)
)

// Option customizes a Provider.
type Option func(*options)

type options struct {
	hasher *password.Argon2
	tokens *jwt.Manager
}

// WithHasher replaces the default Argon2id hasher.
func WithHasher(h *password.Argon2) Option {
	return func(o *options) { o.hasher = h }
}

// WithTokens replaces the default token manager.
func WithTokens(m *jwt.Manager) Option {
	return func(o *options) { o.tokens = m }
}

// New returns an empty provider. Without WithTokens a random HS256 key is
// generated.
func New(opts ...Option) (*Provider, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.hasher == nil {
		h, err := password.NewArgon2(password.Config{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		})
		if err != nil {
			return nil, err
		}
		o.hasher = h
	}
	if o.tokens == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		m, err := jwt.NewManager(jwt.Config{
			TTL:           time.Hour,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    key,
			Issuer:        "recipeauth-memory",
		})
		if err != nil {
			return nil, err
		}
		o.tokens = m
	}

	return &Provider{
		hasher:    o.hasher,
		tokens:    o.tokens,
		accounts:  make(map[string]*account),
		listeners: make(map[uint64]func(*identity.Principal)),
		faults:    make(map[Op]error),
	}, nil
}

// Tokens returns the manager that signs ID tokens, for verification.
func (p *Provider) Tokens() *jwt.Manager { return p.tokens }

// SetUnavailable simulates an outage: every call fails with
// identity.ErrUnavailable until cleared.
func (p *Provider) SetUnavailable(down bool) { p.unavailable.Store(down) }

// FailOn makes op return err until FailOn(op, nil) is called.
func (p *Provider) FailOn(op Op, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.faults, op)
		return
	}
	p.faults[op] = err
}

// Disable marks an account as disabled.
func (p *Provider) Disable(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.accounts[email]; ok {
		a.disabled = true
	}
}

// Resets returns the addresses that were sent a reset email.
func (p *Provider) Resets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

// DisplayName returns the stored display name of an account.
func (p *Provider) DisplayName(email string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[email]
	if !ok {
		return "", false
	}
	return a.displayName, true
}

func (p *Provider) check(op Op) error {
	if p.unavailable.Load() {
		return identity.ErrUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.faults[op]
}

// SignIn authenticates email/password and makes the account current.
func (p *Provider) SignIn(ctx context.Context, email, pw string) (*identity.Principal, error) {
	if err := p.check(OpSignIn); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !plausibleEmail(email) {
		return nil, identity.NewCredentialError(identity.CodeInvalidEmail, "")
	}

	p.mu.Lock()
	a, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return nil, identity.NewCredentialError(identity.CodeUserNotFound, "")
	}
	if a.disabled {
		return nil, identity.NewCredentialError(identity.CodeUserDisabled, "")
	}
	match, err := p.hasher.Verify(pw, a.hash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, identity.NewCredentialError(identity.CodeWrongPassword, "")
	}

	return p.establish(a)
}

// SignUp creates an account and makes it current.
func (p *Provider) SignUp(ctx context.Context, email, pw string) (*identity.Principal, error) {
	if err := p.check(OpSignUp); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !plausibleEmail(email) {
		return nil, identity.NewCredentialError(identity.CodeInvalidEmail, "")
	}
	if utf8.RuneCountInString(pw) < password.DefaultMinLength {
		return nil, identity.NewCredentialError(identity.CodeWeakPassword, "")
	}

	hash, err := p.hasher.Hash(pw)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, identity.NewCredentialError(identity.CodeEmailInUse, "")
	}
	a := &account{uid: uuid.NewString(), email: email, hash: hash}
	p.accounts[email] = a
	p.mu.Unlock()

	return p.establish(a)
}

// UpdateDisplayName sets the display name of the account behind pr.
func (p *Provider) UpdateDisplayName(ctx context.Context, pr *identity.Principal, name string) error {
	if err := p.check(OpUpdateDisplayName); err != nil {
		return err
	}
	if pr == nil {
		return errors.New("memory provider: nil principal")
	}

	p.mu.Lock()
	var target *account
	for _, a := range p.accounts {
		if a.uid == pr.UID {
			target = a
			break
		}
	}
	if target == nil {
		p.mu.Unlock()
		return identity.NewCredentialError(identity.CodeUserNotFound, "")
	}
	target.displayName = name
	if p.current != nil && p.current.UID == pr.UID {
		p.current.DisplayName = name
	}
	p.mu.Unlock()
	return nil
}

// SignOut ends the current session and notifies listeners with nil.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.check(OpSignOut); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notify(nil)
	return nil
}

// SendPasswordReset records a reset request for an existing account.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if err := p.check(OpSendPasswordReset); err != nil {
		return err
	}
	if !plausibleEmail(email) {
		return identity.NewCredentialError(identity.CodeInvalidEmail, "")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; !ok {
		return identity.NewCredentialError(identity.CodeUserNotFound, "")
	}
	p.resets = append(p.resets, email)
	return nil
}

// Current returns the signed-in principal, or nil.
func (p *Provider) Current(ctx context.Context) (*identity.Principal, error) {
	if err := p.check(OpCurrent); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	c := *p.current
	return &c, nil
}

// Subscribe registers fn for session changes. fn is not called on
// registration.
func (p *Provider) Subscribe(fn func(*identity.Principal)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// VerifyPassword checks a password without touching the current session.
func (p *Provider) VerifyPassword(ctx context.Context, email, pw string) error {
	if p.unavailable.Load() {
		return identity.ErrUnavailable
	}
	p.mu.Lock()
	a, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return identity.NewCredentialError(identity.CodeUserNotFound, "")
	}
	match, err := p.hasher.Verify(pw, a.hash)
	if err != nil {
		return err
	}
	if !match {
		return identity.NewCredentialError(identity.CodeWrongPassword, "")
	}
	return nil
}

// Emit delivers pr to every listener as if the provider session changed out
// of band (token refresh, sign-in in another tab).
func (p *Provider) Emit(pr *identity.Principal) {
	p.mu.Lock()
	if pr == nil {
		p.current = nil
	} else {
		c := *pr
		p.current = &c
	}
	p.mu.Unlock()
	p.notify(pr)
}

func (p *Provider) establish(a *account) (*identity.Principal, error) {
	token, err := p.tokens.Issue(a.uid, a.email, a.displayName)
	if err != nil {
		return nil, err
	}
	pr := &identity.Principal{
		UID:         a.uid,
		Email:       a.email,
		DisplayName: a.displayName,
		IDToken:     token,
	}

	p.mu.Lock()
	c := *pr
	p.current = &c
	p.mu.Unlock()

	p.notify(pr)
	return pr, nil
}

func (p *Provider) notify(pr *identity.Principal) {
	p.mu.Lock()
	fns := make([]func(*identity.Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		if pr == nil {
			fn(nil)
			continue
		}
		c := *pr
		fn(&c)
	}
}

func plausibleEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}
