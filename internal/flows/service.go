package flows

import (
	"context"

	"github.com/MrEthical07/recipeauth/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Session.State != nil && s.deps.Account.Ledger != nil
}

// State returns the session holder shared by the session flows.
func (s Service) State() *SessionState {
	return s.deps.Session.State
}

func (s Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return RunLogin(ctx, email, password, s.deps.Session)
}

func (s Service) Register(ctx context.Context, email, password, name string) (*session.Session, error) {
	return RunRegister(ctx, email, password, name, s.deps.Session)
}

func (s Service) Logout(ctx context.Context) error {
	return RunLogout(ctx, s.deps.Session)
}

func (s Service) ResetPassword(ctx context.Context, email string) string {
	return RunResetPassword(ctx, email, s.deps.Session)
}

func (s Service) UpdateAccount(ctx context.Context, current *session.Session, changes AccountChanges) (*AccountUpdateResult, error) {
	return RunAccountUpdate(ctx, current, changes, s.deps.Account)
}
