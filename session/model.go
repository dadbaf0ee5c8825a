package session

import (
	"strings"
	"time"
)

// Provider identifies which backend established a session.
type Provider string

const (
	ProviderRemote Provider = "remote"
	ProviderLocal  Provider = "local"
)

// Session is the client-side view of the current user.
//
// ID is set only for provider-issued sessions. Email is always present for a
// valid record.
type Session struct {
	ID            string
	DisplayName   string
	Email         string
	Authenticated bool
	Provider      Provider
	EstablishedAt time.Time
}

// Label returns DisplayName, or the local part of Email when no name is set.
func (s *Session) Label() string {
	if s == nil {
		return ""
	}
	if name := strings.TrimSpace(s.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(s.Email, "@")
	return local
}

// IsRemote reports whether the identity provider issued the session.
func (s *Session) IsRemote() bool {
	return s != nil && s.Provider == ProviderRemote
}

// Clone returns a copy safe to hand to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Valid reports whether the record can be treated as a session at all.
func (s *Session) Valid() bool {
	if s == nil || s.Email == "" {
		return false
	}
	return s.Provider == ProviderRemote || s.Provider == ProviderLocal
}
