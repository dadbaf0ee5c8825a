package session

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// CurrentSchemaVersion is written by Encode.
	CurrentSchemaVersion = 2
	legacySchemaVersion  = 1
)

var (
	// ErrCorrupt is returned by Decode for content that is not a session record.
	ErrCorrupt = errors.New("corrupt session record")
	// ErrUnsupportedVersion is returned by Decode for unknown schema versions.
	ErrUnsupportedVersion = errors.New("unsupported session schema version")
)

type wireV2 struct {
	V             int        `json:"v"`
	ID            string     `json:"id,omitempty"`
	DisplayName   string     `json:"displayName,omitempty"`
	Email         string     `json:"email"`
	Authenticated bool       `json:"isAuthenticated"`
	Provider      Provider   `json:"provider"`
	EstablishedAt *time.Time `json:"establishedAt,omitempty"`
}

// wireV1 is any record written without a version field. It covers the
// legacy login shape and bare records such as
// {"isAuthenticated":true,"email":"a@b.com"}.
type wireV1 struct {
	UID             string `json:"uid"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	IsLoggedIn      bool   `json:"isLoggedIn"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Provider        string `json:"provider"`
	LoginAt         string `json:"loginAt"`
	RegisteredAt    string `json:"registeredAt"`
}

type versionProbe struct {
	V *int `json:"v"`
}

// Encode serializes s at CurrentSchemaVersion.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if !s.Valid() {
		return nil, fmt.Errorf("%w: email and provider are required", ErrCorrupt)
	}

	w := wireV2{
		V:             CurrentSchemaVersion,
		ID:            s.ID,
		DisplayName:   s.DisplayName,
		Email:         s.Email,
		Authenticated: s.Authenticated,
		Provider:      s.Provider,
	}
	if !s.EstablishedAt.IsZero() {
		at := s.EstablishedAt.UTC()
		w.EstablishedAt = &at
	}
	return json.Marshal(w)
}

// Decode parses a record of any supported schema version and returns it in
// the current shape.
func Decode(data []byte) (*Session, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	version := legacySchemaVersion
	if probe.V != nil {
		version = *probe.V
	}

	var s *Session
	switch version {
	case CurrentSchemaVersion:
		var w wireV2
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		s = &Session{
			ID:            w.ID,
			DisplayName:   w.DisplayName,
			Email:         w.Email,
			Authenticated: w.Authenticated,
			Provider:      w.Provider,
		}
		if s.Provider == "" {
			s.Provider = inferProvider(s.ID)
		}
		if w.EstablishedAt != nil {
			s.EstablishedAt = *w.EstablishedAt
		}
	case legacySchemaVersion:
		var w wireV1
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		s = migrateV1(w)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if !s.Valid() {
		return nil, fmt.Errorf("%w: missing email or provider", ErrCorrupt)
	}
	return s, nil
}

func migrateV1(w wireV1) *Session {
	s := &Session{
		ID:            cmp.Or(w.ID, w.UID),
		DisplayName:   cmp.Or(w.DisplayName, w.Name),
		Email:         w.Email,
		Authenticated: w.IsAuthenticated || w.IsLoggedIn,
	}

	switch w.Provider {
	case "firebase", string(ProviderRemote):
		s.Provider = ProviderRemote
	case "localStorage", string(ProviderLocal):
		s.Provider = ProviderLocal
	default:
		s.Provider = inferProvider(s.ID)
	}

	for _, raw := range []string{w.LoginAt, w.RegisteredAt} {
		if raw == "" {
			continue
		}
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			s.EstablishedAt = at
			break
		}
	}
	return s
}

// inferProvider treats records carrying a provider ID as remote and
// everything else as local.
func inferProvider(id string) Provider {
	if id != "" {
		return ProviderRemote
	}
	return ProviderLocal
}
