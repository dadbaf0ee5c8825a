package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/cache"
)

// ChangeType selects which sequence of an account entry is addressed.
type ChangeType string

const (
	Email    ChangeType = "email"
	Password ChangeType = "password"
)

var (
	// ErrStorage wraps read and write failures of the backing store.
	ErrStorage = errors.New("ledger storage unavailable")
	// ErrUnknownChangeType is returned for a ChangeType other than Email or Password.
	ErrUnknownChangeType = errors.New("ledger: unknown change type")
)

// Config holds the quota policy and the storage key.
type Config struct {
	Limit  int
	Window time.Duration
	Key    string
}

// DefaultConfig is 3 changes per 14 days under "accountChangeLedger".
func DefaultConfig() Config {
	return Config{
		Limit:  3,
		Window: 14 * 24 * time.Hour,
		Key:    "accountChangeLedger",
	}
}

// Quota is the remaining allowance for both change types of one account.
type Quota struct {
	Email    int `json:"email"`
	Password int `json:"password"`
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used for self-healing warnings.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// Ledger is safe for concurrent use within one process.
type Ledger struct {
	store cache.Store
	cfg   Config
	now   func() time.Time
	log   *zap.Logger

	mu sync.Mutex
}

// New returns a Ledger over store. Zero fields of cfg take DefaultConfig values.
func New(store cache.Store, cfg Config, opts ...Option) *Ledger {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Key == "" {
		cfg.Key = def.Key
	}

	l := &Ledger{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the per-window change allowance.
func (l *Ledger) Limit() int { return l.cfg.Limit }

// Window returns the rolling window length.
func (l *Ledger) Window() time.Duration { return l.cfg.Window }

// Policy renders the quota as "3 per 14 days".
func (l *Ledger) Policy() string {
	return strconv.Itoa(l.cfg.Limit) + " per " + FormatWindow(l.cfg.Window)
}

// Remaining returns how many changes of type t the account may still make,
// in [0, Limit]. An account with no entry has the full allowance.
func (l *Ledger) Remaining(ctx context.Context, email string, t ChangeType) (int, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	return l.remaining(doc[email].seq(t), l.now()), nil
}

// CanChange reports whether Remaining is positive.
func (l *Ledger) CanChange(ctx context.Context, email string, t ChangeType) (bool, error) {
	n, err := l.Remaining(ctx, email, t)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Quota returns the remaining allowance for both types from a single read.
func (l *Ledger) Quota(ctx context.Context, email string) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load(ctx)
	if err != nil {
		return Quota{}, err
	}
	now := l.now()
	e := doc[email]
	return Quota{
		Email:    l.remaining(e.EmailChanges, now),
		Password: l.remaining(e.PasswordChanges, now),
	}, nil
}

// Record appends the current time to the account's sequence of type t and
// persists the ledger before returning. Record does not check the quota and
// is not idempotent.
func (l *Ledger) Record(ctx context.Context, email string, t ChangeType) error {
	return l.RecordAll(ctx, email, t)
}

// RecordAll records one change of every listed type with a single write.
// Either every type is recorded or, on error, none is.
func (l *Ledger) RecordAll(ctx context.Context, email string, types ...ChangeType) error {
	if len(types) == 0 {
		return nil
	}
	for _, t := range types {
		if err := t.validate(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load(ctx)
	if err != nil {
		return err
	}

	now := l.now()
	e := doc[email]
	for _, t := range types {
		switch t {
		case Email:
			e.EmailChanges = l.compact(append(e.EmailChanges, now.UTC()), now)
		case Password:
			e.PasswordChanges = l.compact(append(e.PasswordChanges, now.UTC()), now)
		}
	}
	doc[email] = e

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := l.store.Set(ctx, l.cfg.Key, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

type entry struct {
	EmailChanges    []time.Time `json:"emailChanges"`
	PasswordChanges []time.Time `json:"passwordChanges"`
}

func (e entry) seq(t ChangeType) []time.Time {
	if t == Email {
		return e.EmailChanges
	}
	return e.PasswordChanges
}

func (l *Ledger) load(ctx context.Context) (map[string]entry, error) {
	raw, err := l.store.Get(ctx, l.cfg.Key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return map[string]entry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	doc := map[string]entry{}
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		l.log.Warn("discarding malformed change ledger",
			zap.String("key", l.cfg.Key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		if delErr := l.store.Delete(ctx, l.cfg.Key); delErr != nil {
			l.log.Warn("failed to delete malformed change ledger", zap.Error(delErr))
		}
		return map[string]entry{}, nil
	}
	return doc, nil
}

func (l *Ledger) inWindow(ts, now time.Time) bool {
	return now.Sub(ts) < l.cfg.Window
}

func (l *Ledger) remaining(seq []time.Time, now time.Time) int {
	n := 0
	for _, ts := range seq {
		if l.inWindow(ts, now) {
			n++
		}
	}
	if n >= l.cfg.Limit {
		return 0
	}
	return l.cfg.Limit - n
}

// compact drops timestamps outside the window and keeps the newest Limit.
// In-window timestamps always form a suffix of the sorted sequence, so the
// count seen by remaining is min(count, Limit) either way.
func (l *Ledger) compact(seq []time.Time, now time.Time) []time.Time {
	sort.Slice(seq, func(i, j int) bool { return seq[i].Before(seq[j]) })

	out := seq[:0]
	for _, ts := range seq {
		if l.inWindow(ts, now) {
			out = append(out, ts)
		}
	}
	if len(out) > l.cfg.Limit {
		out = out[len(out)-l.cfg.Limit:]
	}
	return out
}

func (t ChangeType) validate() error {
	switch t {
	case Email, Password:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChangeType, string(t))
	}
}

// FormatWindow renders whole-day windows as "N days" and others with
// time.Duration.String.
func FormatWindow(d time.Duration) string {
	day := 24 * time.Hour
	if d%day == 0 {
		n := int(d / day)
		if n == 1 {
			return "1 day"
		}
		return strconv.Itoa(n) + " days"
	}
	return d.String()
}
