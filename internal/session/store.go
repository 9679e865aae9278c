// Package session holds the per-browser application state: whether the
// browser is signed in, its access token and the cached profile.
//
// A Store is created once at the composition root and shared by reference.
// Every change goes through one mutator (Set and Reset both end in commit),
// which updates memory, writes the persisted copy and then notifies
// subscribers in subscription order.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
)

// State of one browser session. The zero value is signed out.
type State struct {
	Authenticated bool
	Token         string
	Profile       *domain.User
	ExpiresAt     time.Time
}

// Active reports whether the state is authenticated and not past its
// token expiry.
func (s State) Active(now time.Time) bool {
	if !s.Authenticated {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// UserID is "" when signed out.
func (s State) UserID() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.ID
}

func (s State) clone() State {
	if s.Profile != nil {
		p := *s.Profile
		p.Roles = append([]string(nil), s.Profile.Roles...)
		s.Profile = &p
	}
	return s
}

type EventKind int

const (
	Updated EventKind = iota
	Cleared
)

func (k EventKind) String() string {
	if k == Cleared {
		return "cleared"
	}
	return "updated"
}

// Event is delivered to subscribers after a change is committed.
type Event struct {
	SID    string
	Kind   EventKind
	State  State
	Reason string
	Remote bool
}

// Persister stores the session copy. *repos.SessionRepo implements it.
type Persister interface {
	Save(ctx context.Context, id string, tokenBox []byte, profileJSON string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]repos.SessionRow, error)
}

type Store struct {
	id      string
	persist Persister
	sealer  *Sealer
	bus     Bus
	now     func() time.Time

	// commitMu orders whole commits, so memory and the persisted copy see
	// changes to a sid in the same order.
	commitMu sync.Mutex
	mu       sync.RWMutex
	states   map[string]State

	subMu   sync.Mutex
	nextSub int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

// Option configures a Store.
type Option func(*Store)

func WithPersister(p Persister, s *Sealer) Option {
	return func(st *Store) { st.persist, st.sealer = p, s }
}

func WithBus(b Bus) Option { return func(st *Store) { st.bus = b } }

func WithClock(now func() time.Time) Option { return func(st *Store) { st.now = now } }

func NewStore(opts ...Option) *Store {
	s := &Store{
		id:     uuid.NewString(),
		now:    time.Now,
		states: make(map[string]State),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load fills the store from the persisted copy. Rows that are expired or
// cannot be opened with the current key are deleted.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}
	rows, err := s.persist.All(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	loaded := make(map[string]State, len(rows))
	for _, row := range rows {
		st, err := s.decode(row)
		if err != nil || !st.Active(now) {
			applog.L().Info("session.load.drop", zap.String("sid", row.ID), zap.Bool("expired", err == nil))
			if derr := s.persist.Delete(ctx, row.ID); derr != nil {
				return 0, derr
			}
			continue
		}
		loaded[row.ID] = st
	}
	s.mu.Lock()
	for sid, st := range loaded {
		s.states[sid] = st
	}
	s.mu.Unlock()
	return len(loaded), nil
}

func (s *Store) decode(row repos.SessionRow) (State, error) {
	tok, err := s.sealer.Open(row.TokenBox)
	if err != nil {
		return State{}, err
	}
	st := State{Authenticated: true, Token: string(tok), ExpiresAt: row.Expiry()}
	if row.ProfileJSON.Valid && row.ProfileJSON.String != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(row.ProfileJSON.String), &u); err != nil {
			return State{}, err
		}
		st.Profile = &u
	}
	return st, nil
}

// Get returns a copy of the state for sid; signed out when unknown.
func (s *Store) Get(sid string) State {
	s.mu.RLock()
	st := s.states[sid]
	s.mu.RUnlock()
	return st.clone()
}

// Len is the number of authenticated sessions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Set stores st for sid. An unauthenticated st is the same as Reset.
func (s *Store) Set(ctx context.Context, sid string, st State) error {
	if !st.Authenticated {
		return s.Reset(ctx, sid, "set")
	}
	if st.ExpiresAt.IsZero() {
		if exp, ok := TokenExpiry(st.Token); ok {
			st.ExpiresAt = exp
		}
	}
	return s.commit(ctx, Event{SID: sid, Kind: Updated, State: st.clone(), Reason: "set"})
}

// Reset signs sid out here and on every instance listening on the bus.
func (s *Store) Reset(ctx context.Context, sid, reason string) error {
	if err := s.commit(ctx, Event{SID: sid, Kind: Cleared, Reason: reason}); err != nil {
		return err
	}
	if s.bus == nil {
		return nil
	}
	return s.bus.Publish(ctx, Signal{Origin: s.id, SID: sid})
}

// commit is the only place states changes.
func (s *Store) commit(ctx context.Context, ev Event) error {
	_, err := s.apply(ctx, ev, nil)
	return err
}

// apply runs one commit. When keep is non-nil it sees the current state
// under the commit lock and may veto the change.
func (s *Store) apply(ctx context.Context, ev Event, keep func(State, bool) bool) (bool, error) {
	s.commitMu.Lock()
	s.mu.Lock()
	if keep != nil {
		cur, ok := s.states[ev.SID]
		if keep(cur, ok) {
			s.mu.Unlock()
			s.commitMu.Unlock()
			return false, nil
		}
	}
	if ev.Kind == Cleared {
		delete(s.states, ev.SID)
	} else {
		s.states[ev.SID] = ev.State
	}
	s.mu.Unlock()

	// The instance that cleared a session already removed its row.
	var err error
	if s.persist != nil && !ev.Remote {
		err = s.save(ctx, ev)
	}
	s.commitMu.Unlock()
	if err != nil {
		return true, err
	}
	s.notify(ev)
	return true, nil
}

// Sweep clears sessions whose token expired before now, in memory and in
// the persisted copy. Other instances sweep their own.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	var expired []string
	for sid, st := range s.states {
		if !st.Active(now) {
			expired = append(expired, sid)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, sid := range expired {
		// the session may have been renewed since the scan
		cleared, err := s.apply(ctx, Event{SID: sid, Kind: Cleared, Reason: "expired"}, func(cur State, ok bool) bool {
			return ok && cur.Active(now)
		})
		if err != nil {
			return n, err
		}
		if cleared {
			n++
		}
	}
	return n, nil
}

func (s *Store) save(ctx context.Context, ev Event) error {
	if ev.Kind == Cleared {
		return s.persist.Delete(ctx, ev.SID)
	}
	box, err := s.sealer.Seal([]byte(ev.State.Token))
	if err != nil {
		return err
	}
	profile := ""
	if ev.State.Profile != nil {
		b, err := json.Marshal(ev.State.Profile)
		if err != nil {
			return err
		}
		profile = string(b)
	}
	return s.persist.Save(ctx, ev.SID, box, profile, ev.State.ExpiresAt)
}

// Subscribe registers fn for every committed change and returns a function
// that removes it. fn runs on the committing goroutine and must not call
// back into Set or Reset.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(Event{SID: ev.SID, Kind: ev.Kind, State: ev.State.clone(), Reason: ev.Reason, Remote: ev.Remote})
	}
}

// Listen applies clear signals from other instances until ctx is done.
func (s *Store) Listen(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return nil
	}
	return s.bus.Subscribe(ctx, func(sig Signal) {
		if sig.Origin == s.id {
			return
		}
		_ = s.commit(ctx, Event{SID: sig.SID, Kind: Cleared, Reason: "broadcast", Remote: true})
	})
}
