// Package session keeps the process-wide view of who is signed in.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

// Snapshot is a copy of the session state at one moment.
type Snapshot struct {
	Identity     *gateway.User   `json:"identity"`
	Profile      *models.Profile `json:"profile"`
	IsPrivileged bool            `json:"is_privileged"`
	Loading      bool            `json:"loading"`
}

// State tracks the identity and profile, following auth events from the
// gateway. The zero value is not usable; call New.
type State struct {
	auth   gateway.Auth
	tables gateway.Tables
	logger *slog.Logger

	initOnce    sync.Once
	ready       chan struct{}
	readyOnce   sync.Once
	ctx         context.Context
	unsubscribe func()

	mu   sync.RWMutex
	snap Snapshot

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func New(auth gateway.Auth, tables gateway.Tables, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		auth:   auth,
		tables: tables,
		logger: logger,
		ready:  make(chan struct{}),
		ctx:    context.Background(),
		snap:   Snapshot{Loading: true},
		subs:   make(map[int]func(Snapshot)),
	}
}

// Init subscribes to auth events and resolves the current session. Only
// the first call does anything. Loading is false once it returns.
func (s *State) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		s.ctx = context.WithoutCancel(ctx)
		s.unsubscribe = s.auth.OnAuthStateChange(s.handle)

		sess, err := s.auth.GetSession(ctx)
		if err != nil {
			s.logger.Warn("Could not read current session", logx.Error(err))
		}

		next := Snapshot{}
		if sess != nil {
			user := sess.User
			next.Identity = &user
			next.Profile = s.loadProfile(ctx, user)
		}
		s.set(next)
		s.markReady()
	})
}

// WaitReady blocks until Init has settled or ctx is done.
func (s *State) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches from auth events.
func (s *State) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe calls fn with every new snapshot until the returned func is
// called.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// SignIn authenticates with email and password. The state itself is
// updated by the SIGNED_IN event that follows.
func (s *State) SignIn(ctx context.Context, email, password string) error {
	_, err := s.auth.SignInWithPassword(ctx, email, password)
	return err
}

// SignUp registers a new account with its display name.
func (s *State) SignUp(ctx context.Context, email, password, fullName string) error {
	_, err := s.auth.SignUp(ctx, email, password, map[string]any{"full_name": fullName})
	return err
}

func (s *State) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx)
}

func (s *State) handle(event gateway.AuthEvent, sess *gateway.Session) {
	logger := s.logger.With(logx.FieldEvent, string(event))

	switch event {
	case gateway.EventSignedIn:
		if sess == nil {
			return
		}
		user := sess.User
		profile := s.loadProfile(s.ctx, user)
		s.set(Snapshot{Identity: &user, Profile: profile})
		s.markReady()
		logger.Info("Signed in", logx.FieldUserID, user.ID)
	case gateway.EventSignedOut:
		s.set(Snapshot{})
		s.markReady()
		logger.Info("Signed out")
	case gateway.EventTokenRefreshed, gateway.EventUserUpdated:
		if sess == nil {
			return
		}
		user := sess.User
		s.mu.RLock()
		next := s.snap
		s.mu.RUnlock()
		next.Identity = &user
		s.set(next)
		logger.Debug("Session updated", logx.FieldUserID, user.ID)
	}
}

func (s *State) loadProfile(ctx context.Context, user gateway.User) *models.Profile {
	q := gateway.From(models.TableProfiles).Eq("id", user.ID)
	profile, err := gateway.First[models.Profile](ctx, s.tables, q)
	if err != nil {
		s.logger.Warn("Falling back to default profile", logx.FieldUserID, user.ID, logx.Error(err))
		return models.DefaultProfile(user.ID, user.Email)
	}
	return profile
}

func (s *State) set(next Snapshot) {
	next.IsPrivileged = next.Profile.IsAdmin()

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

func (s *State) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}
