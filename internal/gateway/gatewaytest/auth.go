package gatewaytest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
)

// InvalidCredentials is the message GoTrue returns for a bad password.
const InvalidCredentials = "Invalid login credentials"

// AddUser registers an account and returns its identity.
func (f *Fake) AddUser(email, password string) gateway.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := gateway.User{ID: uuid.NewString(), Email: email}
	f.accounts[email] = account{password: password, user: u}
	return u
}

// SetSession installs a session without emitting an event, as if it had
// been restored from storage.
func (f *Fake) SetSession(s *gateway.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

func (f *Fake) GetSession(_ context.Context) (*gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	return f.session, nil
}

func (f *Fake) SignInWithPassword(_ context.Context, email, password string) (*gateway.Session, error) {
	f.mu.Lock()
	if f.SignInErr != nil {
		err := f.SignInErr
		f.mu.Unlock()
		return nil, err
	}
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		f.mu.Unlock()
		return nil, &gateway.Error{Status: 400, Code: "invalid_grant", Message: InvalidCredentials}
	}
	s := newSession(acct.user)
	f.session = s
	f.mu.Unlock()

	f.Emit(gateway.EventSignedIn, s)
	return s, nil
}

func (f *Fake) SignUp(_ context.Context, email, password string, metadata map[string]any) (*gateway.Session, error) {
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return nil, &gateway.Error{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	u := gateway.User{ID: uuid.NewString(), Email: email, Metadata: metadata}
	f.accounts[email] = account{password: password, user: u}
	s := newSession(u)
	f.session = s
	f.mu.Unlock()

	f.Emit(gateway.EventSignedIn, s)
	return s, nil
}

func (f *Fake) SignOut(_ context.Context) error {
	f.mu.Lock()
	if f.SignOutErr != nil {
		err := f.SignOutErr
		f.mu.Unlock()
		return err
	}
	f.session = nil
	f.mu.Unlock()

	f.Emit(gateway.EventSignedOut, nil)
	return nil
}

func (f *Fake) OnAuthStateChange(fn gateway.AuthListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextListen
	f.nextListen++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// ListenerCount reports how many auth listeners are registered.
func (f *Fake) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Emit delivers an auth event to every listener synchronously.
func (f *Fake) Emit(event gateway.AuthEvent, s *gateway.Session) {
	f.mu.Lock()
	listeners := make([]gateway.AuthListener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()
	for _, l := range listeners {
		l(event, s)
	}
}

// RefreshToken swaps the access token and emits TOKEN_REFRESHED.
func (f *Fake) RefreshToken(email string) *gateway.Session {
	f.mu.Lock()
	if f.session == nil {
		f.mu.Unlock()
		return nil
	}
	s := *f.session
	s.AccessToken = uuid.NewString()
	if email != "" {
		s.User.Email = email
	}
	f.session = &s
	f.mu.Unlock()

	f.Emit(gateway.EventTokenRefreshed, &s)
	return &s
}

func newSession(u gateway.User) *gateway.Session {
	return &gateway.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         u,
	}
}
