package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
)

const authPath = "/auth/v1/"

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         gateway.User `json:"user"`
	// Sign-up without auto-confirm returns the bare user.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (t tokenResponse) session(now time.Time) *gateway.Session {
	if t.AccessToken == "" {
		return nil
	}
	s := &gateway.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	fillFromToken(s)
	return s
}

// GetSession returns the current session, restoring it from the store on
// first use and refreshing it when it is about to expire. It returns nil
// without error when nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*gateway.Session, error) {
	c.restore()

	s := c.current()
	if s == nil {
		return nil, nil
	}
	if s.ExpiresWithin(c.now(), c.margin) {
		refreshed, err := c.refresh(ctx)
		if err != nil {
			if errors.Is(err, gateway.ErrNoSession) {
				return nil, nil
			}
			return nil, err
		}
		return refreshed, nil
	}
	return s, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		op:     "auth:signin",
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
		anon:   true,
	}, &tr)
	if err != nil {
		return nil, err
	}
	s := tr.session(c.now())
	if s == nil {
		return nil, fmt.Errorf("sign in returned no session")
	}
	c.setSession(s)
	c.emit(gateway.EventSignedIn, s)
	return s, nil
}

// SignUp registers an account. When the project requires email
// confirmation no session is returned and no event is emitted.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*gateway.Session, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	var tr tokenResponse
	err := c.do(ctx, request{
		op:     "auth:signup",
		method: http.MethodPost,
		path:   authPath + "signup",
		body:   body,
		anon:   true,
	}, &tr)
	if err != nil {
		return nil, err
	}
	s := tr.session(c.now())
	if s == nil {
		c.logger.Info("sign up pending email confirmation", logx.FieldUserID, tr.ID)
		return nil, nil
	}
	c.setSession(s)
	c.emit(gateway.EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session remotely and always clears it locally.
func (c *Client) SignOut(ctx context.Context) error {
	var remoteErr error
	if s := c.current(); s != nil {
		remoteErr = c.do(ctx, request{
			op:     "auth:signout",
			method: http.MethodPost,
			path:   authPath + "logout",
		}, nil)
		var ge *gateway.Error
		if errors.As(remoteErr, &ge) && (ge.Status == http.StatusUnauthorized || ge.Status == http.StatusNotFound) {
			remoteErr = nil
		}
	}
	c.setSession(nil)
	c.emit(gateway.EventSignedOut, nil)
	return remoteErr
}

func (c *Client) OnAuthStateChange(fn gateway.AuthListener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		delete(c.listeners, id)
	}
}

// refresh exchanges the refresh token for a new session. A refresh the
// backend rejects ends the session and emits SIGNED_OUT.
func (c *Client) refresh(ctx context.Context) (*gateway.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	s := c.current()
	if s == nil || s.RefreshToken == "" {
		return nil, gateway.ErrNoSession
	}
	// Another caller may have refreshed while we waited for the lock.
	if !s.ExpiresWithin(c.now(), c.margin) {
		return s, nil
	}

	var tr tokenResponse
	err := c.do(ctx, request{
		op:     "auth:refresh",
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": s.RefreshToken},
		anon:   true,
	}, &tr)
	if err != nil {
		var ge *gateway.Error
		if errors.As(err, &ge) && ge.Status >= 400 && ge.Status < 500 {
			c.logger.Warn("session refresh rejected, signing out", logx.Error(err))
			c.setSession(nil)
			c.emit(gateway.EventSignedOut, nil)
			return nil, gateway.ErrNoSession
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	next := tr.session(c.now())
	if next == nil {
		return nil, fmt.Errorf("refresh returned no session")
	}
	c.setSession(next)
	c.emit(gateway.EventTokenRefreshed, next)
	return next, nil
}

func (c *Client) current() *gateway.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) setSession(s *gateway.Session) {
	c.mu.Lock()
	c.session = s
	c.restored = true
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	var err error
	if s == nil {
		err = c.store.Clear()
	} else {
		err = c.store.Save(s)
	}
	if err != nil {
		c.logger.Warn("failed to persist session", logx.Error(err))
	}
}

// restore loads the persisted session once.
func (c *Client) restore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restored {
		return
	}
	c.restored = true
	if c.store == nil {
		return
	}
	s, err := c.store.Load()
	if err != nil {
		c.logger.Warn("failed to restore session", logx.Error(err))
		return
	}
	c.session = s
}

// emit delivers event to every listener on the caller's goroutine.
func (c *Client) emit(event gateway.AuthEvent, s *gateway.Session) {
	c.lmu.Lock()
	listeners := make([]gateway.AuthListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.lmu.Unlock()

	c.logger.Debug("auth state change", logx.FieldEvent, string(event))
	for _, l := range listeners {
		var copied *gateway.Session
		if s != nil {
			cp := *s
			copied = &cp
		}
		l(event, copied)
	}
}
