package views

import (
	"context"

	"github.com/pauljones0/commodity-tracker/internal/logx"
)

// SessionActions are the session operations the login pages drive.
type SessionActions interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, fullName string) error
	SignOut(ctx context.Context) error
}

// Auth backs the login and signup pages. Their errors are shown inline
// on the form, never as notifications.
type Auth struct {
	session SessionActions
}

func NewAuth(sess SessionActions) *Auth {
	return &Auth{session: sess}
}

func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	if err := a.session.SignIn(ctx, email, password); err != nil {
		return "", err
	}
	return PathHome, nil
}

func (a *Auth) Signup(ctx context.Context, email, password, fullName string) (string, error) {
	if err := a.session.SignUp(ctx, email, password, fullName); err != nil {
		return "", err
	}
	return PathHome, nil
}

// Logout always lands on the login page; a failed remote sign-out is
// only logged.
func (a *Auth) Logout(ctx context.Context) string {
	if err := a.session.SignOut(ctx); err != nil {
		logx.FromContext(ctx).Warn("Sign out failed", logx.Error(err))
	}
	return PathLogin
}
