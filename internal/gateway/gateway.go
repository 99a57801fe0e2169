// Package gateway defines the single client handle the application uses
// to reach the hosted backend: table queries, the auth session and
// remote functions.
package gateway

import (
	"context"
)

// Tables issues CRUD queries against the remote relational store.
type Tables interface {
	// Select decodes every matching row into dest, which must point to a
	// slice.
	Select(ctx context.Context, q Query, dest any) error
	// Insert writes payload and decodes the stored row into dest when dest
	// is non-nil.
	Insert(ctx context.Context, table string, payload any, dest any) error
	// Update applies payload to every row matching q's filters.
	Update(ctx context.Context, q Query, payload any) error
	// Delete removes every row matching q's filters.
	Delete(ctx context.Context, q Query) error
}

// Auth manages the authentication session.
type Auth interface {
	GetSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn for session events. The returned
	// func removes it.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// Functions invokes named remote procedures.
type Functions interface {
	Invoke(ctx context.Context, name string, body any, dest any) error
}

// Gateway bundles the three capabilities. The parts may come from
// different backends.
type Gateway struct {
	Tables
	Auth
	Functions
}

// FunctionScoreDeal is the remote scoring procedure. It takes
// {"deal_id": id} and writes its result to deals and deal_analyses.
const FunctionScoreDeal = "score-deal"

// ScoreDealRequest is the body of FunctionScoreDeal.
type ScoreDealRequest struct {
	DealID string `json:"deal_id"`
}
