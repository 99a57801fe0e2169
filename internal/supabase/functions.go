package supabase

import (
	"context"
	"net/http"
)

const functionsPath = "/functions/v1/"

// Invoke calls an edge function with a JSON body. The caller's access
// token is forwarded so the function can act as the user.
func (c *Client) Invoke(ctx context.Context, name string, body any, dest any) error {
	return c.do(ctx, request{
		op:     "invoke:" + name,
		method: http.MethodPost,
		path:   functionsPath + name,
		body:   body,
	}, dest)
}
