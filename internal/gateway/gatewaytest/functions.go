package gatewaytest

import (
	"context"
)

// HandleFunction installs the behaviour of a remote function.
func (f *Fake) HandleFunction(name string, fn func(ctx context.Context, body map[string]any) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.functions[name] = fn
}

// Invocations returns the function calls issued so far.
func (f *Fake) Invocations() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.invocations...)
}

func (f *Fake) Invoke(ctx context.Context, name string, body any, dest any) error {
	m, err := toMap(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.invocations = append(f.invocations, Call{Op: "invoke", Table: name, Payload: copyMap(m)})
	fn := f.functions[name]
	f.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, m); err != nil {
			return err
		}
	}
	if dest == nil {
		return nil
	}
	b, err := json.Marshal(map[string]any{"success": true})
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
