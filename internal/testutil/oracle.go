package testutil

import (
	"context"
	"sync"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// ScriptedOracle implements core.Oracle with queued answers. JSON requests
// and plain-text requests are scripted separately; the last queued answer
// repeats once the queue is drained. An unscripted request fails with a
// PROVIDER_UNAVAILABLE error, so an empty ScriptedOracle behaves like an
// unreachable provider.
type ScriptedOracle struct {
	name string

	mu       sync.Mutex
	jsonResp []string
	textResp []string
	jsonErr  error
	textErr  error
	calls    []core.OracleRequest
}

// NewScriptedOracle creates an oracle with no scripted answers.
func NewScriptedOracle(name string) *ScriptedOracle {
	return &ScriptedOracle{name: name}
}

// NewFailingOracle creates an oracle whose every call fails with err.
func NewFailingOracle(err error) *ScriptedOracle {
	return NewScriptedOracle("failing").FailWith(err)
}

// RespondJSON queues answers for requests with JSON set.
func (o *ScriptedOracle) RespondJSON(bodies ...string) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jsonResp = append(o.jsonResp, bodies...)
	return o
}

// RespondText queues answers for plain-text requests.
func (o *ScriptedOracle) RespondText(texts ...string) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.textResp = append(o.textResp, texts...)
	return o
}

// FailWith makes every request fail with err.
func (o *ScriptedOracle) FailWith(err error) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jsonErr, o.textErr = err, err
	return o
}

// FailJSONWith makes JSON requests fail with err.
func (o *ScriptedOracle) FailJSONWith(err error) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jsonErr = err
	return o
}

// Name implements core.Oracle.
func (o *ScriptedOracle) Name() string { return o.name }

// Complete implements core.Oracle.
func (o *ScriptedOracle) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, req)

	if err := ctx.Err(); err != nil {
		return "", core.ErrProvider(o.name, core.CodeProviderTimeout, err.Error()).WithCause(err)
	}
	if req.JSON {
		return o.next(&o.jsonResp, o.jsonErr)
	}
	return o.next(&o.textResp, o.textErr)
}

func (o *ScriptedOracle) next(queue *[]string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	q := *queue
	if len(q) == 0 {
		return "", core.ErrProvider(o.name, core.CodeProviderUnavailable, "no scripted response")
	}
	out := q[0]
	if len(q) > 1 {
		*queue = q[1:]
	}
	return out, nil
}

// Calls returns the recorded requests.
func (o *ScriptedOracle) Calls() []core.OracleRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.OracleRequest(nil), o.calls...)
}

// CallCount returns the number of requests received.
func (o *ScriptedOracle) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// BlockingOracle holds every call until Release is called, then delegates
// to the wrapped oracle.
type BlockingOracle struct {
	next    core.Oracle
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewBlockingOracle wraps next.
func NewBlockingOracle(next core.Oracle) *BlockingOracle {
	return &BlockingOracle{
		next:    next,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

// Started is signalled when a call begins waiting.
func (o *BlockingOracle) Started() <-chan struct{} { return o.started }

// Release unblocks all current and future calls.
func (o *BlockingOracle) Release() {
	o.once.Do(func() { close(o.release) })
}

// Name implements core.Oracle.
func (o *BlockingOracle) Name() string { return o.next.Name() }

// Complete implements core.Oracle.
func (o *BlockingOracle) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	select {
	case o.started <- struct{}{}:
	default:
	}
	select {
	case <-o.release:
		return o.next.Complete(ctx, req)
	case <-ctx.Done():
		return "", core.ErrProvider(o.next.Name(), core.CodeProviderTimeout, ctx.Err().Error()).WithCause(ctx.Err())
	}
}

var (
	_ core.Oracle = (*ScriptedOracle)(nil)
	_ core.Oracle = (*BlockingOracle)(nil)
)
