// Package stream implements the Receiver (C10): an async multiplexer for
// deferred/streamed sub-execution patches, mapping incremental results to
// pathed subscribers and enriching external objects as patches arrive.
package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samsarahq/go/oops"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/subschema"
)

// Receiver multiplexes one subschema execution's channel of patches to
// resolvers waiting on individual paths within that execution's result
// tree. It implements delegate.Receiver.
type Receiver struct {
	patches   <-chan *subschema.Patch
	origin    string
	fieldName string

	mu             sync.Mutex
	values         map[string]*delegate.ExternalObject
	waiters        map[string][]chan *delegate.ExternalObject
	numRequests    int
	iterating      bool
	initialResult  *delegate.ExternalObject
	initialErr     error
	initialOnce    sync.Once
	initialWaiters []chan struct{}
}

// New builds a Receiver around a streamed subschema execution's patch
// channel. origin names the subschema the patches come from, for
// provenance on every external object this receiver synthesizes. fieldName
// is the root field the delegation requested: the channel's initial patch
// carries its data wrapped one level deep under that field's own call,
// exactly as a synchronous subschema.ExecutionResult would, so the
// receiver must unwrap it the same way delegate.Delegate does.
func New(origin, fieldName string, patches <-chan *subschema.Patch) *Receiver {
	return &Receiver{
		patches:   patches,
		origin:    origin,
		fieldName: fieldName,
		values:    map[string]*delegate.ExternalObject{},
		waiters:   map[string][]chan *delegate.ExternalObject{},
	}
}

// extractField unwraps fieldName's value from a root-level result payload,
// mirroring package delegate's own extraction for synchronous results;
// patches published after the initial one carry data already scoped to
// their own Path and need no unwrapping.
func extractField(data map[string]interface{}, fieldName string) map[string]interface{} {
	if data == nil {
		return nil
	}
	v, _ := data[fieldName].(map[string]interface{})
	return v
}

func pathKey(path []interface{}) string {
	parts := make([]string, len(path))
	for i, p := range path {
		switch v := p.(type) {
		case string:
			parts[i] = v
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ".")
}

// InitialResult awaits the first patch on the channel, builds the initial
// external value from it, records it under the root path-key, and starts
// the background iterator that drains the remaining patches.
func (r *Receiver) InitialResult(ctx context.Context) (*delegate.ExternalObject, error) {
	r.initialOnce.Do(func() {
		select {
		case first, ok := <-r.patches:
			if !ok {
				r.initialErr = oops.Errorf("stitchgate/stream: patch channel closed before an initial result")
				return
			}
			r.initialResult = delegate.Annotate(extractField(first.Data, r.fieldName), first.Errors, r.origin)
			r.initialResult.Receiver = r
			r.initialResult.Path = []interface{}{r.fieldName}
			r.mu.Lock()
			r.values[""] = r.initialResult
			r.mu.Unlock()
			if first.HasNext {
				go r.iterate(ctx)
			}
		case <-ctx.Done():
			r.initialErr = ctx.Err()
		}
	})
	return r.initialResult, r.initialErr
}

// Request routes a resolver's request for the value at path through a
// per-path-key wait: if the value has already arrived, it resolves
// synchronously; otherwise the caller blocks until iterate() publishes it
// or ctx is canceled.
func (r *Receiver) Request(ctx context.Context, path []interface{}) (*delegate.ExternalObject, error) {
	key := pathKey(path)

	r.mu.Lock()
	if v, ok := r.values[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	ch := make(chan *delegate.ExternalObject, 1)
	r.waiters[key] = append(r.waiters[key], ch)
	r.numRequests++
	r.mu.Unlock()

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		r.mu.Lock()
		r.numRequests--
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

// iterate is the receiver's singleton pump: it consumes patches until
// HasNext is false or no one is still waiting, publishing each patch's
// external value on its path-key's topic.
func (r *Receiver) iterate(ctx context.Context) {
	r.mu.Lock()
	if r.iterating {
		r.mu.Unlock()
		return
	}
	r.iterating = true
	r.mu.Unlock()

	for {
		select {
		case patch, ok := <-r.patches:
			if !ok {
				return
			}
			r.publish(patch)
			if !patch.HasNext {
				return
			}
		case <-ctx.Done():
			return
		}

		r.mu.Lock()
		done := r.numRequests <= 0
		r.mu.Unlock()
		if done {
			return
		}
	}
}

func (r *Receiver) publish(patch *subschema.Patch) {
	key := pathKey(patch.Path)
	ext := delegate.Annotate(patch.Data, patch.Errors, r.origin)
	ext.Receiver = r
	ext.Path = patch.Path

	r.mu.Lock()
	r.values[key] = ext
	waiters := r.waiters[key]
	delete(r.waiters, key)
	r.numRequests -= len(waiters)
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- ext
	}
}
