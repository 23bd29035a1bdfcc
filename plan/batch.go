package plan

import (
	"context"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/internal/batch"
	"github.com/samsarahq/stitchgate/stitch"
)

// BatchLoader is the Per-Parent Batch Loader (C8): it coalesces sibling
// field resolves on the same parent into one planner invocation per
// coalescing window, built on internal/batch.Func. Func.Shard keys on the
// parent's pointer identity, so only resolves against the same
// ExternalObject are batched together; Func.MaxDuration bounds the
// coalescing window in place of the source's microtask tick, per
// SPEC_FULL.md §4.8.
type BatchLoader struct {
	info     *stitch.StitchingInfo
	typeName string
	f        *batch.Func
}

type loadArg struct {
	parent  *delegate.ExternalObject
	node    FieldNode
	sources []string
	targets []string
}

// NewBatchLoader builds a loader for one merged type. A request handler
// constructs one per type it expects to resolve merged fields on, or
// builds them lazily and caches them on the request context.
func NewBatchLoader(info *stitch.StitchingInfo, typeName string, maxSize int) *BatchLoader {
	l := &BatchLoader{info: info, typeName: typeName}
	l.f = &batch.Func{
		Shard:   func(arg interface{}) interface{} { return arg.(*loadArg).parent },
		MaxSize: maxSize,
		Many:    l.many,
	}
	return l
}

func (l *BatchLoader) many(ctx context.Context, args []interface{}) ([]interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	first := args[0].(*loadArg)
	nodes := make([]FieldNode, len(args))
	for i, a := range args {
		nodes[i] = a.(*loadArg).node
	}

	merged, err := Resolve(ctx, l.info, l.typeName, first.parent, nodes, first.sources, first.targets)
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, len(args))
	for i := range args {
		results[i] = merged
	}
	return results, nil
}

// Load resolves a single field on parent via the coalescing loader. Every
// concurrent Load call against the same parent within the window is
// combined into one BuildDelegationPlan invocation; the caller reads its
// own field's value back out of the merged parent this returns.
func (l *BatchLoader) Load(ctx context.Context, parent *delegate.ExternalObject, node FieldNode, sources, targets []string) (*delegate.ExternalObject, error) {
	v, err := l.f.Invoke(ctx, &loadArg{parent: parent, node: node, sources: sources, targets: targets})
	if err != nil {
		return nil, err
	}
	return v.(*delegate.ExternalObject), nil
}

// WithBatching installs both the per-request proxiability memoization
// cache and internal/batch's batching context on ctx. Call once per
// incoming operation before any field resolve begins.
func WithBatching(ctx context.Context) context.Context {
	return batch.WithBatching(WithCache(ctx))
}
