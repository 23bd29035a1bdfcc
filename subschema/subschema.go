// Package subschema defines the consumer-authored configuration for one
// executable schema participating in composition: its schema, its executor,
// its request/result transforms, and its merge configuration. This is the
// boundary the core treats as an external collaborator (§6 of the gateway
// design) — the core never talks to a network itself, only to whatever
// satisfies Executor.
package subschema

import (
	"context"

	"github.com/samsarahq/stitchgate/schema"
)

// Resolver is installed on a schema field and produces its value given the
// parent value and the field's resolve-time info. Both the default merged
// resolver (package resolve) and any CreateProxyingResolver override
// implement this signature.
type Resolver func(ctx context.Context, parent interface{}, info *ResolveInfo) (interface{}, error)

// ResolveInfo carries the resolve-time context a Resolver needs: which
// field of which type is being resolved, with what arguments, against
// which selection set of sub-fields.
type ResolveInfo struct {
	ParentTypeName string
	FieldName      string
	ResponseKey    string
	Arguments      map[string]interface{}
	SelectionSet   *schema.SelectionSet
	ReturnType     schema.Type
}

// Transform is a capability interface: a value participating in the
// request transform pipeline (C4) implements whichever of these methods it
// needs. A transform with no schema-side effect need not implement
// SchemaTransformer, and so on — callers type-assert each capability.
type Transform interface{}

// SchemaTransformer rewrites a subschema's schema before composition
// (e.g. dropping fields the gateway will never delegate to).
type SchemaTransformer interface {
	TransformSchema(s *schema.Schema) *schema.Schema
}

// RequestTransformer rewrites an outgoing Request. tctx is a fresh,
// per-call value the transform may populate for its own later use by
// ResultTransformer.
type RequestTransformer interface {
	TransformRequest(ctx context.Context, req *Request, tctx map[string]interface{}) *Request
}

// ResultTransformer rewrites an incoming ExecutionResult, undoing whatever
// the matching RequestTransformer step did, in the opposite order.
type ResultTransformer interface {
	TransformResult(ctx context.Context, res *ExecutionResult, tctx map[string]interface{}) *ExecutionResult
}

// Subschema is one source schema plus the configuration needed to stitch it
// into a composed schema.
type Subschema struct {
	Name string

	// Schema is the subschema's own, unmodified type system.
	Schema *schema.Schema

	// TransformedSchema is filled in by composition: Schema with every
	// Transforms entry's TransformSchema applied, used when the planner
	// checks whether a dependency is satisfiable from this subschema.
	TransformedSchema *schema.Schema

	Executor Executor

	Transforms []Transform

	// CreateProxyingResolver optionally overrides the default proxying
	// resolver installed by the stitching index (C3) on this subschema's
	// root fields.
	CreateProxyingResolver func(ProxyingResolverParams) Resolver

	// Merge maps a composed type name to this subschema's contribution to
	// that type's merge configuration.
	Merge map[string]*MergedTypeConfig

	// Batch indicates whether this subschema's merged-type entry points
	// expect a list-keyed batch call (Key + ArgsFromKeys) or a single-value
	// call (Args) per delegation.
	Batch bool
}

// ConfigTransform rewrites a subschema's config before composition runs,
// typically by populating Merge from some other source of truth (e.g.
// compiling @key/@merge directives out of the subschema's SDL). It returns
// the canonical type/field names this subschema should own, attributed to
// it in the composed schema.MergeConfig.Canonical.
type ConfigTransform func(ss *Subschema) (canonical []string, err error)

// ProxyingResolverParams is passed to CreateProxyingResolver.
type ProxyingResolverParams struct {
	Subschema     *Subschema
	MergedTypeName string
	FieldName      string
}

// MergedTypeConfig is one subschema's merge contribution for one composed
// type: the key selection set it needs from another subschema's object
// before it can resolve fields of this type, per-field computed-field
// dependencies, and (for root-level entry points) how to fetch the type.
type MergedTypeConfig struct {
	// SelectionSet is the set of fields this subschema needs present on an
	// external object before it can be asked to resolve more fields of
	// this type (the @key selection set).
	SelectionSet *schema.SelectionSet

	// Fields maps a field name to its own dependency, for @computed fields
	// whose resolution additionally requires fields beyond the type's key.
	Fields map[string]*MergedFieldConfig

	// FieldName is the root query field used as this type's entry point.
	FieldName string

	// Key/ArgsFromKeys configure a batched entry point: Key selects, from
	// each parent in the batch, the value passed to ArgsFromKeys, which
	// builds the root field's arguments for the whole batch.
	Key          func(parent map[string]interface{}) interface{}
	ArgsFromKeys func(keys []interface{}) map[string]interface{}

	// Args configures a single-value (non-batched) entry point.
	Args func(parent map[string]interface{}) map[string]interface{}

	// Canonical marks this subschema as the authoritative source for the
	// type's description, directives, and field-type conflicts.
	Canonical bool
}

// MergedFieldConfig is a single field's contribution to a MergedTypeConfig:
// the computed-field case from @computed.
type MergedFieldConfig struct {
	SelectionSet *schema.SelectionSet
	Computed     bool
}

// Request is a sub-operation dispatched to one subschema.
type Request struct {
	Document      string
	Variables     map[string]interface{}
	OperationName string
	OperationType string
}

// ExecutionResult is a synchronous sub-execution outcome.
type ExecutionResult struct {
	Data   map[string]interface{}
	Errors []*GraphQLError
}

// Patch is one increment of a streamed/deferred sub-execution.
type Patch struct {
	Data    map[string]interface{}
	Errors  []*GraphQLError
	Path    []interface{}
	Label   string
	HasNext bool
}

// GraphQLError is the wire error shape surfaced by a subschema and, after
// relocation, by the composed schema.
type GraphQLError struct {
	Message    string
	Locations  []Location
	Path       []interface{}
	Extensions map[string]interface{}
}

// Location is a line/column pair into the originating document.
type Location struct {
	Line   int
	Column int
}

func (e *GraphQLError) Error() string { return e.Message }

// Executor is the contract a subschema must satisfy to be delegated to.
// Exactly one of the ExecutionResult or the Patch channel is non-nil on a
// successful call; the channel's first item is always the initial result,
// and the last item has HasNext == false.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*ExecutionResult, <-chan *Patch, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req *Request) (*ExecutionResult, <-chan *Patch, error)

func (f ExecutorFunc) Execute(ctx context.Context, req *Request) (*ExecutionResult, <-chan *Patch, error) {
	return f(ctx, req)
}
