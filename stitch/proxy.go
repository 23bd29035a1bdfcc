package stitch

import (
	"context"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// NewReceiverFactory builds the delegate.Receiver a streamed delegation
// should use. The composition entry point wires package stream's
// constructor in here; left nil, streamed root fields return only their
// initial result. fieldName is the root field being delegated, needed to
// unwrap the channel's initial patch the same way a synchronous result is
// unwrapped.
type NewReceiverFactory func(origin, fieldName string, patches <-chan *subschema.Patch) delegate.Receiver

// ProxyingResolver builds the resolver installed on a composed root field
// (or a merged type's entry point, when CreateProxyingResolver is not
// overridden): it constructs a DelegationContext from the resolve info and
// calls the Delegator (C5), per SPEC_FULL.md §4.3.
func ProxyingResolver(ss *subschema.Subschema, operation string, newReceiver NewReceiverFactory) subschema.Resolver {
	return func(ctx context.Context, parent interface{}, info *subschema.ResolveInfo) (interface{}, error) {
		dctx := &delegate.DelegationContext{
			Subschema:         ss,
			TransformedSchema: ss.TransformedSchema,
			Operation:         operation,
			FieldName:         info.FieldName,
			Arguments:         info.Arguments,
			ReturnType:        info.ReturnType,
			Transforms:        ss.Transforms,
		}
		if newReceiver != nil {
			dctx.NewReceiver = func(patches <-chan *subschema.Patch) delegate.Receiver {
				return newReceiver(ss.Name, info.FieldName, patches)
			}
		}
		return delegate.Delegate(ctx, dctx, info.SelectionSet)
	}
}

// InstallProxyingResolvers returns, for every root operation field owned
// by ss (per the field's Subschema), the resolver to install on the composed
// schema's root object. Non-root merged-type fields do not get a proxying
// resolver here: they are served by the default merged resolver (package
// resolve) once an external object already exists for their parent.
func InstallProxyingResolvers(root *schema.Object, operation string, ss *subschema.Subschema, newReceiver NewReceiverFactory) map[string]subschema.Resolver {
	resolvers := map[string]subschema.Resolver{}
	if root == nil {
		return resolvers
	}
	for fieldName, field := range root.Fields {
		if field.Subschema != ss.Name {
			continue
		}
		if cp := ss.CreateProxyingResolver; cp != nil {
			resolvers[fieldName] = cp(subschema.ProxyingResolverParams{
				Subschema:      ss,
				MergedTypeName: root.Name,
				FieldName:      fieldName,
			})
			continue
		}
		resolvers[fieldName] = ProxyingResolver(ss, operation, newReceiver)
	}
	return resolvers
}
