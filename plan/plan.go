// Package plan implements the Merged-Parent Planner (C7) and the
// Per-Parent Batch Loader (C8): given a partially materialized external
// object and a set of requested fields not yet present on it, it decides
// which subschemas to query, in how many rounds, and coalesces sibling
// field resolves on the same parent into one planner invocation.
package plan

import (
	"context"
	"sync"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/stitch"
)

// FieldNode is one field the caller still needs resolved on the parent,
// identified by response key.
type FieldNode struct {
	ResponseKey string
	FieldName   string
}

// DelegationMap groups field names to fetch per target subschema for one
// planner round.
type DelegationMap map[string]*schema.SelectionSet

// Plan is the result of BuildDelegationPlan for one round.
type Plan struct {
	DelegationMap      DelegationMap
	ProxiableFieldNodes []FieldNode
	UnproxiableFieldNodes []FieldNode
}

// proxiabilityCache memoizes SortSubschemasByProxiability per request, per
// SPEC_FULL.md §5 ("memoized in a per-request cache... stored on the
// request's context.Context, not process-wide").
type proxiabilityCacheKey struct{}

type proxiabilityCache struct {
	mu    sync.Mutex
	plans map[string]*Plan
	proxi map[string][2][]string // cache key -> [proxiable, nonProxiable]
}

// WithCache installs a fresh per-request memoization cache on ctx. Callers
// that plan more than one field resolve within the same operation should
// call this once at the top of the request and thread the resulting
// context through every resolve.
func WithCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, proxiabilityCacheKey{}, &proxiabilityCache{
		plans: map[string]*Plan{},
		proxi: map[string][2][]string{},
	})
}

func cacheFrom(ctx context.Context) *proxiabilityCache {
	c, _ := ctx.Value(proxiabilityCacheKey{}).(*proxiabilityCache)
	return c
}

// SortSubschemasByProxiability partitions targets into those whose
// dependency for typeName is already satisfied by the union of sources'
// transformed schemas, and those that are not (SPEC_FULL.md §4.7 Step A).
func SortSubschemasByProxiability(ctx context.Context, info *stitch.StitchingInfo, typeName string, sources, targets []string) (proxiable, nonProxiable []string) {
	cache := cacheFrom(ctx)
	key := typeName + "|" + join(sources) + "|" + join(targets)
	if cache != nil {
		cache.mu.Lock()
		if v, ok := cache.proxi[key]; ok {
			cache.mu.Unlock()
			return v[0], v[1]
		}
		cache.mu.Unlock()
	}

	mti := info.MergedTypes[typeName]
	for _, target := range targets {
		need := mti.SelectionSets[target]
		if dependencySatisfied(info, typeName, need, sources) {
			proxiable = append(proxiable, target)
		} else {
			nonProxiable = append(nonProxiable, target)
		}
	}

	if cache != nil {
		cache.mu.Lock()
		cache.proxi[key] = [2][]string{proxiable, nonProxiable}
		cache.mu.Unlock()
	}
	return proxiable, nonProxiable
}

func dependencySatisfied(info *stitch.StitchingInfo, typeName string, need *schema.SelectionSet, sources []string) bool {
	if need == nil || len(need.Selections) == 0 {
		return true
	}
	for _, fieldName := range need.FieldNames() {
		satisfied := false
		for _, s := range sources {
			ss, ok := info.SubschemaMap[s]
			if !ok {
				continue
			}
			t, ok := ss.TransformedSchema.Types[typeName].(*schema.Object)
			if !ok {
				continue
			}
			if _, ok := t.Fields[fieldName]; ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func join(ss []string) string {
	out := ""
	for _, s := range ss {
		out += s + ","
	}
	return out
}

// BuildDelegationPlan implements Step B of SPEC_FULL.md §4.7: for each
// requested field, route it to a proxiable unique owner, or to a proxiable
// member of its non-unique owner set (preferring one already targeted this
// round), or mark it unproxiable.
func BuildDelegationPlan(mti *stitch.MergedTypeInfo, fieldNodes []FieldNode, proxiable []string) *Plan {
	proxiableSet := map[string]bool{}
	for _, s := range proxiable {
		proxiableSet[s] = true
	}

	plan := &Plan{DelegationMap: DelegationMap{}}

	for _, node := range fieldNodes {
		if node.FieldName == "__typename" {
			continue
		}
		if owner, ok := mti.UniqueFields[node.FieldName]; ok {
			if proxiableSet[owner] {
				addToDelegationMap(plan.DelegationMap, owner, node.FieldName)
				plan.ProxiableFieldNodes = append(plan.ProxiableFieldNodes, node)
			} else {
				plan.UnproxiableFieldNodes = append(plan.UnproxiableFieldNodes, node)
			}
			continue
		}
		if owners, ok := mti.NonUniqueFields[node.FieldName]; ok {
			chosen := chooseNonUniqueOwner(owners, proxiableSet, plan.DelegationMap)
			if chosen != "" {
				addToDelegationMap(plan.DelegationMap, chosen, node.FieldName)
				plan.ProxiableFieldNodes = append(plan.ProxiableFieldNodes, node)
			} else {
				plan.UnproxiableFieldNodes = append(plan.UnproxiableFieldNodes, node)
			}
			continue
		}
		plan.UnproxiableFieldNodes = append(plan.UnproxiableFieldNodes, node)
	}

	return plan
}

func chooseNonUniqueOwner(owners []string, proxiableSet map[string]bool, dm DelegationMap) string {
	for _, o := range owners {
		if proxiableSet[o] {
			if _, alreadyTargeted := dm[o]; alreadyTargeted {
				return o
			}
		}
	}
	for _, o := range owners {
		if proxiableSet[o] {
			return o
		}
	}
	return ""
}

func addToDelegationMap(dm DelegationMap, subschemaName, fieldName string) {
	existing := dm[subschemaName]
	dm[subschemaName] = schema.MergeSelectionSets(existing, schema.NewSelectionSet(fieldName))
}

// Resolve runs the full planner (C7): builds a plan for the requested
// fields, executes one round of delegation per proxiable target
// concurrently, merges the results into a new parent, and recurses for any
// field left unproxiable this round, advancing sources/targets per
// SPEC_FULL.md §4.7's termination rule.
func Resolve(ctx context.Context, info *stitch.StitchingInfo, typeName string, parent *delegate.ExternalObject, fieldNodes []FieldNode, sources, targets []string) (*delegate.ExternalObject, error) {
	mti, ok := info.MergedTypes[typeName]
	if !ok || len(targets) == 0 || len(fieldNodes) == 0 {
		return parent, nil
	}

	proxiable, nonProxiable := SortSubschemasByProxiability(ctx, info, typeName, sources, targets)
	thePlan := BuildDelegationPlan(mti, fieldNodes, proxiable)

	if len(thePlan.DelegationMap) == 0 {
		return parent, nil
	}

	type roundResult struct {
		subschema string
		value     interface{}
		selSet    *schema.SelectionSet
	}

	results := make([]roundResult, 0, len(thePlan.DelegationMap))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for s, selSet := range thePlan.DelegationMap {
		s, selSet := s, selSet
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver := mti.Resolvers[s]
			data, errs, err := resolver(ctx, parent.Data, selSet)
			var value interface{}
			if err != nil {
				value = err
			} else {
				value = delegate.Annotate(data, errs, s)
			}
			mu.Lock()
			results = append(results, roundResult{subschema: s, value: value, selSet: selSet})
			mu.Unlock()
		}()
	}
	wg.Wait()

	sources2 := make([]interface{}, len(results))
	selSets := make([]*schema.SelectionSet, len(results))
	for i, r := range results {
		sources2[i] = r.value
		selSets[i] = r.selSet
	}
	merged := delegate.MergeExternal(nil, parent, sources2, selSets)

	if len(thePlan.UnproxiableFieldNodes) == 0 {
		return merged, nil
	}

	newSources := append(append([]string{}, sources...), proxiable...)
	return Resolve(ctx, info, typeName, merged, thePlan.UnproxiableFieldNodes, newSources, nonProxiable)
}
