package schema

import (
	"sort"

	"github.com/samsarahq/go/oops"
)

// rootTypeNames are always merged regardless of MergeTypes, since every
// subschema's root type must contribute its fields to the composed root.
var rootTypeNames = map[string]bool{"Query": true, "Mutation": true, "Subscription": true}

// ConflictInfo is passed to OnTypeConflict when two candidates for the same
// name are not being merged and a choice between them must be made.
type ConflictInfo struct {
	Left, Right *Candidate
}

// MergeConfig controls how the Type Merger (C2) decides, for each
// candidate name, whether to merge every candidate into one type or choose
// a single winner.
type MergeConfig struct {
	// MergeTypes may be a bool (merge/never-merge every non-scalar name), a
	// []string of names to merge, or a func(name string) bool predicate.
	// A nil value is equivalent to false: only root type names are merged.
	MergeTypes interface{}

	// OnTypeConflict resolves a choose decision between two candidates,
	// reduced left to right across all candidates for a name. A nil value
	// means the last candidate wins.
	OnTypeConflict func(prev, next NamedType, info ConflictInfo) NamedType

	// Canonical maps "TypeName" and "TypeName.fieldName" to the subschema
	// whose definition should win description/directives/default-value/type
	// conflicts when merging. Populated from @canonical directives by
	// package directives.
	Canonical map[string]string
}

func (c *MergeConfig) shouldMerge(name string, candidates []*Candidate) bool {
	if rootTypeNames[name] {
		return true
	}
	if len(candidates) < 2 {
		return false
	}
	switch m := c.MergeTypes.(type) {
	case bool:
		return m
	case []string:
		for _, n := range m {
			if n == name {
				return true
			}
		}
		return false
	case func(string) bool:
		return m(name)
	default:
		return false
	}
}

func (c *MergeConfig) canonicalFor(key string) string {
	if c.Canonical == nil {
		return ""
	}
	return c.Canonical[key]
}

// Merge runs the Type Merger (C2) over every candidate the registry has
// collected, producing a composed, referentially-consistent Schema.
func Merge(registry *TypeCandidateRegistry, cfg MergeConfig) (*Schema, error) {
	out := New()
	for name, d := range registry.Directives {
		out.Directives[name] = d
	}

	names := make([]string, 0, len(registry.Candidates))
	for name := range registry.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		candidates := registry.Candidates[name]
		var merged NamedType
		var err error
		if cfg.shouldMerge(name, candidates) {
			merged, err = mergeCandidates(name, candidates, &cfg)
		} else {
			merged, err = chooseCandidate(name, candidates, &cfg)
		}
		if err != nil {
			return nil, oops.Wrapf(err, "stitchgate: composing type %q", name)
		}
		out.AddType(merged)
	}

	if err := RewireTypes(out); err != nil {
		return nil, oops.Wrapf(err, "stitchgate: rewiring composed types")
	}

	out.Query, _ = out.Types["Query"].(*Object)
	out.Mutation, _ = out.Types["Mutation"].(*Object)
	out.Subscription, _ = out.Types["Subscription"].(*Object)
	return out, nil
}

func chooseCandidate(name string, candidates []*Candidate, cfg *MergeConfig) (NamedType, error) {
	if len(candidates) == 0 {
		return nil, oops.Errorf("no candidates for type %q", name)
	}
	winner := candidates[0]
	for _, next := range candidates[1:] {
		if cfg.OnTypeConflict != nil {
			t := cfg.OnTypeConflict(winner.Type, next.Type, ConflictInfo{Left: winner, Right: next})
			for _, c := range candidates {
				if c.Type == t {
					winner = c
					break
				}
			}
			continue
		}
		winner = next
	}
	return winner.Type, nil
}

func mergeCandidates(name string, candidates []*Candidate, cfg *MergeConfig) (NamedType, error) {
	if len(candidates) == 0 {
		return nil, oops.Errorf("no candidates for type %q", name)
	}
	switch candidates[0].Type.(type) {
	case *Object:
		return mergeObjects(name, candidates, cfg), nil
	case *Interface:
		return mergeInterfaces(name, candidates, cfg), nil
	case *Union:
		return mergeUnions(name, candidates), nil
	case *Enum:
		return mergeEnums(name, candidates, cfg), nil
	case *InputObject:
		return mergeInputObjects(name, candidates, cfg), nil
	case *Scalar:
		return chooseCanonicalScalar(name, candidates, cfg), nil
	default:
		return candidates[0].Type, nil
	}
}

func canonicalCandidate(name string, candidates []*Candidate, cfg *MergeConfig) *Candidate {
	owner := cfg.canonicalFor(name)
	if owner == "" {
		return candidates[0]
	}
	for _, c := range candidates {
		if c.Subschema == owner {
			return c
		}
	}
	return candidates[0]
}

func chooseCanonicalScalar(name string, candidates []*Candidate, cfg *MergeConfig) NamedType {
	return canonicalCandidate(name, candidates, cfg).Type.(*Scalar)
}

func mergeObjects(name string, candidates []*Candidate, cfg *MergeConfig) *Object {
	canon := canonicalCandidate(name, candidates, cfg).Type.(*Object)
	merged := &Object{
		Name:            name,
		Description:     canon.Description,
		Directives:      canon.Directives,
		Fields:          map[string]*FieldDefinition{},
		FieldSubschemas: map[string][]string{},
		KeyFields:       map[string]*SelectionSet{},
	}

	interfaceSet := map[string]bool{}
	var interfaceOrder []string

	for _, c := range candidates {
		obj := c.Type.(*Object)
		for _, iname := range obj.unresolvedInterfaces {
			if !interfaceSet[iname] {
				interfaceSet[iname] = true
				interfaceOrder = append(interfaceOrder, iname)
			}
		}
		for fname, field := range obj.Fields {
			fieldOwner := c.Subschema
			if fieldOwner == "" {
				fieldOwner = field.Subschema
			}
			merged.FieldSubschemas[fname] = append(merged.FieldSubschemas[fname], fieldOwner)
			fieldKey := name + "." + fname
			existing, ok := merged.Fields[fname]
			if !ok || cfg.canonicalFor(fieldKey) == fieldOwner {
				f := *field
				f.Subschema = fieldOwner
				merged.Fields[fname] = &f
			} else {
				_ = existing
			}
		}
	}
	merged.unresolvedInterfaces = interfaceOrder
	return merged
}

func mergeInterfaces(name string, candidates []*Candidate, cfg *MergeConfig) *Interface {
	canon := canonicalCandidate(name, candidates, cfg).Type.(*Interface)
	merged := &Interface{
		Name:        name,
		Description: canon.Description,
		Directives:  canon.Directives,
		Fields:      map[string]*FieldDefinition{},
	}
	for _, c := range candidates {
		iface := c.Type.(*Interface)
		for fname, field := range iface.Fields {
			if _, ok := merged.Fields[fname]; !ok {
				f := *field
				merged.Fields[fname] = &f
			}
		}
	}
	return merged
}

func mergeUnions(name string, candidates []*Candidate) *Union {
	merged := &Union{Name: name, Description: candidates[0].Type.(*Union).Description}
	seen := map[string]bool{}
	for _, c := range candidates {
		u := c.Type.(*Union)
		merged.Directives = append(merged.Directives, u.Directives...)
		for _, mname := range u.unresolvedPossible {
			if !seen[mname] {
				seen[mname] = true
				merged.unresolvedPossible = append(merged.unresolvedPossible, mname)
			}
		}
	}
	return merged
}

func mergeEnums(name string, candidates []*Candidate, cfg *MergeConfig) *Enum {
	canon := canonicalCandidate(name, candidates, cfg).Type.(*Enum)
	merged := &Enum{Name: name, Description: canon.Description, Directives: canon.Directives, Values: map[string]*EnumValue{}}
	for _, c := range candidates {
		e := c.Type.(*Enum)
		for vname, v := range e.Values {
			if _, ok := merged.Values[vname]; !ok {
				merged.Values[vname] = v
			}
		}
	}
	return merged
}

func mergeInputObjects(name string, candidates []*Candidate, cfg *MergeConfig) *InputObject {
	canon := canonicalCandidate(name, candidates, cfg).Type.(*InputObject)
	merged := &InputObject{Name: name, Description: canon.Description, Directives: canon.Directives, Fields: map[string]*InputValueDefinition{}}
	for _, c := range candidates {
		io := c.Type.(*InputObject)
		for fname, f := range io.Fields {
			if _, ok := merged.Fields[fname]; !ok {
				merged.Fields[fname] = f
			}
		}
	}
	return merged
}

// RewireTypes walks every type in s.Types and replaces namedTypeRef
// placeholders (left by SDL parsing, see candidate.go) with the real
// NamedType from the composed map, and fills in Object.Interfaces,
// Interface.PossibleTypes, and Union.PossibleTypes from the name lists
// recorded during merging. It must run exactly once, after every name has
// been merged or chosen, so every reference resolves against the final map.
func RewireTypes(s *Schema) error {
	resolve := func(t Type) (Type, error) {
		return rewireType(s, t)
	}

	for _, named := range s.Types {
		switch t := named.(type) {
		case *Object:
			for _, iname := range t.unresolvedInterfaces {
				iface, ok := s.Types[iname].(*Interface)
				if !ok {
					return oops.Errorf("type %q implements unknown interface %q", t.Name, iname)
				}
				t.Interfaces = append(t.Interfaces, iface)
				iface.PossibleTypes = append(iface.PossibleTypes, t)
			}
			for fname, f := range t.Fields {
				rt, err := resolve(f.Type)
				if err != nil {
					return oops.Wrapf(err, "field %s.%s", t.Name, fname)
				}
				f.Type = rt
				if err := rewireArgs(s, f.Arguments); err != nil {
					return err
				}
			}
		case *Interface:
			for fname, f := range t.Fields {
				rt, err := resolve(f.Type)
				if err != nil {
					return oops.Wrapf(err, "field %s.%s", t.Name, fname)
				}
				f.Type = rt
				if err := rewireArgs(s, f.Arguments); err != nil {
					return err
				}
			}
		case *Union:
			for _, mname := range t.unresolvedPossible {
				obj, ok := s.Types[mname].(*Object)
				if !ok {
					return oops.Errorf("union %q references unknown member %q", t.Name, mname)
				}
				t.PossibleTypes = append(t.PossibleTypes, obj)
			}
		case *InputObject:
			for fname, f := range t.Fields {
				rt, err := resolve(f.Type)
				if err != nil {
					return oops.Wrapf(err, "input field %s.%s", t.Name, fname)
				}
				f.Type = rt
			}
		}
	}
	return nil
}

func rewireArgs(s *Schema, args map[string]*InputValueDefinition) error {
	for aname, a := range args {
		rt, err := rewireType(s, a.Type)
		if err != nil {
			return oops.Wrapf(err, "argument %s", aname)
		}
		a.Type = rt
	}
	return nil
}

func rewireType(s *Schema, t Type) (Type, error) {
	switch w := t.(type) {
	case *NonNull:
		inner, err := rewireType(s, w.Type)
		if err != nil {
			return nil, err
		}
		return NewNonNull(inner), nil
	case *List:
		inner, err := rewireType(s, w.Type)
		if err != nil {
			return nil, err
		}
		return NewList(inner), nil
	case *namedTypeRef:
		named, ok := s.Types[w.name]
		if !ok {
			return nil, oops.Errorf("unknown type %q", w.name)
		}
		return named, nil
	default:
		return t, nil
	}
}
