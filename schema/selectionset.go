package schema

import (
	"sort"
	"strings"
)

// Selection is one field selection inside a SelectionSet. It mirrors the
// subset of query-language selection syntax the gateway needs to reason
// about: a field, its arguments, and its own nested selection set. Inline
// fragments and named fragments are normalized away into TypeCondition by
// the time a Selection reaches this form (see package directives, which
// builds these from parsed SDL key/selection-set strings, and package
// transform, which builds them from incoming request documents).
type Selection struct {
	Alias        string
	Name         string
	Arguments    map[string]interface{}
	Directives   []*Directive
	SelectionSet *SelectionSet

	// TypeCondition restricts this selection to objects of the named type,
	// mirroring an inline fragment. Empty for an unconditional selection.
	TypeCondition string
}

// ResponseKey is the key this selection contributes to a result map: its
// alias if given, else its field name.
func (s *Selection) ResponseKey() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// SelectionSet is an ordered, deduplicated-on-print list of Selections.
type SelectionSet struct {
	Selections []*Selection
}

// NewSelectionSet builds a SelectionSet from top-level field names, used by
// callers that only need simple key selections (e.g. a @key "id" shorthand).
func NewSelectionSet(fieldNames ...string) *SelectionSet {
	sels := make([]*Selection, len(fieldNames))
	for i, name := range fieldNames {
		sels[i] = &Selection{Name: name}
	}
	return &SelectionSet{Selections: sels}
}

// FieldNames returns the top-level field names selected, in order.
func (s *SelectionSet) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Selections))
	for i, sel := range s.Selections {
		names[i] = sel.Name
	}
	return names
}

// Print renders a SelectionSet to a canonical string form, used to compare
// two selection sets for equivalence (C4's AddSelectionSets dedupes against
// a parent's existing selections this way) and as a map key when a plan
// needs to group requests by requirement shape.
func Print(s *SelectionSet) string {
	if s == nil || len(s.Selections) == 0 {
		return ""
	}
	parts := make([]string, len(s.Selections))
	for i, sel := range s.Selections {
		parts[i] = printSelection(sel)
	}
	sort.Strings(parts)
	return "{ " + strings.Join(parts, " ") + " }"
}

func printSelection(sel *Selection) string {
	var b strings.Builder
	if sel.TypeCondition != "" {
		b.WriteString("... on ")
		b.WriteString(sel.TypeCondition)
		b.WriteString(" ")
	}
	if sel.Alias != "" && sel.Alias != sel.Name {
		b.WriteString(sel.Alias)
		b.WriteString(": ")
	}
	b.WriteString(sel.Name)
	if len(sel.Arguments) > 0 {
		keys := make([]string, 0, len(sel.Arguments))
		for k := range sel.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]string, len(keys))
		for i, k := range keys {
			args[i] = k
		}
		b.WriteString("(")
		b.WriteString(strings.Join(args, ", "))
		b.WriteString(")")
	}
	if sel.SelectionSet != nil {
		b.WriteString(" ")
		b.WriteString(Print(sel.SelectionSet))
	}
	return b.String()
}

// MergeSelectionSets merges one or more selection sets by de-duplicating
// selections that print identically, preserving the first occurrence's
// order. This is the union operation used whenever two requirements on the
// same parent (a @key selection and an @computed field's requires, or two
// fields delegated in the same round) must be fetched together.
func MergeSelectionSets(sets ...*SelectionSet) *SelectionSet {
	seen := make(map[string]bool)
	merged := &SelectionSet{}
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, sel := range s.Selections {
			key := printSelection(sel)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged.Selections = append(merged.Selections, sel)
		}
	}
	return merged
}

// Contains reports whether every selection in need is present (by printed
// form) somewhere in have, used by the planner to check whether a parent
// object already satisfies a field's requirements without another round
// trip.
func Contains(have, need *SelectionSet) bool {
	if need == nil || len(need.Selections) == 0 {
		return true
	}
	if have == nil {
		return false
	}
	haveKeys := make(map[string]bool, len(have.Selections))
	for _, sel := range have.Selections {
		haveKeys[printSelection(sel)] = true
	}
	for _, sel := range need.Selections {
		if !haveKeys[printSelection(sel)] {
			return false
		}
	}
	return true
}
