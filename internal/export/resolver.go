package export

import (
	"github.com/orhnk/Mahfouz/internal/entities"
)

// positionKind selects a positional fallback when none of a policy's named
// candidates exist in the live field list.
type positionKind int

const (
	positionNone positionKind = iota
	positionFirst
	positionLast
)

// fallbackPolicy describes where a logical key's content may land when its
// declared physical field is missing from the live note type.
type fallbackPolicy struct {
	candidates []string
	position   positionKind
}

// fallbackPolicies drives per-key fallback substitution. The highlight and
// comment policies differ from the metadata policy on the positional arm
// (first vs last available field); the asymmetry is inherited behavior and is
// kept as data here rather than silently unified.
var fallbackPolicies = map[entities.LogicalFieldKey]fallbackPolicy{
	entities.FieldHighlight: {candidates: []string{"Front"}, position: positionFirst},
	entities.FieldComment:   {candidates: []string{"Back", "Front"}, position: positionFirst},
}

// metadataFallbackPolicy applies to every key without a dedicated policy.
var metadataFallbackPolicy = fallbackPolicy{candidates: []string{"Back", "Front"}, position: positionLast}

// ResolveMapping validates a declared mapping against the live field list and
// produces a resolved mapping in which the highlight and comment keys are
// guaranteed a usable physical field. Logical keys without an adequate target
// are dropped silently. Resolution is pure: the declared mapping is never
// mutated, and nothing is persisted.
//
// Returns ErrNoFieldsAvailable when the field list is empty.
func ResolveMapping(declared entities.FieldMapping, fields []string) (entities.FieldMapping, error) {
	if len(fields) == 0 {
		return nil, ErrNoFieldsAvailable
	}

	available := make(map[string]bool, len(fields))
	for _, f := range fields {
		available[f] = true
	}

	resolved := make(entities.FieldMapping, len(declared))
	for _, key := range entities.LogicalFieldKeys {
		physical, ok := declared[key]
		if !ok || physical == "" {
			continue
		}
		if available[physical] {
			resolved[key] = physical
			continue
		}
		if fallback := resolveFallback(key, fields, available); fallback != "" {
			resolved[key] = fallback
		}
	}

	// Content keys must always land somewhere visible even when the user's
	// mapping predates a schema change.
	if resolved[entities.FieldHighlight] == "" {
		resolved[entities.FieldHighlight] = fields[0]
	}
	if resolved[entities.FieldComment] == "" {
		resolved[entities.FieldComment] = commentForcedTarget(fields, available)
	}

	return resolved, nil
}

func resolveFallback(key entities.LogicalFieldKey, fields []string, available map[string]bool) string {
	policy, ok := fallbackPolicies[key]
	if !ok {
		policy = metadataFallbackPolicy
	}

	for _, candidate := range policy.candidates {
		if available[candidate] {
			return candidate
		}
	}

	switch policy.position {
	case positionFirst:
		return fields[0]
	case positionLast:
		return fields[len(fields)-1]
	}
	return ""
}

// commentForcedTarget picks the field for an entirely unmapped comment key:
// "Back" if present, else "Front", else the second field, else the first.
func commentForcedTarget(fields []string, available map[string]bool) string {
	if available["Back"] {
		return "Back"
	}
	if available["Front"] {
		return "Front"
	}
	if len(fields) > 1 {
		return fields[1]
	}
	return fields[0]
}
