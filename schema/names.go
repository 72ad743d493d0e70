// Package schema wraps the n9te9/graphql-parser AST with the federation
// facades the composition, query-graph, and planner packages build on:
// subgraph metadata (§3), the merged supergraph, and field-set parsing.
package schema

import "strings"

// GraphEnumName transforms a subgraph name into the UPPER_SNAKE value the
// join__Graph enum carries for it (§4.1 "Subgraph-name-to-enum-value
// transform"). The result always is a valid GraphQL enum value: letters,
// digits, and underscores only, never starting with a digit.
func GraphEnumName(subgraphName string) string {
	var b strings.Builder
	b.Grow(len(subgraphName) + 1)

	for _, r := range subgraphName {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := b.String()
	if name == "" {
		name = "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}

	return name
}

// DeduplicateGraphEnumNames appends a numeric suffix to any transformed name
// that collides with one produced earlier in the slice, preserving input
// order. Subgraph inputs are sorted by name before this runs so the result
// is deterministic (§8 property 1).
func DeduplicateGraphEnumNames(subgraphNames []string) map[string]string {
	seen := make(map[string]int, len(subgraphNames))
	out := make(map[string]string, len(subgraphNames))

	for _, name := range subgraphNames {
		base := GraphEnumName(name)
		count := seen[base]
		seen[base] = count + 1

		if count == 0 {
			out[name] = base
			continue
		}

		out[name] = base + "_" + itoa(count+1)
	}

	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
