// Package composition implements C1, the composition/merger described in
// §4.1: it takes a set of validated subgraph schemas and produces the
// join-annotated supergraph schema the query graph (§4.2) is built from.
package composition

import (
	"fmt"
	"sort"

	"github.com/n9te9/federation-core/schema"
)

// ErrorCode is one of the stable error-code strings of §6/§7.1.
type ErrorCode string

const (
	ErrExtensionWithNoBase               ErrorCode = "EXTENSION_WITH_NO_BASE"
	ErrTypeWithOnlyUnusedExternal        ErrorCode = "TYPE_WITH_ONLY_UNUSED_EXTERNAL"
	ErrInvalidSubgraphName               ErrorCode = "INVALID_SUBGRAPH_NAME"
	ErrFieldTypeMismatch                 ErrorCode = "FIELD_TYPE_MISMATCH"
	ErrTypeKindMismatch                  ErrorCode = "TYPE_KIND_MISMATCH"
	ErrInterfaceObjectUsageError         ErrorCode = "INTERFACE_OBJECT_USAGE_ERROR"
	ErrInterfaceObjectRequiresFed2       ErrorCode = "INTERFACE_OBJECT_REQUIRES_FED2_SUBGRAPHS"
	ErrDuplicateConflictingDefinition    ErrorCode = "DUPLICATE_CONFLICTING_DEFINITION"
)

// Error is a single composition error (§7.1): a structural mismatch in the
// inputs, carrying the offending subgraph names and a stable code.
type Error struct {
	Code      ErrorCode
	Message   string
	Subgraphs []string
	TypeName  string
	FieldName string
}

func (e *Error) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.TypeName, e.FieldName, e.Message)
	}
	if e.TypeName != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.TypeName, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Hint is a non-fatal composition observation (§7.2): conflicting
// descriptions, default-value mismatches, root-type overrides. Hints never
// block composition; they accumulate and ride along with the result.
type Hint struct {
	Message   string
	TypeName  string
	FieldName string
}

func (h Hint) String() string {
	if h.FieldName != "" {
		return fmt.Sprintf("%s.%s: %s", h.TypeName, h.FieldName, h.Message)
	}
	if h.TypeName != "" {
		return fmt.Sprintf("%s: %s", h.TypeName, h.Message)
	}
	return h.Message
}

// MergeResult is the outcome of Merge: either a supergraph plus hints on
// success, or errors (with hints and a best-effort partial supergraph) on
// failure. Composition never short-circuits on the first error (§4.1
// "Failure model").
type MergeResult struct {
	Supergraph *schema.Supergraph
	Hints      []Hint
	Errors     []*Error
}

// OK reports whether composition produced a usable supergraph.
func (r *MergeResult) OK() bool {
	return len(r.Errors) == 0
}

// sortedErrors returns errors sorted for deterministic exit-status reporting
// (§6 "non-zero with a sorted list of errors on failure").
func sortedErrors(errs []*Error) []*Error {
	out := make([]*Error, len(errs))
	copy(out, errs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		if out[i].TypeName != out[j].TypeName {
			return out[i].TypeName < out[j].TypeName
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out
}
