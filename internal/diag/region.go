// Package diag defines the elaborator's error taxonomy (ElbError) and the
// diagnostics sink that collects them without aborting elaboration.
package diag

import "fmt"

// Region identifies a source file location for diagnostics, carried by every
// PT node and propagated onto every VL entity and ElbError built from it.
type Region struct {
	File string
	Line int
	Pos  int
}

// String renders the region as "file:line:col".
func (r Region) String() string {
	if r.File == "" {
		return fmt.Sprintf("%d:%d", r.Line, r.Pos)
	}
	return fmt.Sprintf("%s:%d:%d", r.File, r.Line, r.Pos)
}
