package diag_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	_ = v
}

func TestSinkOrdersEntriesByRegion(t *testing.T) {
	s := diag.NewSink(4)
	defer s.Stop()

	s.ReportError(diag.New(diag.Region{File: "b.v", Line: 3, Pos: 1}, diag.CodeNotFound, "b"))
	s.ReportWarning(diag.New(diag.Region{File: "a.v", Line: 9, Pos: 1}, diag.CodeGenvarNegative, "a late one"))
	s.ReportError(diag.New(diag.Region{File: "a.v", Line: 2, Pos: 5}, diag.CodeNotFound, "a"))

	entries := s.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "a.v", entries[0].Err.Region.File)
	assert.Equal(t, "a.v", entries[1].Err.Region.File)
	assert.Equal(t, "b.v", entries[2].Err.Region.File)
	assert.True(t, s.HasErrors())
}

func TestSinkDiagnosticTextSnapshot(t *testing.T) {
	s := diag.NewSink(2)
	defer s.Stop()

	s.ReportError(diag.New(diag.Region{File: "top.v", Line: 12, Pos: 4}, diag.CodeCyclicDependency, "module %q recursively instantiates itself", "cyclic"))

	entries := s.Entries()
	for _, e := range entries {
		snaps.MatchSnapshot(t, e.Err.Error())
	}
}
