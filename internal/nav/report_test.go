package nav_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

func TestReportListsCandidatesWithoutPick(t *testing.T) {
	p := newProvider()
	p.Implementations = []symbol.Location{loc(sqlURI, sqlSaveSel), loc(memURI, rng(3, 18, 3, 22))}
	r := &nav.Report{}

	out := nav.New(p).ResolveImplementation(context.Background(), r, serviceURI, repoSaveSel.Start)

	require.Equal(t, nav.Cancelled, out.Kind)
	assert.Empty(t, r.Navigations)
	require.Len(t, r.Candidates, 2)
	assert.Equal(t,
		"outcome: cancelled\n"+
			"Select implementation to navigate to (pass pick to choose):\n"+
			"  1. sql.go:11  /work/store/sql.go:11:19\n"+
			"  2. memory.go:4  /work/store/memory.go:4:19\n",
		r.Render(out))
}

func TestReportPick(t *testing.T) {
	p := newProvider()
	p.Implementations = []symbol.Location{loc(sqlURI, sqlSaveSel), loc(memURI, rng(3, 18, 3, 22))}

	r := &nav.Report{Pick: 2}
	out := nav.New(p).ResolveImplementation(context.Background(), r, serviceURI, repoSaveSel.Start)
	require.Equal(t, nav.Navigated, out.Kind)
	assert.Equal(t, []symbol.Location{loc(memURI, rng(3, 18, 3, 22))}, r.Navigations)
	assert.Equal(t, "outcome: navigated\ntarget: /work/store/memory.go:4:19\n", r.Render(out))

	r = &nav.Report{Pick: 3}
	out = nav.New(p).ResolveImplementation(context.Background(), r, serviceURI, repoSaveSel.Start)
	assert.Equal(t, nav.Failed, out.Kind)
	assert.Contains(t, r.Render(out), "error: pick 3 out of range")
}

func TestReportMessages(t *testing.T) {
	r := &nav.Report{}
	out := nav.New(newProvider()).ResolveInterface(context.Background(), r, "Save", repoSaveSel.Start)

	assert.Equal(t, nav.Failed, out.Kind)
	assert.Equal(t, "outcome: failed\nerror: No active text editor\n", r.Render(out))
}
