package funck_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/boson-project/funck/pkg/funck"
)

func TestStatusTrackerLegalTransitions(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Add("greet")

	entry, ok := tr.Get("greet")
	assert.Assert(t, ok)
	assert.Equal(t, entry.Phase, funck.Accepted)

	tr.Set("greet", funck.StatusEntry{Phase: funck.Compiling})
	entry, _ = tr.Get("greet")
	assert.Equal(t, entry.Phase, funck.Compiling)

	tr.Set("greet", funck.StatusEntry{Phase: funck.Ready})
	entry, _ = tr.Get("greet")
	assert.Equal(t, entry.Phase, funck.Ready)
}

func TestStatusTrackerIllegalTransitionIgnored(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Add("greet")

	// Accepted -> Ready directly is illegal; must be ignored, not applied.
	tr.Set("greet", funck.StatusEntry{Phase: funck.Ready})

	entry, ok := tr.Get("greet")
	assert.Assert(t, ok)
	assert.Equal(t, entry.Phase, funck.Accepted)
}

func TestStatusTrackerSetOnUnknownNameIgnored(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Set("nope", funck.StatusEntry{Phase: funck.Compiling})

	_, ok := tr.Get("nope")
	assert.Assert(t, !ok)
}

func TestStatusTrackerSeedBypassesRules(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Seed("greet", funck.StatusEntry{Phase: funck.Ready})

	entry, ok := tr.Get("greet")
	assert.Assert(t, ok)
	assert.Equal(t, entry.Phase, funck.Ready)
}

func TestStatusTrackerSnapshotIsACopy(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Add("a")
	tr.Add("b")

	snap := tr.Snapshot()
	assert.Equal(t, len(snap), 2)

	tr.Add("c")
	assert.Equal(t, len(snap), 2) // snapshot unaffected by later mutation
}

func TestStatusTrackerReAddResetsLifecycle(t *testing.T) {
	tr := funck.NewStatusTracker()
	tr.Add("echo")
	tr.Set("echo", funck.StatusEntry{Phase: funck.Compiling})
	tr.Set("echo", funck.StatusEntry{Phase: funck.Ready})

	tr.Add("echo") // redeploy
	entry, _ := tr.Get("echo")
	assert.Equal(t, entry.Phase, funck.Accepted)
}
