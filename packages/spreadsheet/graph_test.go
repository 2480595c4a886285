package spreadsheet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMirrored checks every pair is visible from both directions
func assertMirrored(t *testing.T, dg *DependencyGraph) {
	t.Helper()
	pairs := 0
	for dependent, reads := range dg.dependees {
		assert.NotEmpty(t, reads, "empty dependee set kept for %s", dependent)
		for dependee := range reads {
			_, ok := dg.dependents[dependee][dependent]
			assert.True(t, ok, "(%s, %s) missing from dependents", dependent, dependee)
			pairs++
		}
	}
	for dependee, readers := range dg.dependents {
		assert.NotEmpty(t, readers, "empty dependent set kept for %s", dependee)
		for dependent := range readers {
			_, ok := dg.dependees[dependent][dependee]
			assert.True(t, ok, "(%s, %s) missing from dependees", dependent, dependee)
		}
	}
	assert.Equal(t, pairs, dg.Size())
}

func TestDependencyGraphAddRemove(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "B1"))
	require.NoError(t, dg.AddDependency("C1", "B1"))

	assert.Equal(t, 3, dg.Size())
	assert.Equal(t, []string{"B1", "C1"}, dg.GetDependents("A1"))
	assert.Equal(t, []string{"A1", "B1"}, dg.GetDependees("C1"))
	assert.True(t, dg.HasDependents("A1"))
	assert.False(t, dg.HasDependees("A1"))
	assertMirrored(t, dg)

	dg.RemoveDependency("C1", "A1")
	dg.RemoveDependency("C1", "A1")
	dg.RemoveDependency("Z1", "A1")
	assert.Equal(t, 2, dg.Size())
	assert.Equal(t, []string{"B1"}, dg.GetDependents("A1"))
	assertMirrored(t, dg)

	dg.RemoveDependency("B1", "A1")
	dg.RemoveDependency("C1", "B1")
	assert.Equal(t, 0, dg.Size())
	assert.Empty(t, dg.dependees)
	assert.Empty(t, dg.dependents)
}

func TestDependencyGraphEmptyNames(t *testing.T) {
	dg := NewDependencyGraph()
	assert.ErrorIs(t, dg.AddDependency("", "A1"), ErrInvalidArgument)
	assert.ErrorIs(t, dg.AddDependency("A1", ""), ErrInvalidArgument)

	require.NoError(t, dg.AddDependency("B1", "A1"))
	assert.ErrorIs(t, dg.ReplaceDependees("B1", []string{"C1", ""}), ErrInvalidArgument)
	assert.ErrorIs(t, dg.ReplaceDependents("", nil), ErrInvalidArgument)
	assert.Equal(t, []string{"A1"}, dg.GetDependees("B1"))
	assert.Equal(t, 1, dg.Size())
}

func TestDependencyGraphSnapshots(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))

	dependents := dg.GetDependents("A1")
	require.NoError(t, dg.AddDependency("C1", "A1"))
	assert.Equal(t, []string{"B1"}, dependents)

	assert.Empty(t, dg.GetDependents("nothing"))
	assert.NotNil(t, dg.GetDependees("nothing"))
}

func TestDependencyGraphReplace(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("C1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "B1"))

	require.NoError(t, dg.ReplaceDependees("C1", []string{"B1", "D1", "D1"}))
	assert.Equal(t, []string{"B1", "D1"}, dg.GetDependees("C1"))
	assert.Empty(t, dg.GetDependents("A1"))
	assert.Equal(t, 2, dg.Size())
	assertMirrored(t, dg)

	before := dg.Clone()
	require.NoError(t, dg.ReplaceDependees("C1", []string{"B1", "D1"}))
	assert.Equal(t, before, dg)

	require.NoError(t, dg.ReplaceDependents("B1", []string{"E1", "F1"}))
	assert.Equal(t, []string{"E1", "F1"}, dg.GetDependents("B1"))
	assert.Equal(t, []string{"D1"}, dg.GetDependees("C1"))
	assert.Equal(t, 3, dg.Size())
	assertMirrored(t, dg)

	require.NoError(t, dg.ReplaceDependees("C1", nil))
	require.NoError(t, dg.ReplaceDependents("B1", nil))
	assert.Equal(t, 0, dg.Size())
	assertMirrored(t, dg)
}

func TestDependencyGraphCloneIsIndependent(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))

	clone := dg.Clone()
	require.NoError(t, clone.AddDependency("C1", "A1"))

	assert.Equal(t, 1, dg.Size())
	assert.Equal(t, []string{"B1"}, dg.GetDependents("A1"))
	assert.Equal(t, []string{"B1", "C1"}, clone.GetDependents("A1"))

	clone.Clear()
	assert.Equal(t, 0, clone.Size())
	assert.Equal(t, 1, dg.Size())
}

func TestDependencyGraphStress(t *testing.T) {
	dg := NewDependencyGraph()
	const n = 200
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j += 7 {
			require.NoError(t, dg.AddDependency(fmt.Sprintf("C%d", i), fmt.Sprintf("C%d", j)))
		}
	}
	for i := 0; i < n; i += 3 {
		for j := i + 1; j < n; j += 14 {
			dg.RemoveDependency(fmt.Sprintf("C%d", i), fmt.Sprintf("C%d", j))
		}
	}
	assertMirrored(t, dg)
}
