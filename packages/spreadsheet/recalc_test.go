package spreadsheet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellsToRecalculate(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "B1"))
	require.NoError(t, dg.AddDependency("D1", "C1"))

	order, err := CellsToRecalculate(dg, "A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "C1", "D1"}, order)

	order, err = CellsToRecalculate(dg, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "D1"}, order)

	order, err = CellsToRecalculate(dg, "Z1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Z1"}, order)
}

func TestCellsToRecalculateRespectsReads(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "A1"))
	require.NoError(t, dg.AddDependency("B1", "C1"))
	require.NoError(t, dg.AddDependency("E1", "B1"))
	require.NoError(t, dg.AddDependency("E1", "D1"))
	require.NoError(t, dg.AddDependency("D1", "C1"))

	order, err := CellsToRecalculate(dg, "A1")
	require.NoError(t, err)
	require.Len(t, order, 5)
	assert.Equal(t, "A1", order[0])

	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	for _, name := range order {
		for _, dependee := range dg.GetDependees(name) {
			if p, ok := position[dependee]; ok {
				assert.Less(t, p, position[name], "%s must come before %s", dependee, name)
			}
		}
	}
}

func TestCellsToRecalculateCycle(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))
	require.NoError(t, dg.AddDependency("C1", "B1"))
	require.NoError(t, dg.AddDependency("A1", "C1"))

	order, err := CellsToRecalculate(dg, "A1")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Equal(t, FailedPrecondition, CodeOf(err))

	// a cycle not reachable from the start is not reported
	dg = NewDependencyGraph()
	require.NoError(t, dg.AddDependency("C1", "B1"))
	require.NoError(t, dg.AddDependency("B1", "C1"))
	order, err = CellsToRecalculate(dg, "A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, order)
}

func TestCalculationStackReuse(t *testing.T) {
	dg := NewDependencyGraph()
	require.NoError(t, dg.AddDependency("B1", "A1"))
	require.NoError(t, dg.AddDependency("A1", "B1"))

	cs := NewCalculationStack()
	_, err := cs.Order(dg, "A1")
	require.ErrorIs(t, err, ErrCircularDependency)

	dg.RemoveDependency("A1", "B1")
	order, err := cs.Order(dg, "A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, order)
}

func TestCellsToRecalculateDeepChain(t *testing.T) {
	const n = 100000
	dg := NewDependencyGraph()
	for i := 1; i < n; i++ {
		require.NoError(t, dg.AddDependency(fmt.Sprintf("A%d", i+1), fmt.Sprintf("A%d", i)))
	}

	order, err := CellsToRecalculate(dg, "A1")
	require.NoError(t, err)
	require.Len(t, order, n)
	assert.Equal(t, "A1", order[0])
	assert.Equal(t, fmt.Sprintf("A%d", n), order[n-1])
}
