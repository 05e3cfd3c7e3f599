package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSolveSquare(t *testing.T) {

	tests := []struct {
		name       string
		cost       []float64
		wantRowSol []int
		wantColSol []int
	}{
		{
			name: "unique optimum",
			cost: []float64{
				4, 1, 3, 2,
				2, 0, 5, 3,
				3, 2, 2, 3,
				2, 3, 3, 2,
			},
			wantRowSol: []int{3, 1, 2, 0},
			wantColSol: []int{3, 1, 2, 0},
		},
		{
			name: "contested cheapest column",
			cost: []float64{
				10, 19, 8, 15,
				10, 18, 7, 17,
				13, 16, 9, 14,
				12, 19, 8, 18,
			},
			wantRowSol: []int{3, 0, 1, 2},
			wantColSol: []int{1, 2, 3, 0},
		},
		{
			name:       "single cell",
			cost:       []float64{5},
			wantRowSol: []int{0},
			wantColSol: []int{0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			n := 1
			for n*n < len(tc.cost) {
				n++
			}

			l, err := solveSquare(mat.NewDense(n, n, tc.cost))
			require.NoError(t, err)
			assert.Equal(t, tc.wantRowSol, l.rowSol)
			assert.Equal(t, tc.wantColSol, l.colSol)
		})
	}
}

func TestSolveSquareRejectsRectangle(t *testing.T) {

	_, err := solveSquare(mat.NewDense(2, 3, nil))
	assert.ErrorContains(t, err, "not square")
}

func TestSolveSquareBeatsGreedy(t *testing.T) {

	// taking the cheapest cell first (0,0) forces the expensive (1,1), the
	// minimum total swaps the pair
	cost := mat.NewDense(2, 2, []float64{
		1, 2,
		2, 9,
	})

	l, err := solveSquare(cost)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, l.rowSol)
}

func TestSolveAssignmentRectangular(t *testing.T) {

	cost := mat.NewDense(2, 3, []float64{
		0.9, 0.1, 0.8,
		0.9, 0.8, 0.2,
	})

	rowSol, colSol, err := solveAssignment(cost, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rowSol)
	assert.Equal(t, []int{-1, 0, 1}, colSol)
}

func TestSolveAssignmentCostLimit(t *testing.T) {

	cost := mat.NewDense(1, 1, []float64{0.9})

	rowSol, colSol, err := solveAssignment(cost, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, rowSol)
	assert.Equal(t, []int{-1}, colSol)
}

func TestSolveAssignmentLeavesInputUntouched(t *testing.T) {

	cost := mat.NewDense(2, 2, []float64{
		0.1, 0.5,
		0.5, 0.2,
	})
	want := mat.DenseCopyOf(cost)

	rowSol, _, err := solveAssignment(cost, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, rowSol)
	assert.True(t, mat.Equal(want, cost))
}
