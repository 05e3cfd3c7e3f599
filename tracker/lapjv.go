package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// unreachable seeds the minimum searches, it is above any reduced cost of a
// 1-IoU cost matrix
const unreachable = 1e6

// lapjv holds the working state of the Jonker-Volgenant algorithm solving
// the Linear Assignment Problem of a square cost matrix
type lapjv struct {
	n    int
	cost *mat.Dense
	// rowSol is the column assigned to each row and colSol the row assigned
	// to each column, -1 while unassigned
	rowSol []int
	colSol []int
	// price is the dual variable of each column
	price []float64
}

// solveSquare assigns every row of the square cost matrix to a column so the
// summed cost is minimal
func solveSquare(cost *mat.Dense) (*lapjv, error) {

	rows, cols := cost.Dims()

	if rows != cols {
		return nil, fmt.Errorf("cost matrix %dx%d is not square", rows, cols)
	}

	l := &lapjv{
		n:      rows,
		cost:   cost,
		rowSol: make([]int, rows),
		colSol: make([]int, rows),
		price:  make([]float64, rows),
	}

	// column reduction, two rounds of augmenting row reduction, then a
	// shortest augmenting path for each row still free
	free := l.reduceColumns()

	for round := 0; round < 2 && len(free) > 0; round++ {
		free = l.reduceRows(free)
	}

	for _, i := range free {
		if err := l.augment(i); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// solveAssignment solves the rectangular assignment of a rows x cols cost
// matrix where leaving a row or column unassigned costs costLimit/2, so no
// pair costing more than costLimit is ever chosen.  It returns the column
// assigned to each row and the row assigned to each column, -1 where
// unassigned
func solveAssignment(cost *mat.Dense, costLimit float64) (rowSol, colSol []int, err error) {

	rows, cols := cost.Dims()
	n := rows + cols

	// dummy rows and columns, the dummy to dummy block costs nothing
	ext := mat.NewDense(n, n, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i < rows || j < cols {
				ext.Set(i, j, costLimit/2.0)
			}
		}
	}

	ext.Slice(0, rows, 0, cols).(*mat.Dense).Copy(cost)

	l, err := solveSquare(ext)

	if err != nil {
		return nil, nil, fmt.Errorf("lapjv failed: %w", err)
	}

	rowSol = make([]int, rows)
	colSol = make([]int, cols)

	for i := range rowSol {
		rowSol[i] = l.rowSol[i]
		if rowSol[i] >= cols {
			rowSol[i] = -1
		}
	}

	for j := range colSol {
		colSol[j] = l.colSol[j]
		if colSol[j] >= rows {
			colSol[j] = -1
		}
	}

	return rowSol, colSol, nil
}

// reduced returns the cost of assigning row i to column j less the column
// price
func (l *lapjv) reduced(i, j int) float64 {
	return l.cost.At(i, j) - l.price[j]
}

// reduceColumns prices each column at its cheapest row and assigns it to
// that row when the row is not already taken, scanning columns from the
// last.  Rows holding a single column transfer their slack to its price.
// It returns the rows left unassigned
func (l *lapjv) reduceColumns() []int {

	for i := 0; i < l.n; i++ {
		l.rowSol[i] = -1
		l.price[i] = unreachable
		l.colSol[i] = 0
	}

	for i := 0; i < l.n; i++ {
		for j := 0; j < l.n; j++ {
			if c := l.cost.At(i, j); c < l.price[j] {
				l.price[j] = c
				l.colSol[j] = i
			}
		}
	}

	unique := make([]bool, l.n)

	for i := range unique {
		unique[i] = true
	}

	for j := l.n - 1; j >= 0; j-- {
		i := l.colSol[j]

		if l.rowSol[i] < 0 {
			l.rowSol[i] = j
			continue
		}

		unique[i] = false
		l.colSol[j] = -1
	}

	var free []int

	for i := 0; i < l.n; i++ {

		if l.rowSol[i] < 0 {
			free = append(free, i)
			continue
		}

		if !unique[i] {
			continue
		}

		j := l.rowSol[i]
		slack := unreachable

		for j2 := 0; j2 < l.n; j2++ {
			if j2 == j {
				continue
			}

			if c := l.reduced(i, j2); c < slack {
				slack = c
			}
		}

		l.price[j] -= slack
	}

	return free
}

// reduceRows assigns each free row to its cheapest column by reduced cost,
// lowering that column's price by the gap to the row's second choice.  A
// displaced row is retried at once while prices fall, otherwise it is kept
// for the next round.  It returns the rows still free
func (l *lapjv) reduceRows(free []int) []int {

	current := 0
	kept := 0
	steps := 0

	for current < len(free) {

		steps++
		i := free[current]
		current++

		// lowest and second lowest reduced cost in the row
		j1, u1 := 0, l.reduced(i, 0)
		j2, u2 := -1, float64(unreachable)

		for j := 1; j < l.n; j++ {

			c := l.reduced(i, j)

			if c >= u2 {
				continue
			}

			if c >= u1 {
				j2, u2 = j, c
			} else {
				j2, u2 = j1, u1
				j1, u1 = j, c
			}
		}

		displaced := l.colSol[j1]
		lowered := l.price[j1] - (u2 - u1)
		lowers := lowered < l.price[j1]

		switch {
		case steps >= current*l.n:
			if displaced >= 0 {
				free[kept] = displaced
				kept++
			}

		default:
			if lowers {
				l.price[j1] = lowered
			} else if displaced >= 0 && j2 >= 0 {
				j1 = j2
				displaced = l.colSol[j2]
			}

			if displaced >= 0 {
				if lowers {
					current--
					free[current] = displaced
				} else {
					free[kept] = displaced
					kept++
				}
			}
		}

		l.rowSol[i] = j1
		l.colSol[j1] = i
	}

	return free[:kept]
}

// augment assigns the free row start along the shortest augmenting path,
// shifting each row on the path to the next column
func (l *lapjv) augment(start int) error {

	j, pred := l.shortestPath(start)

	if j < 0 || j >= l.n {
		return fmt.Errorf("augmenting path from row %d ended at column %d", start, j)
	}

	for i, steps := -1, 0; i != start; {

		i = pred[j]
		l.colSol[j] = i
		j, l.rowSol[i] = l.rowSol[i], j
		steps++

		if steps >= l.n {
			return errors.New("augmenting path longer than matrix")
		}
	}

	return nil
}

// shortestPath runs Dijkstra over reduced costs from row start until it
// reaches an unassigned column, then updates the prices of the columns
// settled on the way.  It returns that column and the row preceding each
// column on the path
func (l *lapjv) shortestPath(start int) (int, []int) {

	cols := make([]int, l.n)
	dist := make([]float64, l.n)
	pred := make([]int, l.n)

	for j := 0; j < l.n; j++ {
		cols[j] = j
		pred[j] = start
		dist[j] = l.reduced(start, j)
	}

	// cols[:ready] are settled, cols[lo:hi] are at the current minimum
	// distance waiting to be scanned and cols[hi:] are still to do
	lo, hi, ready := 0, 0, 0
	end := -1

	for end == -1 {

		if lo == hi {
			ready = lo
			hi = collectMin(lo, dist, cols)

			for _, j := range cols[lo:hi] {
				if l.colSol[j] < 0 {
					end = j
				}
			}
		}

		if end == -1 {
			end = l.scan(&lo, &hi, dist, cols, pred)
		}
	}

	minDist := dist[cols[lo]]

	for _, j := range cols[:ready] {
		l.price[j] += dist[j] - minDist
	}

	return end, pred
}

// collectMin moves the columns from lo onward sharing the minimum distance
// to the front of that range and returns the end of the group
func collectMin(lo int, dist []float64, cols []int) int {

	hi := lo + 1
	minDist := dist[cols[lo]]

	for k := hi; k < len(cols); k++ {

		j := cols[k]

		if dist[j] > minDist {
			continue
		}

		if dist[j] < minDist {
			hi = lo
			minDist = dist[j]
		}

		cols[k] = cols[hi]
		cols[hi] = j
		hi++
	}

	return hi
}

// scan relaxes the distances of the unscanned columns through the rows
// assigned to the columns waiting at the minimum distance.  It returns an
// unassigned column reached at the minimum distance, or -1 once the waiting
// group is exhausted
func (l *lapjv) scan(lo, hi *int, dist []float64, cols, pred []int) int {

	for *lo != *hi {

		j := cols[*lo]
		*lo++
		i := l.colSol[j]
		minDist := dist[j]
		h := l.reduced(i, j) - minDist

		for k := *hi; k < l.n; k++ {

			j = cols[k]
			c := l.reduced(i, j) - h

			if c >= dist[j] {
				continue
			}

			dist[j] = c
			pred[j] = i

			if c != minDist {
				continue
			}

			if l.colSol[j] < 0 {
				return j
			}

			cols[k] = cols[*hi]
			cols[*hi] = j
			*hi++
		}
	}

	return -1
}
