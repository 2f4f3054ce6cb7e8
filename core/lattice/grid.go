package lattice

import (
	"fmt"
)

// Grid is a lower-triangular (N+1)x(N+1) matrix stored row by row.
// Node (i, j) with 0 <= j <= i <= N lives at offset i*(i+1)/2 + j, so the
// unused upper triangle is never allocated.
type Grid struct {
	steps int
	cells []float64
}

func newGrid(steps int) *Grid {
	return &Grid{
		steps: steps,
		cells: make([]float64, (steps+1)*(steps+2)/2),
	}
}

// Steps returns N
func (g *Grid) Steps() int {
	return g.steps
}

// Len returns the number of stored nodes
func (g *Grid) Len() int {
	return len(g.cells)
}

// At returns node (i, j). It panics outside the triangle, like a slice index would.
func (g *Grid) At(i, j int) float64 {
	g.check(i, j)
	return g.cells[offset(i)+j]
}

// Row returns slice i as a view of length i+1 over the grid storage
func (g *Grid) Row(i int) []float64 {
	g.check(i, 0)
	o := offset(i)
	return g.cells[o : o+i+1 : o+i+1]
}

func (g *Grid) check(i, j int) {
	if i < 0 || i > g.steps || j < 0 || j > i {
		panic(fmt.Sprintf("lattice: node (%d,%d) outside triangle of %d steps", i, j, g.steps))
	}
}

func offset(i int) int {
	return i * (i + 1) / 2
}
