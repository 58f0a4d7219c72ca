package bingo

import (
	rand "math/rand/v2"

	"github.com/addisbingo/engine/internal/randutil"
)

const (
	// Rows and Columns describe the 5x5 grid; BoardSize is its cell count.
	Rows      = 5
	Columns   = 5
	BoardSize = Rows * Columns

	// MaxNumber is the highest callable number; calls draw from [1, MaxNumber].
	MaxNumber = 75

	// numbersPerColumn is the width of each column's numeric range.
	numbersPerColumn = MaxNumber / Columns
)

// ColumnLetters are the traditional column headings, left to right.
var ColumnLetters = [Columns]string{"B", "I", "N", "G", "O"}

// Board is a player's 5x5 grid of numbers, stored row-major. Column c holds
// five distinct values from its fixed range: B=[1,15], I=[16,30], N=[31,45],
// G=[46,60], O=[61,75]. The ranges are disjoint, so a valid board never
// contains a duplicate. A board is immutable once generated.
type Board [BoardSize]int

// ColumnRange returns the inclusive numeric range for column c.
func ColumnRange(c int) (lo, hi int) {
	lo = c*numbersPerColumn + 1
	return lo, lo + numbersPerColumn - 1
}

// NewBoard generates a random board from the provided RNG. Each column's five
// values are drawn without replacement from that column's range, then the
// columns are interleaved row-major into the 25-cell grid.
func NewBoard(rng *rand.Rand) Board {
	var cols [Columns][]int
	for c := 0; c < Columns; c++ {
		lo, hi := ColumnRange(c)
		cols[c] = randutil.SampleRange(rng, lo, hi, Rows)
	}

	var b Board
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			b[row*Columns+col] = cols[col][row]
		}
	}
	return b
}

// Contains reports whether n appears anywhere on the board.
func (b Board) Contains(n int) bool {
	for _, v := range b {
		if v == n {
			return true
		}
	}
	return false
}

// Cell returns the value at the given row and column.
func (b Board) Cell(row, col int) int {
	return b[row*Columns+col]
}

// Numbers returns the board's values as a fresh slice, row-major.
func (b Board) Numbers() []int {
	out := make([]int, BoardSize)
	copy(out, b[:])
	return out
}
