package bingo

import (
	"testing"

	"github.com/addisbingo/engine/internal/randutil"
)

func TestCheckWinEachCanonicalLine(t *testing.T) {
	t.Parallel()
	board := NewBoard(randutil.New(42))

	for li, line := range canonicalLines {
		marked := make(map[int]bool)
		for _, idx := range line {
			marked[board[idx]] = true
		}
		if !CheckWin(board, marked) {
			t.Errorf("line %d fully marked but CheckWin = false", li)
		}

		// Removing any single mark from the line must break the win
		for _, idx := range line {
			delete(marked, board[idx])
			if CheckWin(board, marked) {
				t.Errorf("line %d missing value at index %d but CheckWin = true", li, idx)
			}
			marked[board[idx]] = true
		}
	}
}

func TestCheckWinNoMarks(t *testing.T) {
	t.Parallel()
	board := NewBoard(randutil.New(1))
	if CheckWin(board, map[int]bool{}) {
		t.Error("empty marked set should not win")
	}
}

func TestCheckWinScatteredMarks(t *testing.T) {
	t.Parallel()
	board := NewBoard(randutil.New(9))

	// Four corners plus centre cover no canonical line
	marked := map[int]bool{
		board[0]: true, board[4]: true, board[12]: true, board[20]: true, board[24]: true,
	}
	if CheckWin(board, marked) {
		t.Error("corners plus centre should not win")
	}
}

func TestWinningLineReturnsCoveredIndices(t *testing.T) {
	t.Parallel()
	board := NewBoard(randutil.New(5))

	marked := make(map[int]bool)
	for i := 5; i < 10; i++ { // second row
		marked[board[i]] = true
	}

	line, ok := WinningLine(board, marked)
	if !ok {
		t.Fatal("expected a winning line")
	}
	if line != [Rows]int{5, 6, 7, 8, 9} {
		t.Errorf("unexpected winning line indices: %v", line)
	}
}
