package bingo

// canonicalLines lists the twelve winning patterns as board indices: the five
// rows, the five columns, and the two diagonals.
var canonicalLines = [12][Rows]int{
	// Rows
	{0, 1, 2, 3, 4},
	{5, 6, 7, 8, 9},
	{10, 11, 12, 13, 14},
	{15, 16, 17, 18, 19},
	{20, 21, 22, 23, 24},
	// Columns
	{0, 5, 10, 15, 20},
	{1, 6, 11, 16, 21},
	{2, 7, 12, 17, 22},
	{3, 8, 13, 18, 23},
	{4, 9, 14, 19, 24},
	// Diagonals
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

// CheckWin reports whether the marked set fully covers at least one canonical
// line of the board. A line is covered iff every board value at its five
// indices is present in marked.
func CheckWin(board Board, marked map[int]bool) bool {
	_, ok := WinningLine(board, marked)
	return ok
}

// WinningLine returns the board indices of the first covered canonical line,
// if any.
func WinningLine(board Board, marked map[int]bool) ([Rows]int, bool) {
	for _, line := range canonicalLines {
		covered := true
		for _, idx := range line {
			if !marked[board[idx]] {
				covered = false
				break
			}
		}
		if covered {
			return line, true
		}
	}
	return [Rows]int{}, false
}
