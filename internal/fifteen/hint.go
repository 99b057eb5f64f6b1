package fifteen

// Hint suggests the tile whose move yields the smallest total
// Manhattan distance to the goal. Ties break on the lowest tile value,
// so the suggestion is deterministic for a given board. The state is
// not mutated and no move is consumed.
func (g *GameState) Hint() (int, error) {
	if g.Solved() {
		return 0, ErrAlreadySolved
	}

	empty := g.Board.EmptyIndex()
	bestTile := 0
	bestDist := -1

	for _, from := range neighbors(empty, g.Size) {
		tile := g.Board[from]
		scratch := g.Board.Clone()
		scratch.Swap(from, empty)
		dist := scratch.ManhattanSum(g.Size)
		if bestDist < 0 || dist < bestDist ||
			(dist == bestDist && tile < bestTile) {
			bestTile = tile
			bestDist = dist
		}
	}
	return bestTile, nil
}
