package tracker

// idGenerator hands out incremental track IDs starting from zero
type idGenerator struct {
	next int
}

// getNext returns the next ID and advances the counter
func (g *idGenerator) getNext() int {
	id := g.next
	g.next++
	return id
}

// peek returns the ID the next call to getNext will return
func (g *idGenerator) peek() int {
	return g.next
}
