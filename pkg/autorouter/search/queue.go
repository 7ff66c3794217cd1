package search

import (
	"math"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// heading is the direction a state was entered from; start marks a source
// state that has not moved yet.
type heading uint8

const (
	start heading = iota
	east
	west
	south
	north
)

func headingOf(from, to geom.Point) heading {
	switch {
	case to.X > from.X:
		return east
	case to.X < from.X:
		return west
	case to.Y > from.Y:
		return south
	}
	return north
}

func (h heading) opposite() heading {
	switch h {
	case east:
		return west
	case west:
		return east
	case south:
		return north
	case north:
		return south
	}
	return start
}

// state is a search node: a rail stop plus the heading it was reached with.
type state struct {
	at geom.Point
	h  heading
}

// cost orders states lexicographically: weighted length, then bends.
type cost struct {
	length float64
	bends  int
}

func (c cost) less(o cost) bool {
	if math.Abs(c.length-o.length) > geom.Eps {
		return c.length < o.length
	}
	return c.bends < o.bends
}

type item struct {
	s state
	c cost
}

// queue is a min-heap of items. Stale entries stay in the heap and are
// skipped when popped (lazy decrease-key).
type queue []item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.c.less(b.c) {
		return true
	}
	if b.c.less(a.c) {
		return false
	}
	// Equal cost: fixed order keeps routes deterministic.
	switch {
	case a.s.at.X != b.s.at.X:
		return a.s.at.X < b.s.at.X
	case a.s.at.Y != b.s.at.Y:
		return a.s.at.Y < b.s.at.Y
	}
	return a.s.h < b.s.h
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(item)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
