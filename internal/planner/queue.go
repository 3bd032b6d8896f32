package planner

import "grid-motion-planner/internal/grid"

// node is a frontier entry of the grid search.
type node struct {
	cell   grid.Cell
	g      float64 // cost from start
	f      float64 // g + heuristic to goal
	seq    uint64  // insertion order, breaks f ties
	parent *node
	index  int // index in the heap, -1 once popped
}

// priorityQueue implements heap.Interface ordered by f, then insertion order.
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*pq = old[:last]
	return n
}
