package graph

import (
	"math"
)

// Path восстанавливает путь source -> sink по ParentEdge.
// Возвращает ID рёбер в порядке от истока к стоку, nil если пути нет.
func Path(r *PathResult, source, sink int) []int {
	return AppendPath(nil, r, source, sink)
}

// AppendPath как Path, но дописывает в dst (переиспользование буфера).
func AppendPath(dst []int, r *PathResult, source, sink int) []int {
	dst = dst[:0]
	if r == nil || !r.Found || source == sink {
		return dst
	}

	for v := sink; v != source; v = r.Parent[v] {
		id := r.ParentEdge[v]
		if id == NoParent {
			return dst[:0]
		}
		dst = append(dst, id)
	}

	// разворачиваем: собирали от стока к истоку
	for i, j := 0, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}

// PathNodes переводит путь из рёбер в последовательность узлов.
func PathNodes(g *FlowGraph, edges []int) []int {
	if len(edges) == 0 {
		return nil
	}
	nodes := make([]int, 0, len(edges)+1)
	nodes = append(nodes, g.edges[edges[0]].From)
	for _, id := range edges {
		nodes = append(nodes, g.edges[id].To)
	}
	return nodes
}

// Bottleneck находит минимальную остаточную пропускную способность на пути.
// Для пустого пути возвращает 0.
func Bottleneck(g *FlowGraph, edges []int) int64 {
	if len(edges) == 0 {
		return 0
	}
	minCap := int64(math.MaxInt64)
	for _, id := range edges {
		if c := g.edges[id].Capacity; c < minCap {
			minCap = c
		}
	}
	return minCap
}

// Augment проталкивает amount единиц потока вдоль пути.
func Augment(g *FlowGraph, edges []int, amount int64) error {
	for _, id := range edges {
		if err := g.Push(id, amount); err != nil {
			return err
		}
	}
	return nil
}
