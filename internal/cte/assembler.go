package cte

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/core"
)

// Assemble orders the CTEs so every dependency precedes its dependents and
// renders one complete statement:
//
//	WITH cte_1 AS (
//	...
//	), cte_2 AS (
//	...
//	)
//	SELECT * FROM cte_2;
//
// Ordering uses Kahn's algorithm with a min-heap keyed by original input
// position, so nodes with no edges between them keep their input order and
// the output is byte-identical across runs. Validation failures
// (DuplicateNameError, MissingDependencyError, CycleError) are terminal; no
// partial SQL is ever returned.
func Assemble(ctes []core.CTE) (string, error) {
	if len(ctes) == 0 {
		return "", nil
	}

	position := make(map[string]int, len(ctes))
	var duplicates []string
	for i, c := range ctes {
		if _, ok := position[c.Name]; ok {
			if !containsName(duplicates, c.Name) {
				duplicates = append(duplicates, c.Name)
			}
			continue
		}
		position[c.Name] = i
	}
	if len(duplicates) > 0 {
		return "", &DuplicateNameError{Names: duplicates}
	}

	// normalize dependency lists and collect every missing reference
	deps := make([][]string, len(ctes))
	var missing []string
	for i, c := range ctes {
		normalized := dedupe(c.DependsOn)
		for _, dep := range normalized {
			if _, ok := position[dep]; !ok && !containsName(missing, dep) {
				missing = append(missing, dep)
			}
		}
		deps[i] = normalized
	}
	if len(missing) > 0 {
		return "", &MissingDependencyError{Names: missing}
	}

	// adjacency: dependency -> dependents, with per-node in-degree
	dependents := make([][]int, len(ctes))
	inDegree := make([]int, len(ctes))
	for i, nodeDeps := range deps {
		for _, dep := range nodeDeps {
			j := position[dep]
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	ready := &positionHeap{}
	heap.Init(ready)
	for i := range ctes {
		if inDegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]int, 0, len(ctes))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, dependent := range dependents[i] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) < len(ctes) {
		return "", &CycleError{Path: reconstructCycle(ctes, deps, position, inDegree)}
	}

	return render(ctes, order), nil
}

// reconstructCycle walks the nodes still carrying positive in-degree and
// follows dependency edges among them until a node repeats, yielding one
// concrete offending path.
func reconstructCycle(ctes []core.CTE, deps [][]string, position map[string]int, inDegree []int) []string {
	remaining := make(map[int]bool)
	start := -1
	for i := range ctes {
		if inDegree[i] > 0 {
			remaining[i] = true
			if start == -1 {
				start = i
			}
		}
	}
	if start == -1 {
		return nil
	}

	visitedAt := map[int]int{}
	var path []int
	current := start
	for {
		if at, seen := visitedAt[current]; seen {
			cycle := append(path[at:], current)
			names := make([]string, len(cycle))
			for i, idx := range cycle {
				names[i] = ctes[idx].Name
			}
			return names
		}
		visitedAt[current] = len(path)
		path = append(path, current)

		next := -1
		for _, dep := range deps[current] {
			if j := position[dep]; remaining[j] {
				next = j
				break
			}
		}
		if next == -1 {
			// should not happen: every remaining node has a remaining dependency
			names := make([]string, len(path))
			for i, idx := range path {
				names[i] = ctes[idx].Name
			}
			return names
		}
		current = next
	}
}

func render(ctes []core.CTE, order []int) string {
	var sb strings.Builder
	sb.WriteString("WITH ")
	for i, idx := range order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ctes[idx].Name)
		sb.WriteString(" AS (\n")
		sb.WriteString(ctes[idx].Query)
		sb.WriteString("\n)")
	}
	last := ctes[order[len(order)-1]].Name
	fmt.Fprintf(&sb, "\nSELECT * FROM %s;", last)
	return sb.String()
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// positionHeap is a min-heap of input positions; the lowest original index
// is always popped first, which is what makes the sort stable.
type positionHeap []int

func (h positionHeap) Len() int           { return len(h) }
func (h positionHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h positionHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
