package validator

import (
	"strings"

	"github.com/harun/flowmind/pkg/plan"
)

// buildGraph unions explicit depends_on declarations with the implicit
// dependencies induced by input references into one directed graph over step
// positions. An edge u -> v means step u must run before step v. References
// and dependencies naming unknown identifiers are errors, never edges.
// Non-string depends_on entries are silently skipped (documented policy).
func (v *run) buildGraph() {
	v.adjacency = make(map[int]map[int]struct{}, len(v.steps))

	for i, step := range v.steps {
		if step == nil {
			continue
		}
		base := stepPath(i)

		deps, _ := step["depends_on"].([]any)
		for _, rawDep := range deps {
			dep, ok := rawDep.(string)
			if !ok {
				continue
			}
			dep = strings.TrimSpace(dep)
			j, known := v.idToIndex[dep]
			if !known {
				v.errf(CodeUnknownDependency, base+".depends_on",
					"Unknown dependency step_id: %q", dep)
				continue
			}
			v.addEdge(j, i)
		}

		inputs, _ := step["inputs"].(map[string]any)
		for _, key := range sortedKeys(inputs) {
			ref, ok := plan.ParseRef(inputs[key])
			if !ok {
				continue
			}
			path := base + ".inputs." + key
			j, known := v.idToIndex[ref.StepID]
			if !known {
				v.errf(CodeUnknownStepRef, path, "Unknown step reference: %q", ref.StepID)
				continue
			}
			if !v.declaresOutput(j, ref.Output) {
				v.errf(CodeUnknownOutputField, path,
					"Atom for step %q has no output %q", ref.StepID, ref.Output)
				continue
			}
			// The induced edge is what guarantees the referenced step sorts
			// before the referencing one.
			v.addEdge(j, i)
		}
	}
}

func (v *run) addEdge(from, to int) {
	succ, ok := v.adjacency[from]
	if !ok {
		succ = make(map[int]struct{})
		v.adjacency[from] = succ
	}
	succ[to] = struct{}{}
}

// declaresOutput reports whether the atom bound to the step at position j
// declares the named output.
func (v *run) declaresOutput(j int, output string) bool {
	step := v.steps[j]
	if step == nil {
		return false
	}
	atomID, _ := step["atom_id"].(string)
	atom, ok := v.registry.Get(atomID)
	if !ok {
		return false
	}
	_, declared := atom.OutputNames()[output]
	return declared
}

// scheduleOrFail runs Kahn's algorithm over the combined graph. Leftover
// nodes mean a cycle and fail validation naming the participating
// identifiers. On success the execution order and the graph layers are
// recorded; among ready steps the one earliest in the document always goes
// first, which makes the order deterministic and reproducible.
func (v *run) scheduleOrFail() {
	n := len(v.steps)
	indegree := make([]int, n)
	for _, succs := range v.adjacency {
		for to := range succs {
			indegree[to]++
		}
	}

	remaining := make([]int, n)
	copy(remaining, indegree)

	var order []int
	ready := readyNodes(remaining, nil)
	for len(ready) > 0 {
		// Ascending document position tie-break.
		u := ready[0]
		ready = ready[1:]
		order = append(order, u)
		for to := range v.adjacency[u] {
			remaining[to]--
			if remaining[to] == 0 {
				ready = insertSorted(ready, to)
			}
		}
	}

	if len(order) != n {
		var stuck []string
		scheduled := make(map[int]bool, len(order))
		for _, u := range order {
			scheduled[u] = true
		}
		for i := 0; i < n; i++ {
			if !scheduled[i] {
				stuck = append(stuck, v.ids[i])
			}
		}
		v.errf(CodeCircularDependency, "plan.steps",
			"Circular dependency among steps: %s", strings.Join(stuck, ", "))
		return
	}

	if len(v.errs) > 0 {
		return
	}

	v.order = make([]string, n)
	for pos, u := range order {
		v.order[pos] = v.ids[u]
	}
	v.layers = v.computeLayers(indegree)
}

// computeLayers groups steps into graph layers: every step in a layer has all
// its predecessors in earlier layers, so steps sharing a layer are mutually
// independent and may be dispatched concurrently.
func (v *run) computeLayers(indegree []int) [][]string {
	remaining := make([]int, len(indegree))
	copy(remaining, indegree)
	done := make([]bool, len(remaining))

	var layers [][]string
	current := readyNodes(remaining, done)
	for len(current) > 0 {
		layer := make([]string, 0, len(current))
		for _, u := range current {
			layer = append(layer, v.ids[u])
			done[u] = true
		}
		layers = append(layers, layer)

		for _, u := range current {
			for to := range v.adjacency[u] {
				remaining[to]--
			}
		}
		current = readyNodes(remaining, done)
	}
	return layers
}

// readyNodes returns the positions with no remaining predecessors, ascending.
func readyNodes(remaining []int, done []bool) []int {
	var ready []int
	for i, r := range remaining {
		if r == 0 && (done == nil || !done[i]) {
			ready = append(ready, i)
		}
	}
	return ready
}

// insertSorted inserts x into an ascending slice, keeping it sorted.
func insertSorted(sorted []int, x int) []int {
	pos := len(sorted)
	for i, val := range sorted {
		if x < val {
			pos = i
			break
		}
	}
	sorted = append(sorted, 0)
	copy(sorted[pos+1:], sorted[pos:])
	sorted[pos] = x
	return sorted
}
