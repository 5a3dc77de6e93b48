package graphs

import "testing"

func setOf(vs ...string) map[string]bool {
	out := map[string]bool{}
	for _, v := range vs {
		out[v] = true
	}
	return out
}

func TestGraphDegreeIndegreeOutdegree(t *testing.T) {
	g := New[string]()
	g.Vertices = setOf("a", "b", "c")
	g.Edges = map[Edge[string]]bool{
		{From: "a", To: "b"}: true,
		{From: "b", To: "c"}: true,
	}

	if d := g.Degree("b"); d != 2 {
		t.Fatalf("degree(b) = %d, want 2", d)
	}
	if d := g.Indegree("b"); d != 1 {
		t.Fatalf("indegree(b) = %d, want 1", d)
	}
	if d := g.Outdegree("b"); d != 1 {
		t.Fatalf("outdegree(b) = %d, want 1", d)
	}
	if d := g.Indegree("a"); d != 0 {
		t.Fatalf("indegree(a) = %d, want 0", d)
	}
}

func TestGraphMaximumVertexDegreePanicsOnNullGraph(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on null graph")
		}
	}()
	New[string]().MaximumVertexDegree()
}

func TestGraphNeighbors(t *testing.T) {
	g := New[string]()
	g.Vertices = setOf("a", "b", "c")
	g.Edges = map[Edge[string]]bool{
		{From: "a", To: "b"}: true,
		{From: "c", To: "a"}: true,
	}
	got := g.Neighbors("a")
	want := setOf("b", "c")
	if len(got) != len(want) || !got["b"] || !got["c"] {
		t.Fatalf("neighbors(a) = %v, want %v", got, want)
	}
}

func TestGraphRestrictedTo(t *testing.T) {
	g := New[string]()
	g.Vertices = setOf("a", "b", "c")
	g.Edges = map[Edge[string]]bool{
		{From: "a", To: "b"}: true,
		{From: "b", To: "c"}: true,
	}
	r := g.RestrictedTo(setOf("a", "b"))
	if len(r.Edges) != 1 || !r.Edges[Edge[string]{From: "a", To: "b"}] {
		t.Fatalf("restricted graph kept wrong edges: %v", r.Edges)
	}
}

func TestGraphWithVerticesCollapsed(t *testing.T) {
	g := New[string]()
	g.Vertices = setOf("a", "b", "c")
	g.Edges = map[Edge[string]]bool{
		{From: "a", To: "c"}: true,
		{From: "b", To: "c"}: true,
	}
	collapsed := g.WithVerticesCollapsed(setOf("a", "b"), "ab")
	if collapsed.Vertices["a"] || collapsed.Vertices["b"] {
		t.Fatalf("old vertices should be gone: %v", collapsed.Vertices)
	}
	if !collapsed.Vertices["ab"] {
		t.Fatalf("new vertex missing: %v", collapsed.Vertices)
	}
	if len(collapsed.Edges) != 1 || !collapsed.Edges[Edge[string]{From: "ab", To: "c"}] {
		t.Fatalf("expected both edges to collapse into one ab->c edge, got %v", collapsed.Edges)
	}
}

func TestGraphWithVerticesRemoved(t *testing.T) {
	g := New[string]()
	g.Vertices = setOf("a", "b", "c")
	g.Edges = map[Edge[string]]bool{
		{From: "a", To: "b"}: true,
		{From: "b", To: "c"}: true,
	}
	r := g.WithVerticesRemoved(setOf("b"))
	if len(r.Vertices) != 2 || r.Vertices["b"] {
		t.Fatalf("expected b removed, got %v", r.Vertices)
	}
	if len(r.Edges) != 0 {
		t.Fatalf("expected all edges touching b removed, got %v", r.Edges)
	}
}

func TestComponentsMergesOverlappingGroups(t *testing.T) {
	comps := Components([][]string{
		{"a", "b"},
		{"b", "c"},
		{"x", "y"},
	})
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	var sawABC, sawXY bool
	for _, c := range comps {
		switch len(c) {
		case 3:
			if c["a"] && c["b"] && c["c"] {
				sawABC = true
			}
		case 2:
			if c["x"] && c["y"] {
				sawXY = true
			}
		}
	}
	if !sawABC || !sawXY {
		t.Fatalf("got unexpected components: %v", comps)
	}
}

func TestWeightedMultiGraphAddEdgeAccumulatesParallelWeights(t *testing.T) {
	wg := NewWeightedMultiGraph[string]()
	wg.AddEdge("a", "b", 1.0)
	wg.AddEdge("a", "b", 2.0)
	wg.AddEdge("b", "c", 3.0)

	if d := wg.Degree("b"); d != 3 {
		t.Fatalf("degree(b) = %d, want 3 (2 parallel + 1)", d)
	}
	weights := wg.Weights[Edge[string]{From: "a", To: "b"}]
	if len(weights) != 2 || weights[0] != 1.0 || weights[1] != 2.0 {
		t.Fatalf("got weights %v, want [1 2]", weights)
	}
}

func TestWeightedMultiGraphWithVerticesCollapsedMergesWeights(t *testing.T) {
	wg := NewWeightedMultiGraph[string]()
	wg.AddEdge("a", "c", 1.0)
	wg.AddEdge("b", "c", 2.0)

	collapsed := wg.WithVerticesCollapsed(setOf("a", "b"), "ab")
	weights := collapsed.Weights[Edge[string]{From: "ab", To: "c"}]
	if len(weights) != 2 {
		t.Fatalf("got %d weights after collapse, want 2 merged parallel edges: %v", len(weights), weights)
	}
}

func TestWeightedMultiGraphWithVerticesRemoved(t *testing.T) {
	wg := NewWeightedMultiGraph[string]()
	wg.AddEdge("a", "b", 1.0)
	wg.AddEdge("b", "c", 2.0)

	r := wg.WithVerticesRemoved(setOf("b"))
	if len(r.Edges) != 0 {
		t.Fatalf("expected no edges left after removing b, got %v", r.Edges)
	}
	if len(r.Weights) != 0 {
		t.Fatalf("expected no weights left after removing b, got %v", r.Weights)
	}
}
