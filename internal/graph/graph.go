// Package graph implements the Dependency Graph (§4.2): it product-scopes
// the raw precedence table, injects quality-inspection routing, folds in
// late-part and rework edges, and validates the result is acyclic.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/qlp-hq/production-scheduler/internal/builder"
	"github.com/qlp-hq/production-scheduler/internal/catalog"
	"github.com/qlp-hq/production-scheduler/internal/model"
)

// CycleError is returned when the dynamic edge set contains a back
// edge; it names every node on the discovered cycle (§4.2, §8 item 7).
type CycleError struct {
	Cycle []model.Key
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, k := range e.Cycle {
		names[i] = k.String()
	}
	return fmt.Sprintf("dependency graph contains a cycle: %v", names)
}

// Graph is the dynamic edge set plus adjacency indexes used by the
// priority and scheduler packages.
type Graph struct {
	Instances map[model.Key]*model.Instance
	KeyOf     map[model.NodeID]model.Key
	Edges     []model.Edge
	Out       map[model.NodeID][]model.Edge
	In        map[model.NodeID][]model.Edge
	Warnings  []string
}

type edgeDedupeKey struct {
	From model.NodeID
	To   model.NodeID
	Rel  model.Relation
}

type builderState struct {
	g      *Graph
	seen   map[edgeDedupeKey]bool
}

// Build produces the dynamic graph from a built instance set and the
// raw catalog tables that describe precedence, late parts and rework.
func Build(built *builder.Result, cat *catalog.Catalog) (*Graph, error) {
	g := &Graph{
		Instances: built.Instances,
		KeyOf:     make(map[model.NodeID]model.Key, len(built.Instances)),
		Out:       make(map[model.NodeID][]model.Edge),
		In:        make(map[model.NodeID][]model.Edge),
	}
	for k, inst := range built.Instances {
		g.KeyOf[inst.Node] = k
	}

	st := &builderState{g: g, seen: make(map[edgeDedupeKey]bool)}

	st.addBaselineEdges(built, cat)
	st.addLatePartEdges(built, cat)
	st.addReworkEdges(built, cat)
	st.addQualityRoutingEdges(built)

	if cyc := detectCycle(g); cyc != nil {
		return nil, &CycleError{Cycle: cyc}
	}

	g.Warnings = append(g.Warnings, unreachableWarnings(g)...)

	return g, nil
}

func (st *builderState) addEdge(from, to model.Key, rel model.Relation, origin model.Origin) {
	fromInst, ok := st.g.Instances[from]
	if !ok {
		return
	}
	toInst, ok := st.g.Instances[to]
	if !ok {
		return
	}
	dk := edgeDedupeKey{From: fromInst.Node, To: toInst.Node, Rel: rel}
	if st.seen[dk] {
		return
	}
	st.seen[dk] = true

	e := model.Edge{
		From:     fromInst.Node,
		To:       toInst.Node,
		FromKey:  from,
		ToKey:    to,
		Relation: rel,
		Origin:   origin,
	}
	st.g.Edges = append(st.g.Edges, e)
	st.g.Out[fromInst.Node] = append(st.g.Out[fromInst.Node], e)
	st.g.In[toInst.Node] = append(st.g.In[toInst.Node], e)
}

// qiCompanion returns the key of key's quality-inspection companion, if
// a live instance exists at that key.
func (st *builderState) qiCompanion(key model.Key) (model.Key, bool) {
	qiKey := model.Key{Product: key.Product, TaskNum: key.TaskNum + model.QIOffset}
	_, ok := st.g.Instances[qiKey]
	return qiKey, ok
}

func (st *builderState) addBaselineEdges(built *builder.Result, cat *catalog.Catalog) {
	for _, row := range cat.PrecedenceEdges {
		for _, p := range built.Products {
			aKey := model.Key{Product: p.ID, TaskNum: row.First}
			bKey := model.Key{Product: p.ID, TaskNum: row.Second}
			if _, ok := st.g.Instances[aKey]; !ok {
				continue
			}
			if _, ok := st.g.Instances[bKey]; !ok {
				continue
			}
			if qiKey, ok := st.qiCompanion(aKey); ok {
				st.addEdge(aKey, qiKey, model.FinishEqualsStart, model.OriginQuality)
				st.addEdge(qiKey, bKey, row.Relation, model.OriginBaseline)
			} else {
				st.addEdge(aKey, bKey, row.Relation, model.OriginBaseline)
			}
		}
	}
}

func (st *builderState) applicableProducts(built *builder.Result, product *string, dependent int) []string {
	if product != nil {
		return []string{*product}
	}
	var out []string
	for _, p := range built.Products {
		if p.Incomplete.Contains(dependent) {
			out = append(out, p.ID)
		}
	}
	return out
}

func (st *builderState) addLatePartEdges(built *builder.Result, cat *catalog.Catalog) {
	for _, row := range cat.LateParts {
		for _, productID := range st.applicableProducts(built, row.Product, row.Second) {
			lKey := model.Key{Product: productID, TaskNum: row.First}
			dKey := model.Key{Product: productID, TaskNum: row.Second}
			st.addEdge(lKey, dKey, model.FinishToStart, model.OriginLatePart)
		}
	}
}

func (st *builderState) addReworkEdges(built *builder.Result, cat *catalog.Catalog) {
	for _, row := range cat.Rework {
		relation := model.FinishToStart
		if row.Relation != nil {
			relation = *row.Relation
		}
		for _, productID := range st.applicableProducts(built, row.Product, row.Second) {
			firstKey := model.Key{Product: productID, TaskNum: row.First}
			successorKey := model.Key{Product: productID, TaskNum: row.Second}
			if qiKey, ok := st.qiCompanion(firstKey); ok {
				st.addEdge(firstKey, qiKey, model.FinishEqualsStart, model.OriginQuality)
				st.addEdge(qiKey, successorKey, relation, model.OriginRework)
			} else {
				st.addEdge(firstKey, successorKey, relation, model.OriginRework)
			}
		}
	}
}

// addQualityRoutingEdges ensures every QI companion carries its
// (P,n) -> [F=S] (P,n+10000) edge (§4.2 rule 4), even when no raw
// precedence or rework row happened to route through it already.
func (st *builderState) addQualityRoutingEdges(built *builder.Result) {
	for key, inst := range built.Instances {
		if inst.Kind != model.QualityInspection || inst.PrimaryRef == nil {
			continue
		}
		st.addEdge(*inst.PrimaryRef, key, model.FinishEqualsStart, model.OriginQuality)
	}
}

// detectCycle runs DFS cycle detection over the full edge set and
// returns the first back-edge cycle found, as a slice of keys in
// traversal order (cycle[0]..cycle[len-1]->cycle[0]).
func detectCycle(g *Graph) []model.Key {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[model.NodeID]int)
	parent := make(map[model.NodeID]model.NodeID)

	nodes := make([]model.NodeID, 0, len(g.Instances))
	for _, inst := range g.Instances {
		nodes = append(nodes, inst.Node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	var cycle []model.Key
	var visit func(n model.NodeID) bool
	visit = func(n model.NodeID) bool {
		color[n] = gray
		edges := g.Out[n]
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
		for _, e := range edges {
			switch color[e.To] {
			case white:
				parent[e.To] = n
				if visit(e.To) {
					return true
				}
			case gray:
				// reconstruct cycle from n back to e.To via parent pointers
				cycle = []model.Key{g.KeyOf[e.To]}
				cur := n
				for cur != e.To {
					cycle = append(cycle, g.KeyOf[cur])
					cur = parent[cur]
				}
				// the walk above runs against edge direction; flip it
				for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return true
			}
		}
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white {
			if visit(n) {
				return cycle
			}
		}
	}
	return nil
}

// ContentHash is a deterministic digest of the node and edge set: two
// graphs built from the same catalog always hash identically, and any
// change to durations, kinds or precedence changes it. It's the cache
// key a caller memoizes per-node critical-path remainders under, since
// that computation depends only on this content, never on a capacity
// overlay (§4.3).
func (g *Graph) ContentHash() string {
	keys := make([]model.Key, 0, len(g.Instances))
	for k := range g.Instances {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	h := sha256.New()
	for _, k := range keys {
		inst := g.Instances[k]
		fmt.Fprintf(h, "n|%s|%d|%s\n", k.String(), inst.DurationMin, inst.Kind)
	}

	edges := make([]model.Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromKey.String() != edges[j].FromKey.String() {
			return edges[i].FromKey.String() < edges[j].FromKey.String()
		}
		if edges[i].ToKey.String() != edges[j].ToKey.String() {
			return edges[i].ToKey.String() < edges[j].ToKey.String()
		}
		return edges[i].Relation < edges[j].Relation
	})
	for _, e := range edges {
		fmt.Fprintf(h, "e|%s|%s|%s\n", e.FromKey.String(), e.ToKey.String(), e.Relation)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func unreachableWarnings(g *Graph) []string {
	indeg := make(map[model.NodeID]int)
	for _, inst := range g.Instances {
		indeg[inst.Node] = 0
	}
	for _, e := range g.Edges {
		indeg[e.To]++
	}

	var roots []model.NodeID
	for n, d := range indeg {
		if d == 0 {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	reached := make(map[model.NodeID]bool)
	var stack []model.NodeID
	stack = append(stack, roots...)
	for _, r := range roots {
		reached[r] = true
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Out[n] {
			if !reached[e.To] {
				reached[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}

	var warnings []string
	var unreached []model.Key
	for _, inst := range g.Instances {
		if !reached[inst.Node] {
			unreached = append(unreached, inst.Key)
		}
	}
	sort.Slice(unreached, func(i, j int) bool { return unreached[i].String() < unreached[j].String() })
	for _, k := range unreached {
		warnings = append(warnings, fmt.Sprintf("instance %s is unreachable from any root", k.String()))
	}
	return warnings
}
