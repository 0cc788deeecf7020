// Package category fetches the category hierarchy once, indexes it for
// lookup and navigation, and shares it across consumers through a cached
// service with staleness-based refresh.
package category

import (
	"fmt"
	"sort"
)

// Node is one category in the hierarchy. Depth and AncestorHandles are
// derived during indexing by walking the parent chain; the invariant
// len(AncestorHandles) == Depth holds for every indexed node.
type Node struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Handle          string   `json:"handle"`
	ParentID        string   `json:"parentId,omitempty"`
	Depth           int      `json:"depth"`
	AncestorHandles []string `json:"ancestorHandles"`
	ProductCount    int      `json:"productCount"`
	Rank            int      `json:"rank"`
	Children        []*Node  `json:"children,omitempty"`
}

// Crumb is one step in a breadcrumb trail.
type Crumb struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// Index holds the three derived views over one fetched snapshot: id and
// handle lookup maps plus the nested tree. An Index is immutable after
// construction and safe to share between goroutines.
type Index struct {
	byID     map[string]*Node
	byHandle map[string]*Node
	roots    []*Node
	total    int
}

// BuildIndex constructs the lookup maps and the tree from a flat category
// list. Children are ordered by rank, ties broken by name. A node whose
// parent is missing from the list is treated as a root.
func BuildIndex(flat []Node) (*Index, error) {
	idx := &Index{
		byID:     make(map[string]*Node, len(flat)),
		byHandle: make(map[string]*Node, len(flat)),
		total:    len(flat),
	}

	nodes := make([]*Node, len(flat))
	for i := range flat {
		n := flat[i]
		n.Children = nil
		n.Depth = 0
		n.AncestorHandles = nil
		nodes[i] = &n

		if _, dup := idx.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", n.ID)
		}
		// Handles are URL identities; two nodes sharing one would make
		// handle lookups and breadcrumbs resolve arbitrarily.
		if _, dup := idx.byHandle[n.Handle]; dup {
			return nil, fmt.Errorf("duplicate category handle %q", n.Handle)
		}
		idx.byID[n.ID] = &n
		idx.byHandle[n.Handle] = &n
	}

	for _, n := range nodes {
		parent, ok := idx.byID[n.ParentID]
		if n.ParentID == "" || !ok {
			idx.roots = append(idx.roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := 0
	for _, root := range idx.roots {
		n, err := annotate(root, 0, nil, len(flat))
		if err != nil {
			return nil, err
		}
		reached += n
	}
	// Nodes in a parent cycle hang off no root and would silently vanish.
	if reached != len(flat) {
		return nil, fmt.Errorf("category hierarchy contains a cycle: %d of %d nodes unreachable", len(flat)-reached, len(flat))
	}

	sortChildren(idx.roots)
	for _, n := range nodes {
		sortChildren(n.Children)
	}

	return idx, nil
}

// annotate walks one subtree setting depth and ancestor handles, returning
// the number of nodes visited. The hop budget bounds recursion on
// malformed input.
func annotate(n *Node, depth int, ancestors []string, budget int) (int, error) {
	if budget < 0 {
		return 0, fmt.Errorf("category hierarchy too deep at %q", n.ID)
	}
	n.Depth = depth
	n.AncestorHandles = ancestors

	visited := 1
	childAncestors := make([]string, 0, len(ancestors)+1)
	childAncestors = append(childAncestors, ancestors...)
	childAncestors = append(childAncestors, n.Handle)
	for _, child := range n.Children {
		v, err := annotate(child, depth+1, childAncestors, budget-1)
		if err != nil {
			return 0, err
		}
		visited += v
	}
	return visited, nil
}

func sortChildren(children []*Node) {
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Rank != children[j].Rank {
			return children[i].Rank < children[j].Rank
		}
		return children[i].Name < children[j].Name
	})
}

// ByID returns the category with the given id.
func (idx *Index) ByID(id string) (*Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// ByHandle returns the category with the given handle.
func (idx *Index) ByHandle(handle string) (*Node, bool) {
	n, ok := idx.byHandle[handle]
	return n, ok
}

// Roots returns the top-level categories with nested children.
func (idx *Index) Roots() []*Node { return idx.roots }

// Total returns the number of indexed categories.
func (idx *Index) Total() int { return idx.total }

// ChildrenOf returns the direct children of the given category id.
func (idx *Index) ChildrenOf(id string) []*Node {
	n, ok := idx.byID[id]
	if !ok {
		return nil
	}
	return n.Children
}

// Flat returns every indexed node in depth-first tree order.
func (idx *Index) Flat() []*Node {
	out := make([]*Node, 0, idx.total)
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(idx.roots)
	return out
}

// Breadcrumbs returns the clickable trail from the root down to the given
// handle, the node itself included last. Unknown handles yield nil.
func (idx *Index) Breadcrumbs(handle string) []Crumb {
	n, ok := idx.byHandle[handle]
	if !ok {
		return nil
	}
	trail := make([]Crumb, 0, len(n.AncestorHandles)+1)
	for _, ancestor := range n.AncestorHandles {
		if a, ok := idx.byHandle[ancestor]; ok {
			trail = append(trail, Crumb{Name: a.Name, Handle: a.Handle})
		}
	}
	return append(trail, Crumb{Name: n.Name, Handle: n.Handle})
}
