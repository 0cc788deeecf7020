package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatFixture() []Node {
	return []Node{
		{ID: "c1", Name: "Jewelry", Handle: "jewelry", Rank: 1},
		{ID: "c3", Name: "Necklaces", Handle: "necklaces", ParentID: "c1", Rank: 2, ProductCount: 8},
		{ID: "c2", Name: "Rings", Handle: "rings", ParentID: "c1", Rank: 1, ProductCount: 12},
		{ID: "c4", Name: "Signets", Handle: "signets", ParentID: "c2", Rank: 1, ProductCount: 4},
	}
}

func TestBuildIndexLookups(t *testing.T) {
	idx, err := BuildIndex(flatFixture())
	require.NoError(t, err)

	assert.Equal(t, 4, idx.Total())

	rings, ok := idx.ByID("c2")
	require.True(t, ok)
	assert.Equal(t, "rings", rings.Handle)

	byHandle, ok := idx.ByHandle("signets")
	require.True(t, ok)
	assert.Equal(t, "c4", byHandle.ID)

	_, ok = idx.ByHandle("watches")
	assert.False(t, ok)
}

func TestBuildIndexTree(t *testing.T) {
	idx, err := BuildIndex(flatFixture())
	require.NoError(t, err)

	roots := idx.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "jewelry", roots[0].Handle)

	// Children ordered by rank.
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "rings", roots[0].Children[0].Handle)
	assert.Equal(t, "necklaces", roots[0].Children[1].Handle)

	children := idx.ChildrenOf("c2")
	require.Len(t, children, 1)
	assert.Equal(t, "signets", children[0].Handle)

	assert.Nil(t, idx.ChildrenOf("missing"))
}

func TestBuildIndexDepthMatchesAncestors(t *testing.T) {
	idx, err := BuildIndex(flatFixture())
	require.NoError(t, err)

	for _, n := range idx.Flat() {
		assert.Len(t, n.AncestorHandles, n.Depth, "node %s", n.Handle)
	}

	signets, _ := idx.ByHandle("signets")
	assert.Equal(t, 2, signets.Depth)
	assert.Equal(t, []string{"jewelry", "rings"}, signets.AncestorHandles)
}

func TestBuildIndexFlatOrder(t *testing.T) {
	idx, err := BuildIndex(flatFixture())
	require.NoError(t, err)

	var handles []string
	for _, n := range idx.Flat() {
		handles = append(handles, n.Handle)
	}
	assert.Equal(t, []string{"jewelry", "rings", "signets", "necklaces"}, handles)
}

func TestBreadcrumbs(t *testing.T) {
	idx, err := BuildIndex(flatFixture())
	require.NoError(t, err)

	trail := idx.Breadcrumbs("signets")
	assert.Equal(t, []Crumb{
		{Name: "Jewelry", Handle: "jewelry"},
		{Name: "Rings", Handle: "rings"},
		{Name: "Signets", Handle: "signets"},
	}, trail)

	root := idx.Breadcrumbs("jewelry")
	assert.Equal(t, []Crumb{{Name: "Jewelry", Handle: "jewelry"}}, root)

	assert.Nil(t, idx.Breadcrumbs("missing"))
}

func TestBuildIndexOrphanBecomesRoot(t *testing.T) {
	idx, err := BuildIndex([]Node{
		{ID: "c1", Name: "Jewelry", Handle: "jewelry"},
		{ID: "c9", Name: "Lost", Handle: "lost", ParentID: "gone"},
	})
	require.NoError(t, err)

	assert.Len(t, idx.Roots(), 2)
	lost, _ := idx.ByHandle("lost")
	assert.Zero(t, lost.Depth)
	assert.Empty(t, lost.AncestorHandles)
}

func TestBuildIndexRejectsDuplicateID(t *testing.T) {
	_, err := BuildIndex([]Node{
		{ID: "c1", Handle: "a"},
		{ID: "c1", Handle: "b"},
	})
	assert.Error(t, err)
}

func TestBuildIndexRejectsDuplicateHandle(t *testing.T) {
	_, err := BuildIndex([]Node{
		{ID: "c1", Handle: "rings"},
		{ID: "c2", Handle: "rings"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate category handle")
}

func TestBuildIndexRejectsCycle(t *testing.T) {
	// a and b are each other's parents, so neither hangs off a root and
	// both would silently vanish from the tree.
	_, err := BuildIndex([]Node{
		{ID: "a", Handle: "a", ParentID: "b"},
		{ID: "b", Handle: "b", ParentID: "a"},
		{ID: "r", Handle: "r"},
	})
	assert.Error(t, err)
}
