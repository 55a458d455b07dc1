package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/axtree/internal/types"
)

func simpleTable(t *testing.T) *Tree {
	t.Helper()
	return mustTree(t, up(1,
		nd(1, types.RoleRootArea, 2),
		nd(2, types.RoleTable, 3, 4),
		nd(3, types.RoleRow, 5, 6),
		nd(4, types.RoleRow, 7, 8),
		nd(5, types.RoleCell),
		nd(6, types.RoleCell),
		nd(7, types.RoleCell),
		nd(8, types.RoleCell),
	))
}

func TestTableInfo_BasicGrid(t *testing.T) {
	tr := simpleTable(t)
	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)

	assert.Equal(t, 2, info.RowCount)
	assert.Equal(t, 2, info.ColCount)
	assert.Equal(t, []types.NodeID{3, 4}, info.RowIDs)
	assert.Equal(t, types.NodeID(5), info.CellAt(0, 0))
	assert.Equal(t, types.NodeID(6), info.CellAt(0, 1))
	assert.Equal(t, types.NodeID(7), info.CellAt(1, 0))
	assert.Equal(t, types.NodeID(8), info.CellAt(1, 1))
	assert.Equal(t, types.NodeID(0), info.CellAt(5, 5))

	pos, ok := info.CellPositions[7]
	require.True(t, ok)
	assert.Equal(t, CellPosition{RowIndex: 1, ColIndex: 0, RowSpan: 1, ColSpan: 1}, pos)
}

func TestTableInfo_NonTableReturnsNil(t *testing.T) {
	tr := simpleTable(t)
	assert.Nil(t, tr.TableInfo(tr.FromID(3)))
	assert.Nil(t, tr.TableInfo(nil))
}

func TestTableInfo_CachedUntilSubtreeChanges(t *testing.T) {
	tr := simpleTable(t)
	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)
	require.True(t, info.Valid())

	// Same pointer while nothing changed.
	assert.Same(t, info, tr.TableInfo(tr.FromID(2)))

	// Touching a cell invalidates the layout through the ancestor walk.
	changed := nd(5, types.RoleCell)
	changed.AddStringAttribute(types.StringAttrName, "edited")
	require.NoError(t, tr.Unserialize(up(1, changed)))
	assert.False(t, info.Valid())

	refreshed := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, refreshed)
	assert.True(t, refreshed.Valid())
	assert.Equal(t, 2, refreshed.RowCount)
}

func TestTableInfo_RemovedWhenNoLongerTable(t *testing.T) {
	tr := simpleTable(t)
	require.NotNil(t, tr.TableInfo(tr.FromID(2)))

	// The node keeps its id but stops being a table.
	require.NoError(t, tr.Unserialize(up(1, nd(2, types.RoleGroup, 3, 4))))
	assert.Nil(t, tr.TableInfo(tr.FromID(2)))
}

func TestTableInfo_ColumnSpan(t *testing.T) {
	spanned := nd(5, types.RoleCell)
	spanned.AddIntAttribute(types.IntAttrTableCellColumnSpan, 2)
	tr := mustTree(t, up(1,
		nd(1, types.RoleRootArea, 2),
		nd(2, types.RoleTable, 3, 4),
		nd(3, types.RoleRow, 5, 6),
		nd(4, types.RoleRow, 7, 8, 9),
		spanned,
		nd(6, types.RoleCell),
		nd(7, types.RoleCell),
		nd(8, types.RoleCell),
		nd(9, types.RoleCell),
	))

	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)
	assert.Equal(t, 3, info.ColCount)
	assert.Equal(t, types.NodeID(5), info.CellAt(0, 0))
	assert.Equal(t, types.NodeID(5), info.CellAt(0, 1))
	assert.Equal(t, types.NodeID(6), info.CellAt(0, 2))
}

func TestTableInfo_RowSpanBlocksSlotBelow(t *testing.T) {
	spanned := nd(5, types.RoleCell)
	spanned.AddIntAttribute(types.IntAttrTableCellRowSpan, 2)
	tr := mustTree(t, up(1,
		nd(1, types.RoleRootArea, 2),
		nd(2, types.RoleTable, 3, 4),
		nd(3, types.RoleRow, 5, 6),
		nd(4, types.RoleRow, 7),
		spanned,
		nd(6, types.RoleCell),
		nd(7, types.RoleCell),
	))

	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)
	// Cell 5 occupies (0,0) and (1,0); cell 7 shifts to (1,1).
	assert.Equal(t, types.NodeID(5), info.CellAt(1, 0))
	assert.Equal(t, types.NodeID(7), info.CellAt(1, 1))
}

func TestTableInfo_AuthorDeclaredDimensions(t *testing.T) {
	table := nd(2, types.RoleGrid, 3)
	table.AddIntAttribute(types.IntAttrTableRowCount, 4)
	table.AddIntAttribute(types.IntAttrTableColumnCount, 6)
	tr := mustTree(t, up(1,
		nd(1, types.RoleRootArea, 2),
		table,
		nd(3, types.RoleRow, 4),
		nd(4, types.RoleCell),
	))

	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)
	assert.Equal(t, 4, info.RowCount)
	assert.Equal(t, 6, info.ColCount)
	assert.Equal(t, types.NodeID(4), info.CellAt(0, 0))
	assert.Equal(t, types.NodeID(0), info.CellAt(3, 5))
}

func TestTableInfo_RowsBehindGroupings(t *testing.T) {
	tr := mustTree(t, up(1,
		nd(1, types.RoleRootArea, 2),
		nd(2, types.RoleTable, 3),
		nd(3, types.RoleGroup, 4),
		nd(4, types.RoleRow, 5),
		nd(5, types.RoleCell),
	))

	info := tr.TableInfo(tr.FromID(2))
	require.NotNil(t, info)
	assert.Equal(t, []types.NodeID{4}, info.RowIDs)
	assert.Equal(t, types.NodeID(5), info.CellAt(0, 0))
}
