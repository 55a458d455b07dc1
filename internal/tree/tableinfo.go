package tree

import (
	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// TableInfo is the derived row/column layout of one table node. It is
// computed on demand, cached on the tree, and invalidated whenever an update
// touches the table's subtree. Author-assigned row/column indexes and spans
// take precedence over the implicit layout.
type TableInfo struct {
	tree      *Tree
	tableNode *Node
	valid     bool

	// RowCount and ColCount cover the full grid, including cells only
	// reachable through spans.
	RowCount int
	ColCount int

	// RowIDs lists the row nodes in document order.
	RowIDs []types.NodeID

	// CellIDs is the RowCount x ColCount grid. InvalidNodeID marks a slot
	// not covered by any cell.
	CellIDs [][]types.NodeID

	// CellPositions maps each cell id to its resolved top-left grid slot.
	CellPositions map[types.NodeID]CellPosition
}

// CellPosition is a cell's resolved placement within the grid.
type CellPosition struct {
	RowIndex int
	ColIndex int
	RowSpan  int
	ColSpan  int
}

func isTableRole(r types.Role) bool {
	return r == types.RoleTable || r == types.RoleGrid || r == types.RoleTreeGrid
}

func isCellRole(r types.Role) bool {
	return r == types.RoleCell || r == types.RoleColumnHeader || r == types.RoleRowHeader
}

// TableInfo returns the layout for a table node, computing or refreshing the
// cached entry as needed. Returns nil when the node is not a valid table.
// Observers receive OnNodeChanged whenever the layout is (re)computed, since
// derived table state they may expose has changed.
func (t *Tree) TableInfo(n *Node) *TableInfo {
	if t.updateInProgress {
		panic(axerrors.NewPrecondition("TableInfo", "tree update in progress"))
	}
	if n == nil {
		return nil
	}

	if cached, ok := t.tableInfoMap[n.id]; ok {
		if !cached.valid {
			if !cached.update() {
				// No longer a valid table; drop the entry entirely.
				delete(t.tableInfoMap, n.id)
				cached = nil
			}
			for _, o := range t.observers {
				o.OnNodeChanged(t, n)
			}
		}
		return cached
	}

	info := &TableInfo{tree: t, tableNode: n}
	if !info.update() {
		return nil
	}
	t.tableInfoMap[n.id] = info
	for _, o := range t.observers {
		o.OnNodeChanged(t, n)
	}
	return info
}

func (info *TableInfo) invalidate() { info.valid = false }

// Valid reports whether the layout reflects the current tree.
func (info *TableInfo) Valid() bool { return info.valid }

// CellAt returns the cell occupying the given slot, InvalidNodeID when the
// slot is out of range or empty.
func (info *TableInfo) CellAt(row, col int) types.NodeID {
	if row < 0 || row >= info.RowCount || col < 0 || col >= info.ColCount {
		return types.InvalidNodeID
	}
	return info.CellIDs[row][col]
}

// update recomputes the layout from the live tree. Returns false when the
// node is no longer a table.
func (info *TableInfo) update() bool {
	n := info.tableNode
	if n == nil || n.tree == nil || !isTableRole(n.data.Role) {
		return false
	}

	info.RowIDs = info.RowIDs[:0]
	info.CellPositions = make(map[types.NodeID]CellPosition)

	var rows []*Node
	collectTableRows(n, &rows)

	type placedCell struct {
		id  types.NodeID
		pos CellPosition
	}
	var placed []placedCell

	rowCount := 0
	colCount := 0
	// occupied tracks slots already claimed by spanning cells from earlier
	// rows, keyed by row then column.
	occupied := make(map[int]map[int]bool)

	for rowIdx, row := range rows {
		info.RowIDs = append(info.RowIDs, row.id)
		resolvedRow := rowIdx
		col := 0
		for _, cell := range row.UnignoredChildren() {
			if !isCellRole(cell.data.Role) {
				continue
			}

			r := resolvedRow
			if author, ok := cell.data.GetIntAttribute(types.IntAttrTableCellRowIndex); ok && author >= 0 {
				r = int(author)
			}
			// Skip past slots consumed by spans from rows above.
			for occupied[r][col] {
				col++
			}
			c := col
			if author, ok := cell.data.GetIntAttribute(types.IntAttrTableCellColumnIndex); ok && author >= 0 {
				c = int(author)
			}

			rowSpan := int(cell.data.IntAttributeOr(types.IntAttrTableCellRowSpan, 1))
			colSpan := int(cell.data.IntAttributeOr(types.IntAttrTableCellColumnSpan, 1))
			if rowSpan < 1 {
				rowSpan = 1
			}
			if colSpan < 1 {
				colSpan = 1
			}

			pos := CellPosition{RowIndex: r, ColIndex: c, RowSpan: rowSpan, ColSpan: colSpan}
			placed = append(placed, placedCell{id: cell.id, pos: pos})
			info.CellPositions[cell.id] = pos

			for dr := 0; dr < rowSpan; dr++ {
				for dc := 0; dc < colSpan; dc++ {
					if occupied[r+dr] == nil {
						occupied[r+dr] = make(map[int]bool)
					}
					occupied[r+dr][c+dc] = true
				}
			}
			if r+rowSpan > rowCount {
				rowCount = r + rowSpan
			}
			if c+colSpan > colCount {
				colCount = c + colSpan
			}
			col = c + colSpan
		}
		if resolvedRow+1 > rowCount {
			rowCount = resolvedRow + 1
		}
	}

	// Author-declared dimensions grow the grid, never shrink it below what
	// the cells need.
	if author, ok := n.data.GetIntAttribute(types.IntAttrTableRowCount); ok && int(author) > rowCount {
		rowCount = int(author)
	}
	if author, ok := n.data.GetIntAttribute(types.IntAttrTableColumnCount); ok && int(author) > colCount {
		colCount = int(author)
	}

	info.RowCount = rowCount
	info.ColCount = colCount
	info.CellIDs = make([][]types.NodeID, rowCount)
	for i := range info.CellIDs {
		info.CellIDs[i] = make([]types.NodeID, colCount)
	}
	for _, pc := range placed {
		for dr := 0; dr < pc.pos.RowSpan; dr++ {
			for dc := 0; dc < pc.pos.ColSpan; dc++ {
				r, c := pc.pos.RowIndex+dr, pc.pos.ColIndex+dc
				if r < rowCount && c < colCount && info.CellIDs[r][c] == types.InvalidNodeID {
					info.CellIDs[r][c] = pc.id
				}
			}
		}
	}

	info.valid = true
	return true
}

// collectTableRows gathers the row nodes of table in document order. Rows
// may sit behind ignored nodes or grouping containers, but a nested table
// keeps its own rows.
func collectTableRows(n *Node, rows *[]*Node) {
	for _, child := range n.children {
		switch {
		case child.data.Role == types.RoleRow:
			*rows = append(*rows, child)
		case isTableRole(child.data.Role):
			// Nested table: its rows belong to it.
		case child.IsIgnored() ||
			child.data.Role == types.RoleGenericContainer ||
			child.data.Role == types.RoleGroup ||
			child.data.Role == types.RoleUnknown:
			collectTableRows(child, rows)
		}
	}
}
