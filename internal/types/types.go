package types

import "fmt"

// NodeID identifies a node within one tree instance. IDs are assigned by the
// producer of tree updates and are unique for the lifetime of the tree.
type NodeID int32

// InvalidNodeID marks "no node". It is never assigned to a live node.
const InvalidNodeID NodeID = 0

func (id NodeID) String() string {
	return fmt.Sprintf("%d", int32(id))
}

// Role is the semantic type tag of a node.
type Role uint8

const (
	RoleNone Role = iota
	RoleUnknown
	RoleRootArea
	RoleGenericContainer
	RoleGroup
	RoleStaticText
	RoleInlineTextBox
	RoleParagraph
	RoleButton
	RoleComment
	RoleArticle
	RoleFeed
	RoleList
	RoleListItem
	RoleListBox
	RoleListBoxOption
	RoleMenu
	RoleMenuBar
	RoleMenuItem
	RoleMenuItemCheckBox
	RoleMenuItemRadio
	RoleMenuListPopup
	RoleMenuListOption
	RolePopUpButton
	RoleRadioButton
	RoleRadioGroup
	RoleTab
	RoleTabList
	RoleTree
	RoleTreeItem
	RoleTable
	RoleGrid
	RoleTreeGrid
	RoleRow
	RoleCell
	RoleColumnHeader
	RoleRowHeader

	roleCount // keep last
)

var roleNames = [...]string{
	RoleNone:             "none",
	RoleUnknown:          "unknown",
	RoleRootArea:         "rootArea",
	RoleGenericContainer: "genericContainer",
	RoleGroup:            "group",
	RoleStaticText:       "staticText",
	RoleInlineTextBox:    "inlineTextBox",
	RoleParagraph:        "paragraph",
	RoleButton:           "button",
	RoleComment:          "comment",
	RoleArticle:          "article",
	RoleFeed:             "feed",
	RoleList:             "list",
	RoleListItem:         "listItem",
	RoleListBox:          "listBox",
	RoleListBoxOption:    "listBoxOption",
	RoleMenu:             "menu",
	RoleMenuBar:          "menuBar",
	RoleMenuItem:         "menuItem",
	RoleMenuItemCheckBox: "menuItemCheckBox",
	RoleMenuItemRadio:    "menuItemRadio",
	RoleMenuListPopup:    "menuListPopup",
	RoleMenuListOption:   "menuListOption",
	RolePopUpButton:      "popUpButton",
	RoleRadioButton:      "radioButton",
	RoleRadioGroup:       "radioGroup",
	RoleTab:              "tab",
	RoleTabList:          "tabList",
	RoleTree:             "tree",
	RoleTreeItem:         "treeItem",
	RoleTable:            "table",
	RoleGrid:             "grid",
	RoleTreeGrid:         "treeGrid",
	RoleRow:              "row",
	RoleCell:             "cell",
	RoleColumnHeader:     "columnHeader",
	RoleRowHeader:        "rowHeader",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

var rolesByName = func() map[string]Role {
	m := make(map[string]Role, roleCount)
	for r, name := range roleNames {
		m[name] = Role(r)
	}
	return m
}()

// ParseRole maps a wire role name back to its Role value.
func ParseRole(name string) (Role, bool) {
	r, ok := rolesByName[name]
	return r, ok
}

// State is a bitset of boolean node states.
type State uint32

const (
	StateCollapsed State = 1 << iota
	StateExpanded
	StateFocusable
	StateIgnored
	StateInvisible
	StateMultiselectable
	StateProtected
	StateRequired
	StateEditable

	stateLimit // keep last
)

var stateNames = map[State]string{
	StateCollapsed:       "collapsed",
	StateExpanded:        "expanded",
	StateFocusable:       "focusable",
	StateIgnored:         "ignored",
	StateInvisible:       "invisible",
	StateMultiselectable: "multiselectable",
	StateProtected:       "protected",
	StateRequired:        "required",
	StateEditable:        "editable",
}

var statesByName = func() map[string]State {
	m := make(map[string]State, len(stateNames))
	for s, name := range stateNames {
		m[name] = s
	}
	return m
}()

// Has reports whether every bit of s2 is set in s.
func (s State) Has(s2 State) bool { return s&s2 == s2 }

// EachState calls fn for every defined state bit, lowest first.
func EachState(fn func(State)) {
	for bit := State(1); bit < stateLimit; bit <<= 1 {
		fn(bit)
	}
}

func (s State) String() string {
	if s == 0 {
		return "(none)"
	}
	out := ""
	EachState(func(bit State) {
		if s.Has(bit) {
			if out != "" {
				out += ","
			}
			out += stateNames[bit]
		}
	})
	return out
}

// ParseState maps a wire state name back to its bit.
func ParseState(name string) (State, bool) {
	s, ok := statesByName[name]
	return s, ok
}

// StringAttribute enumerates string-valued node attributes.
type StringAttribute uint8

const (
	StringAttrName StringAttribute = iota
	StringAttrDescription
	StringAttrValue
	StringAttrPlaceholder
	StringAttrLanguage
	StringAttrKeyShortcuts
	StringAttrURL
	StringAttrChildTreeID

	stringAttrCount
)

var stringAttrNames = [...]string{
	StringAttrName:         "name",
	StringAttrDescription:  "description",
	StringAttrValue:        "value",
	StringAttrPlaceholder:  "placeholder",
	StringAttrLanguage:     "language",
	StringAttrKeyShortcuts: "keyShortcuts",
	StringAttrURL:          "url",
	StringAttrChildTreeID:  "childTreeId",
}

func (a StringAttribute) String() string {
	if int(a) < len(stringAttrNames) {
		return stringAttrNames[a]
	}
	return fmt.Sprintf("StringAttribute(%d)", uint8(a))
}

// BoolAttribute enumerates bool-valued node attributes.
type BoolAttribute uint8

const (
	BoolAttrBusy BoolAttribute = iota
	BoolAttrClipsChildren
	BoolAttrModal
	BoolAttrSelected
	BoolAttrLiveAtomic

	boolAttrCount
)

var boolAttrNames = [...]string{
	BoolAttrBusy:          "busy",
	BoolAttrClipsChildren: "clipsChildren",
	BoolAttrModal:         "modal",
	BoolAttrSelected:      "selected",
	BoolAttrLiveAtomic:    "liveAtomic",
}

func (a BoolAttribute) String() string {
	if int(a) < len(boolAttrNames) {
		return boolAttrNames[a]
	}
	return fmt.Sprintf("BoolAttribute(%d)", uint8(a))
}

// FloatAttribute enumerates float-valued node attributes.
type FloatAttribute uint8

const (
	FloatAttrValueForRange FloatAttribute = iota
	FloatAttrMinValueForRange
	FloatAttrMaxValueForRange
	FloatAttrStepValueForRange
	FloatAttrFontSize

	floatAttrCount
)

var floatAttrNames = [...]string{
	FloatAttrValueForRange:     "valueForRange",
	FloatAttrMinValueForRange:  "minValueForRange",
	FloatAttrMaxValueForRange:  "maxValueForRange",
	FloatAttrStepValueForRange: "stepValueForRange",
	FloatAttrFontSize:          "fontSize",
}

func (a FloatAttribute) String() string {
	if int(a) < len(floatAttrNames) {
		return floatAttrNames[a]
	}
	return fmt.Sprintf("FloatAttribute(%d)", uint8(a))
}

// IntAttribute enumerates int-valued node attributes.
type IntAttribute uint8

const (
	IntAttrPosInSet IntAttribute = iota
	IntAttrSetSize
	IntAttrHierarchicalLevel
	IntAttrScrollX
	IntAttrScrollY
	IntAttrActiveDescendantID
	IntAttrMemberOfID
	IntAttrPopupForID
	IntAttrNextOnLineID
	IntAttrPreviousOnLineID
	IntAttrTableRowCount
	IntAttrTableColumnCount
	IntAttrTableCellRowIndex
	IntAttrTableCellColumnIndex
	IntAttrTableCellRowSpan
	IntAttrTableCellColumnSpan

	intAttrCount
)

var intAttrNames = [...]string{
	IntAttrPosInSet:             "posInSet",
	IntAttrSetSize:              "setSize",
	IntAttrHierarchicalLevel:    "hierarchicalLevel",
	IntAttrScrollX:              "scrollX",
	IntAttrScrollY:              "scrollY",
	IntAttrActiveDescendantID:   "activeDescendantId",
	IntAttrMemberOfID:           "memberOfId",
	IntAttrPopupForID:           "popupForId",
	IntAttrNextOnLineID:         "nextOnLineId",
	IntAttrPreviousOnLineID:     "previousOnLineId",
	IntAttrTableRowCount:        "tableRowCount",
	IntAttrTableColumnCount:     "tableColumnCount",
	IntAttrTableCellRowIndex:    "tableCellRowIndex",
	IntAttrTableCellColumnIndex: "tableCellColumnIndex",
	IntAttrTableCellRowSpan:     "tableCellRowSpan",
	IntAttrTableCellColumnSpan:  "tableCellColumnSpan",
}

func (a IntAttribute) String() string {
	if int(a) < len(intAttrNames) {
		return intAttrNames[a]
	}
	return fmt.Sprintf("IntAttribute(%d)", uint8(a))
}

// IsNodeIDIntAttribute reports whether the attribute's value references
// another node by id, which makes it subject to reverse-relation tracking.
func IsNodeIDIntAttribute(a IntAttribute) bool {
	switch a {
	case IntAttrActiveDescendantID, IntAttrMemberOfID, IntAttrPopupForID,
		IntAttrNextOnLineID, IntAttrPreviousOnLineID:
		return true
	}
	return false
}

// IntListAttribute enumerates int-list-valued node attributes.
type IntListAttribute uint8

const (
	IntListAttrLabelledByIDs IntListAttribute = iota
	IntListAttrDescribedByIDs
	IntListAttrControlsIDs
	IntListAttrFlowToIDs
	IntListAttrRadioGroupIDs
	IntListAttrCharacterOffsets
	IntListAttrWordStarts

	intListAttrCount
)

var intListAttrNames = [...]string{
	IntListAttrLabelledByIDs:    "labelledbyIds",
	IntListAttrDescribedByIDs:   "describedbyIds",
	IntListAttrControlsIDs:      "controlsIds",
	IntListAttrFlowToIDs:        "flowtoIds",
	IntListAttrRadioGroupIDs:    "radioGroupIds",
	IntListAttrCharacterOffsets: "characterOffsets",
	IntListAttrWordStarts:       "wordStarts",
}

func (a IntListAttribute) String() string {
	if int(a) < len(intListAttrNames) {
		return intListAttrNames[a]
	}
	return fmt.Sprintf("IntListAttribute(%d)", uint8(a))
}

// IsNodeIDIntListAttribute reports whether the attribute's values reference
// other nodes by id.
func IsNodeIDIntListAttribute(a IntListAttribute) bool {
	switch a {
	case IntListAttrLabelledByIDs, IntListAttrDescribedByIDs,
		IntListAttrControlsIDs, IntListAttrFlowToIDs, IntListAttrRadioGroupIDs:
		return true
	}
	return false
}

// StringListAttribute enumerates string-list-valued node attributes.
type StringListAttribute uint8

const (
	StringListAttrCustomActionDescriptions StringListAttribute = iota
	StringListAttrMarkerDescriptions

	stringListAttrCount
)

var stringListAttrNames = [...]string{
	StringListAttrCustomActionDescriptions: "customActionDescriptions",
	StringListAttrMarkerDescriptions:       "markerDescriptions",
}

func (a StringListAttribute) String() string {
	if int(a) < len(stringListAttrNames) {
		return stringListAttrNames[a]
	}
	return fmt.Sprintf("StringListAttribute(%d)", uint8(a))
}

func attrLookup[A ~uint8](names []string) func(string) (A, bool) {
	m := make(map[string]A, len(names))
	for i, name := range names {
		m[name] = A(i)
	}
	return func(name string) (A, bool) {
		a, ok := m[name]
		return a, ok
	}
}

// Parse functions for wire decoding. Each maps the canonical wire name back
// to its enum value.
var (
	ParseStringAttribute     = attrLookup[StringAttribute](stringAttrNames[:])
	ParseBoolAttribute       = attrLookup[BoolAttribute](boolAttrNames[:])
	ParseFloatAttribute      = attrLookup[FloatAttribute](floatAttrNames[:])
	ParseIntAttribute        = attrLookup[IntAttribute](intAttrNames[:])
	ParseIntListAttribute    = attrLookup[IntListAttribute](intListAttrNames[:])
	ParseStringListAttribute = attrLookup[StringListAttribute](stringListAttrNames[:])
)

// TextAffinity disambiguates a text position at a soft line break.
type TextAffinity uint8

const (
	AffinityDownstream TextAffinity = iota
	AffinityUpstream
)

func (a TextAffinity) String() string {
	if a == AffinityUpstream {
		return "upstream"
	}
	return "downstream"
}
