package geometry

// Axis names the direction of a guillotine cut.
type Axis int

const (
	AxisHorizontal Axis = iota // a full-width cut, splitting top/bottom
	AxisVertical               // a full-height cut, splitting left/right
)

// Cut is an immutable record of one guillotine split: the segment it ran
// along, the node it split, the two children it produced, and enough of
// the original rectangle to reconstruct it.
type Cut struct {
	X1, Y1, X2, Y2 int
	Axis           Axis
	OriginalNodeID int64
	Child1ID       int64
	Child2ID       int64
	OriginalWidth  int
	OriginalHeight int
	CutCoord       int
}

// Length returns |Δx|+|Δy|.
func (c Cut) Length() int {
	dx := c.X2 - c.X1
	if dx < 0 {
		dx = -dx
	}
	dy := c.Y2 - c.Y1
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// SplitHorizontally splits node at x = node.X1+w, consuming kerf units of
// material for the cut itself. child1 is the left piece of width w; child2
// is the right piece of width (old width - w - kerf), omitted if not
// positive. The kerf is charged to neither child.
func SplitHorizontally(node *TileNode, w, kerf int) (child1, child2 *TileNode, cut Cut) {
	x1, y1, y2 := node.X1, node.Y1, node.Y2
	cutX := x1 + w

	child1 = &TileNode{ID: NextNodeID(), X1: x1, Y1: y1, X2: cutX, Y2: y2}
	var child2ID int64
	remaining := node.Width() - w - kerf
	if remaining > 0 {
		child2 = &TileNode{ID: NextNodeID(), X1: cutX + kerf, Y1: y1, X2: cutX + kerf + remaining, Y2: y2}
		child2ID = child2.ID
	}

	cut = Cut{
		X1: cutX, Y1: y1, X2: cutX, Y2: y2,
		Axis:           AxisVertical,
		OriginalNodeID: node.ID,
		Child1ID:       child1.ID,
		Child2ID:       child2ID,
		OriginalWidth:  node.Width(),
		OriginalHeight: node.Height(),
		CutCoord:       cutX,
	}
	node.Child1, node.Child2 = child1, child2
	return child1, child2, cut
}

// SplitVertically splits node at y = node.Y1+h, the symmetric counterpart
// of SplitHorizontally: child1 is the top piece of height h, child2 the
// bottom piece of height (old height - h - kerf).
func SplitVertically(node *TileNode, h, kerf int) (child1, child2 *TileNode, cut Cut) {
	x1, y1, x2 := node.X1, node.Y1, node.X2
	cutY := y1 + h

	child1 = &TileNode{ID: NextNodeID(), X1: x1, Y1: y1, X2: x2, Y2: cutY}
	var child2ID int64
	remaining := node.Height() - h - kerf
	if remaining > 0 {
		child2 = &TileNode{ID: NextNodeID(), X1: x1, Y1: cutY + kerf, X2: x2, Y2: cutY + kerf + remaining}
		child2ID = child2.ID
	}

	cut = Cut{
		X1: x1, Y1: cutY, X2: x2, Y2: cutY,
		Axis:           AxisHorizontal,
		OriginalNodeID: node.ID,
		Child1ID:       child1.ID,
		Child2ID:       child2ID,
		OriginalWidth:  node.Width(),
		OriginalHeight: node.Height(),
		CutCoord:       cutY,
	}
	node.Child1, node.Child2 = child1, child2
	return child1, child2, cut
}
