package prefs

// Corner is a named overlay placement.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomRight Corner = "bottom-right"
	BottomLeft  Corner = "bottom-left"
)

// cycle is the order the position control walks through, clockwise.
var cycle = [...]Corner{TopLeft, TopRight, BottomRight, BottomLeft}

// ParseCorner validates a stored value.
func ParseCorner(s string) (Corner, bool) {
	c := Corner(s)
	return c, c.Valid()
}

// Valid reports whether c is one of the four corners.
func (c Corner) Valid() bool {
	for _, k := range cycle {
		if k == c {
			return true
		}
	}
	return false
}

// Next returns the corner after c in the cycle. An unknown corner restarts
// the cycle at TopRight, as if coming from the default TopLeft.
func (c Corner) Next() Corner {
	for i, k := range cycle {
		if k == c {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[1]
}
