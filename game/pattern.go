package game

// Prize patterns. Names double as wire identifiers in claim requests.
const (
	PatternFirstFive  = "First Five"
	PatternTopLine    = "Top Line"
	PatternMiddleLine = "Middle Line"
	PatternBottomLine = "Bottom Line"
	PatternFullHousie = "Full Housie"
)

// Patterns lists every claimable pattern in announcement order.
var Patterns = []string{
	PatternFirstFive,
	PatternTopLine,
	PatternMiddleLine,
	PatternBottomLine,
	PatternFullHousie,
}

// VerifyPattern reports whether the ticket's current marks satisfy the
// pattern. Pure snapshot check: it never consults call history. An unknown
// pattern is simply not satisfied.
func VerifyPattern(t *Ticket, pattern string) bool {
	if t == nil {
		return false
	}
	switch pattern {
	case PatternFirstFive:
		return t.MarkedCount() >= 5
	case PatternTopLine:
		return rowMarked(t, 0)
	case PatternMiddleLine:
		return rowMarked(t, 1)
	case PatternBottomLine:
		return rowMarked(t, 2)
	case PatternFullHousie:
		return t.MarkedCount() == len(t.FilledCells())
	}
	return false
}

func rowMarked(t *Ticket, row int) bool {
	for c := 0; c < 9; c++ {
		if cell := t[row][c]; cell != nil && !cell.Marked {
			return false
		}
	}
	return true
}
