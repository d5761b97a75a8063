package game

import (
	"errors"
	"math/rand"
	"sort"
)

// MaxGenerateAttempts bounds ticket regeneration. The block-split layout
// almost always succeeds within a handful of tries; hitting this ceiling
// indicates a bug, not bad luck.
const MaxGenerateAttempts = 50

var ErrGenerationExhausted = errors.New("ticket generation attempts exhausted")

// Cell is one filled square on a ticket. A nil *Cell in the grid is a blank.
type Cell struct {
	Number int  `json:"number"`
	Marked bool `json:"marked"`
	Row    int  `json:"row"`
	Col    int  `json:"col"`
}

// Ticket is a 3x9 housie ticket: 15 numbers, 5 per row, 1-3 per column,
// column c drawn from its decade (1-10, 11-20, ..., 81-90), ascending
// top-to-bottom within a column.
type Ticket [3][9]*Cell

// FilledCells returns the present cells in row-major order.
func (t *Ticket) FilledCells() []*Cell {
	cells := make([]*Cell, 0, 15)
	for r := 0; r < 3; r++ {
		for c := 0; c < 9; c++ {
			if t[r][c] != nil {
				cells = append(cells, t[r][c])
			}
		}
	}
	return cells
}

// MarkedCount returns how many filled cells are currently marked.
func (t *Ticket) MarkedCount() int {
	n := 0
	for _, cell := range t.FilledCells() {
		if cell.Marked {
			n++
		}
	}
	return n
}

// Mark toggles the mark on the cell holding number. Returns false if the
// ticket has no such cell. Whether number has actually been called is the
// caller's business.
func (t *Ticket) Mark(number int) bool {
	for _, cell := range t.FilledCells() {
		if cell.Number == number {
			cell.Marked = !cell.Marked
			return true
		}
	}
	return false
}

// Generator produces tickets from one random source. Seeded generators are
// deterministic; NewGenerator draws a fresh source per instance.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator() *Generator {
	// seeded off the global source so back-to-back joins never share a
	// wall-clock seed
	return &Generator{rng: rand.New(rand.NewSource(rand.Int63()))}
}

func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Per-block row splits. Each block of 3 adjacent columns places 5 numbers;
// a split says how many land in each row.
var blockSplits = [3][3]int{
	{2, 2, 1},
	{2, 1, 2},
	{1, 2, 2},
}

// Generate builds one valid ticket. Layout is two-phase: choose cell
// positions block by block under the running row totals, then draw numbers
// from each column's decade pool, sorted so the ascending-by-row invariant
// holds by construction. An unplaceable layout discards the whole attempt.
func (g *Generator) Generate() (*Ticket, error) {
	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		if t, ok := g.tryLayout(); ok {
			return t, nil
		}
	}
	return nil, ErrGenerationExhausted
}

func (g *Generator) tryLayout() (*Ticket, bool) {
	// Shuffled number pool per column decade. Column 8 runs 81-90.
	pools := make([][]int, 9)
	for c := 0; c < 9; c++ {
		start := c*10 + 1
		end := (c + 1) * 10
		if c == 8 {
			end = 90
		}
		nums := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			nums = append(nums, n)
		}
		g.rng.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
		pools[c] = nums
	}

	var t Ticket
	rowCounts := [3]int{}

	for block := 0; block < 3; block++ {
		cols := [3]int{block * 3, block*3 + 1, block*3 + 2}

		// Pick a split that keeps every row at 5 or fewer so far.
		order := g.rng.Perm(len(blockSplits))
		chosen := -1
		for _, i := range order {
			ok := true
			for r := 0; r < 3; r++ {
				if rowCounts[r]+blockSplits[i][r] > 5 {
					ok = false
					break
				}
			}
			if ok {
				chosen = i
				break
			}
		}
		if chosen == -1 {
			return nil, false
		}
		split := blockSplits[chosen]
		for r := 0; r < 3; r++ {
			rowCounts[r] += split[r]
		}

		// Assign each row's allotted cells to distinct columns of the block.
		colRows := map[int][]int{}
		for r := 0; r < 3; r++ {
			free := append([]int(nil), cols[:]...)
			for k := 0; k < split[r]; k++ {
				i := g.rng.Intn(len(free))
				col := free[i]
				free = append(free[:i], free[i+1:]...)
				colRows[col] = append(colRows[col], r)
			}
		}

		// Every column of the block must host at least one number, or the
		// ticket would ship an empty column. Discard the attempt; never
		// patch a partial layout.
		for _, c := range cols {
			if len(colRows[c]) == 0 {
				return nil, false
			}
		}

		// Draw this block's numbers column by column, ascending down the rows.
		for _, c := range cols {
			rows := colRows[c]
			sort.Ints(rows)
			picked := append([]int(nil), pools[c][:len(rows)]...)
			pools[c] = pools[c][len(rows):]
			sort.Ints(picked)
			for i, r := range rows {
				t[r][c] = &Cell{Number: picked[i], Row: r, Col: c}
			}
		}
	}

	// Sanity check; the split bookkeeping should make this unreachable.
	total := 0
	for r := 0; r < 3; r++ {
		n := 0
		for c := 0; c < 9; c++ {
			if t[r][c] != nil {
				n++
			}
		}
		if n != 5 {
			return nil, false
		}
		total += n
	}
	if total != 15 {
		return nil, false
	}
	return &t, true
}
