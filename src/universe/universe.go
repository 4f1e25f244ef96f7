package universe

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
)

//default dimensions used by New
const (
	DefWidth  uint32 = 64
	DefHeight uint32 = 64
)

//glyphs used by Render
const (
	AliveGlyph = '◼'
	DeadGlyph  = '◻'
)

//ErrTooLarge is returned when width*height does not fit the cell index range
var ErrTooLarge = errors.New("universe: width*height overflows the cell index range")

//Universe is a toroidal Game of Life grid
//cells are packed one bit per cell, row-major, LSB-first within each 64-bit word
//all access to a Universe must be serialized by the caller
type Universe struct {
	width  uint32
	height uint32
	cells  *bitset.BitSet
	next   *bitset.BitSet //scratch buffer for the next generation
}

//New creates the default 64x64 universe seeded from src
func New(src BoolSource) *Universe {
	u, _ := NewWithSize(DefWidth, DefHeight, src)
	return u
}

//NewWithSize creates a universe of the given size seeded from src
//a nil src leaves every cell dead
func NewWithSize(width uint32, height uint32, src BoolSource) (*Universe, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	u := &Universe{width: width, height: height}
	u.alloc()
	if src != nil {
		u.Seed(src)
	}
	return u, nil
}

func checkSize(width uint32, height uint32) error {
	if uint64(width)*uint64(height) > math.MaxUint32 {
		return fmt.Errorf("%w: %d x %d", ErrTooLarge, width, height)
	}
	return nil
}

//alloc replaces both buffers with all-dead ones sized width*height
func (u *Universe) alloc() {
	n := uint(u.width) * uint(u.height)
	u.cells = bitset.New(n)
	u.next = bitset.New(n)
}

//Width returns the number of columns
func (u *Universe) Width() uint32 {
	return u.width
}

//Height returns the number of rows
func (u *Universe) Height() uint32 {
	return u.height
}

//Len returns the logical number of cells (bits) in the buffer
func (u *Universe) Len() uint {
	return u.cells.Len()
}

//SetWidth sets the number of columns and resets all cells to the dead state
func (u *Universe) SetWidth(width uint32) error {
	return u.Resize(width, u.height)
}

//SetHeight sets the number of rows and resets all cells to the dead state
func (u *Universe) SetHeight(height uint32) error {
	return u.Resize(u.width, height)
}

//Resize sets both dimensions at once and resets all cells to the dead state
//on error the universe is left untouched
func (u *Universe) Resize(width uint32, height uint32) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	u.width = width
	u.height = height
	u.alloc()
	return nil
}

//Cells returns the packed cell words without copying
//the slice must not be modified; it follows every Tick and is invalidated by Resize, SetWidth or SetHeight
func (u *Universe) Cells() []uint64 {
	return u.cells.Bytes()
}

//Snapshot returns a copy of the packed cell words
func (u *Universe) Snapshot() []uint64 {
	words := u.cells.Bytes()
	s := make([]uint64, len(words))
	copy(s, words)
	return s
}

//Seed sets every cell from src in row-major order
func (u *Universe) Seed(src BoolSource) {
	for i := uint(0); i < u.cells.Len(); i++ {
		u.cells.SetTo(i, src.Bool())
	}
}

//Clear kills every cell keeping the dimensions
func (u *Universe) Clear() {
	u.cells.ClearAll()
}

//Alive reports the state of the cell, coordinates wrap around the torus
func (u *Universe) Alive(row uint32, column uint32) bool {
	if u.width == 0 || u.height == 0 {
		return false
	}
	return u.cells.Test(u.index(row%u.height, column%u.width))
}

//Set sets the state of the cell, coordinates wrap around the torus
func (u *Universe) Set(row uint32, column uint32, alive bool) {
	if u.width == 0 || u.height == 0 {
		return
	}
	u.cells.SetTo(u.index(row%u.height, column%u.width), alive)
}

//Toggle inverts the state of the cell, coordinates wrap around the torus
func (u *Universe) Toggle(row uint32, column uint32) {
	if u.width == 0 || u.height == 0 {
		return
	}
	u.cells.Flip(u.index(row%u.height, column%u.width))
}

//LiveCells returns the number of alive cells
func (u *Universe) LiveCells() int {
	return int(u.cells.Count())
}

//index expects row < height and column < width
func (u *Universe) index(row uint32, column uint32) uint {
	return uint(row)*uint(u.width) + uint(column)
}

//liveNeighborCount counts the alive cells among the 8 toroidal neighbours
//adding height-1 (width-1) modulo height (width) is a step back without going negative
func (u *Universe) liveNeighborCount(row uint32, column uint32) uint8 {
	var count uint8
	h, w := uint(u.height), uint(u.width)
	for _, dr := range [3]uint{h - 1, 0, 1} {
		for _, dc := range [3]uint{w - 1, 0, 1} {
			if dr == 0 && dc == 0 {
				continue
			}
			r := (uint(row) + dr) % h
			c := (uint(column) + dc) % w
			if u.cells.Test(r*w + c) {
				count++
			}
		}
	}
	return count
}

//nextState applies the B3/S23 rule
func nextState(alive bool, liveNeighbors uint8) bool {
	switch {
	case alive && liveNeighbors < 2:
		return false
	case alive && (liveNeighbors == 2 || liveNeighbors == 3):
		return true
	case alive && liveNeighbors > 3:
		return false
	case !alive && liveNeighbors == 3:
		return true
	}
	return alive
}

//Tick advances the universe by one generation
func (u *Universe) Tick() {
	u.tick()
}

//tick computes the next generation into the scratch buffer against the current one,
//then copies it back so the cells keep their backing array; reports whether any cell changed
func (u *Universe) tick() (changed bool) {
	if u.width == 0 || u.height == 0 {
		return false
	}
	for row := uint32(0); row < u.height; row++ {
		for col := uint32(0); col < u.width; col++ {
			idx := u.index(row, col)
			u.next.SetTo(idx, nextState(u.cells.Test(idx), u.liveNeighborCount(row, col)))
		}
	}
	changed = !u.next.Equal(u.cells)
	copy(u.cells.Bytes(), u.next.Bytes())
	return changed
}

//Render dumps the grid as text, one line per row
//a grid without rows or columns renders as ""
func (u *Universe) Render() string {
	if u.width == 0 || u.height == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(int(u.height) * (int(u.width)*utf8.RuneLen(AliveGlyph) + 1))
	for row := uint32(0); row < u.height; row++ {
		for col := uint32(0); col < u.width; col++ {
			if u.cells.Test(u.index(row, col)) {
				b.WriteRune(AliveGlyph)
			} else {
				b.WriteRune(DeadGlyph)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (u *Universe) String() string {
	return u.Render()
}
