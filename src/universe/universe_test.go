package universe

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func newEmpty(t *testing.T, w, h uint32) *Universe {
	t.Helper()
	u, err := NewWithSize(w, h, nil)
	if err != nil {
		t.Fatalf("NewWithSize(%d, %d): %v", w, h, err)
	}
	return u
}

//expectAlive checks that exactly the given [row, col] cells are alive
func expectAlive(t *testing.T, u *Universe, alive ...[2]uint32) {
	t.Helper()
	want := map[[2]uint32]bool{}
	for _, c := range alive {
		want[c] = true
	}
	for row := uint32(0); row < u.Height(); row++ {
		for col := uint32(0); col < u.Width(); col++ {
			if got := u.Alive(row, col); got != want[[2]uint32{row, col}] {
				t.Fatalf("cell (%d,%d) alive=%v, expected %v\n%s", row, col, got, !got, u.Render())
			}
		}
	}
}

func TestNewDefaults(t *testing.T) {
	u := New(NewRNG(1))
	if u.Width() != 64 || u.Height() != 64 {
		t.Fatalf("got %dx%d, expected 64x64", u.Width(), u.Height())
	}
	if u.Len() != 64*64 {
		t.Fatalf("got %d cells, expected %d", u.Len(), 64*64)
	}
	if len(u.Cells()) != 64 {
		t.Fatalf("got %d words, expected 64", len(u.Cells()))
	}
	live := u.LiveCells()
	if live < 1500 || live > 2600 {
		t.Fatalf("random seeding gave %d live cells of 4096", live)
	}
}

func TestSeedRowMajor(t *testing.T) {
	u, err := NewWithSize(3, 2, NewSequence(true, false, false, false, true, true))
	if err != nil {
		t.Fatal(err)
	}
	expectAlive(t, u, [2]uint32{0, 0}, [2]uint32{1, 1}, [2]uint32{1, 2})
	if got, want := u.Cells()[0], uint64(0b110001); got != want {
		t.Fatalf("packed word %b, expected %b", got, want)
	}
}

func TestSizeConservation(t *testing.T) {
	sizes := [][2]uint32{{0, 0}, {0, 5}, {5, 0}, {1, 1}, {3, 7}, {64, 64}, {65, 3}}
	for _, s := range sizes {
		u, err := NewWithSize(s[0], s[1], NewRNG(7))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if u.Len() != uint(s[0])*uint(s[1]) {
				t.Fatalf("%dx%d after %d ticks: %d cells", s[0], s[1], i, u.Len())
			}
			u.Tick()
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := New(NewRNG(42))
	b := New(NewRNG(42))
	for i := 0; i < 2; i++ {
		a.Tick()
		b.Tick()
	}
	if a.Render() != b.Render() {
		t.Fatal("identical universes diverged")
	}
	wa, wb := a.Cells(), b.Cells()
	for i := range wa {
		if wa[i] != wb[i] {
			t.Fatalf("word %d differs: %x != %x", i, wa[i], wb[i])
		}
	}
}

func TestRule(t *testing.T) {
	tests := []struct {
		alive bool
		n     uint8
		want  bool
	}{
		{true, 0, false},
		{true, 1, false},
		{true, 2, true},
		{true, 3, true},
		{true, 4, false},
		{true, 8, false},
		{false, 2, false},
		{false, 3, true},
		{false, 4, false},
		{false, 0, false},
	}
	for _, tt := range tests {
		if got := nextState(tt.alive, tt.n); got != tt.want {
			t.Errorf("nextState(%v, %d) = %v, expected %v", tt.alive, tt.n, got, tt.want)
		}
	}
}

func TestIsolatedCellDies(t *testing.T) {
	u := newEmpty(t, 5, 5)
	u.Set(2, 2, true)
	u.Tick()
	expectAlive(t, u)
}

func TestBlinkerOscillation(t *testing.T) {
	u := newEmpty(t, 5, 5)
	u.Set(1, 2, true)
	u.Set(2, 2, true)
	u.Set(3, 2, true)

	u.Tick()
	expectAlive(t, u, [2]uint32{2, 1}, [2]uint32{2, 2}, [2]uint32{2, 3})

	u.Tick()
	expectAlive(t, u, [2]uint32{1, 2}, [2]uint32{2, 2}, [2]uint32{3, 2})
}

func TestBlockIsStable(t *testing.T) {
	u := newEmpty(t, 6, 6)
	block := [][2]uint32{{2, 2}, {2, 3}, {3, 2}, {3, 3}}
	for _, c := range block {
		u.Set(c[0], c[1], true)
	}
	if changed := u.tick(); changed {
		t.Fatal("block reported a change")
	}
	expectAlive(t, u, block...)
}

func TestToroidalWrap(t *testing.T) {
	u := newEmpty(t, 5, 4)
	u.Set(3, 4, true) //diagonal of (0,0)
	if n := u.liveNeighborCount(0, 0); n != 1 {
		t.Fatalf("diagonal wrap: got %d neighbours, expected 1", n)
	}
	u.Set(0, 4, true) //left of (0,0)
	if n := u.liveNeighborCount(0, 0); n != 2 {
		t.Fatalf("horizontal wrap: got %d neighbours, expected 2", n)
	}
	u.Set(3, 0, true) //above (0,0)
	if n := u.liveNeighborCount(0, 0); n != 3 {
		t.Fatalf("vertical wrap: got %d neighbours, expected 3", n)
	}
	//the three cells give birth at (0,0) across the seams
	u.Tick()
	if !u.Alive(0, 0) {
		t.Fatalf("expected birth at (0,0)\n%s", u.Render())
	}
}

func TestGliderCrossesEdges(t *testing.T) {
	u := newEmpty(t, 8, 8)
	glider := [][2]uint32{{0, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
	for _, c := range glider {
		u.Set(c[0], c[1], true)
	}
	//a glider moves one cell down-right every 4 generations, 32 brings it back home
	for i := 0; i < 32; i++ {
		u.Tick()
		if u.LiveCells() != 5 {
			t.Fatalf("generation %d: %d live cells\n%s", i+1, u.LiveCells(), u.Render())
		}
	}
	expectAlive(t, u, glider...)
}

func TestDimensionReset(t *testing.T) {
	u := New(NewRNG(3))
	if err := u.SetWidth(10); err != nil {
		t.Fatal(err)
	}
	if u.Width() != 10 || u.Height() != 64 || u.Len() != 640 {
		t.Fatalf("got %dx%d with %d cells", u.Width(), u.Height(), u.Len())
	}
	expectAlive(t, u)

	u.Seed(NewSequence(true))
	if err := u.SetHeight(7); err != nil {
		t.Fatal(err)
	}
	if u.Width() != 10 || u.Height() != 7 || u.Len() != 70 {
		t.Fatalf("got %dx%d with %d cells", u.Width(), u.Height(), u.Len())
	}
	expectAlive(t, u)
}

func TestAccessorsStableAcrossTicks(t *testing.T) {
	u := New(NewRNG(9))
	_ = u.SetWidth(12)
	_ = u.SetHeight(9)
	u.Seed(NewRNG(9))
	for i := 0; i < 5; i++ {
		u.Tick()
		if u.Width() != 12 || u.Height() != 9 {
			t.Fatalf("dimensions drifted to %dx%d", u.Width(), u.Height())
		}
	}
}

func TestZeroDimensions(t *testing.T) {
	u := newEmpty(t, 0, 10)
	u.Tick()
	if u.Render() != "" {
		t.Fatalf("expected empty render, got %q", u.Render())
	}
	if u.Len() != 0 || len(u.Cells()) != 0 {
		t.Fatal("expected no cells")
	}
	u.Set(1, 1, true)
	u.Toggle(1, 1)
	if u.Alive(1, 1) {
		t.Fatal("empty grid has an alive cell")
	}

	u = New(NewRNG(1))
	if err := u.SetHeight(0); err != nil {
		t.Fatal(err)
	}
	u.Tick()
	if u.LiveCells() != 0 || u.Render() != "" {
		t.Fatal("expected empty grid")
	}
}

func TestRenderEmptyGrid(t *testing.T) {
	sizes := [][2]uint32{{0, 0}, {0, 10}, {10, 0}}
	for _, s := range sizes {
		u := newEmpty(t, s[0], s[1])
		if got := u.Render(); got != "" {
			t.Fatalf("%dx%d rendered %q, expected nothing", s[0], s[1], got)
		}
		u.Tick()
		if got := u.String(); got != "" {
			t.Fatalf("%dx%d after tick rendered %q, expected nothing", s[0], s[1], got)
		}
	}
	u := New(NewRNG(2))
	if err := u.SetWidth(0); err != nil {
		t.Fatal(err)
	}
	if got := u.Render(); got != "" {
		t.Fatalf("0x64 rendered %q, expected nothing", got)
	}
}

func TestCellsViewFollowsTicks(t *testing.T) {
	u := newEmpty(t, 5, 5)
	u.Set(1, 2, true)
	u.Set(2, 2, true)
	u.Set(3, 2, true)
	view := u.Cells()
	for i := 0; i < 3; i++ {
		u.Tick()
		cur := u.Cells()
		if &view[0] != &cur[0] {
			t.Fatalf("tick %d moved the cell buffer", i+1)
		}
		if view[0] != cur[0] {
			t.Fatalf("tick %d: view %b, cells %b", i+1, view[0], cur[0])
		}
	}
	//after an odd number of ticks the blinker is horizontal: row 2, columns 1-3
	if want := uint64(1<<11 | 1<<12 | 1<<13); view[0] != want {
		t.Fatalf("view %b, expected %b", view[0], want)
	}
}

func TestTooLarge(t *testing.T) {
	if _, err := NewWithSize(math.MaxUint32, 2, nil); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	u := newEmpty(t, 4, 4)
	u.Set(1, 1, true)
	if err := u.SetWidth(math.MaxUint32); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if u.Width() != 4 || !u.Alive(1, 1) {
		t.Fatal("failed resize modified the universe")
	}
}

func TestRender(t *testing.T) {
	u := newEmpty(t, 3, 2)
	u.Set(0, 0, true)
	u.Set(1, 2, true)
	want := "◼◻◻\n◻◻◼\n"
	if got := u.Render(); got != want {
		t.Fatalf("got\n%s\nexpected\n%s", got, want)
	}
	if u.String() != want {
		t.Fatal("String differs from Render")
	}
	if lines := strings.Count(New(nil).Render(), "\n"); lines != 64 {
		t.Fatalf("got %d lines, expected 64", lines)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	u := newEmpty(t, 4, 4)
	u.Set(0, 0, true)
	s := u.Snapshot()
	u.Set(0, 0, false)
	if s[0]&1 != 1 {
		t.Fatal("snapshot follows the universe")
	}
	if u.Cells()[0]&1 != 0 {
		t.Fatal("view does not follow the universe")
	}
}

func TestToggleWraps(t *testing.T) {
	u := newEmpty(t, 4, 3)
	u.Toggle(3, 5) //wraps to (0,1)
	expectAlive(t, u, [2]uint32{0, 1})
	u.Toggle(0, 1)
	expectAlive(t, u)
}

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(11), NewRNG(11)
	for i := 0; i < 100; i++ {
		if a.Bool() != b.Bool() {
			t.Fatalf("sequences diverged at %d", i)
		}
	}
	s := NewSequence(true, false)
	if !s.Bool() || s.Bool() || !s.Bool() {
		t.Fatal("sequence does not cycle")
	}
	if NewSequence().Bool() {
		t.Fatal("empty sequence returned true")
	}
}
