package universe

import "math/rand/v2"

//BoolSource supplies the random booleans used to seed a universe
type BoolSource interface {
	Bool() bool
}

//RNG is a deterministic BoolSource backed by a PCG generator
type RNG struct {
	r *rand.Rand
}

//NewRNG creates an RNG, equal seeds give equal sequences
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

//Bool returns true with probability 0.5
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

//Sequence is a BoolSource replaying a fixed pattern, cycling when exhausted
type Sequence struct {
	vals []bool
	pos  int
}

//NewSequence creates a Sequence; an empty one always returns false
func NewSequence(vals ...bool) *Sequence {
	return &Sequence{vals: vals}
}

func (s *Sequence) Bool() bool {
	if len(s.vals) == 0 {
		return false
	}
	v := s.vals[s.pos]
	s.pos = (s.pos + 1) % len(s.vals)
	return v
}
