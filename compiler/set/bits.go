package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64
	}

	// Bits is a set of small non-negative keys.
	Bits[K Key] struct {
		b  []uint64
		b0 [1]uint64
	}
)

func (s *Bits[K]) Set(k K) {
	i, j := ij(k)

	s.grow(i)

	s.b[i] |= 1 << j
}

func (s *Bits[K]) Size() (n int) {
	for _, w := range s.b {
		n += bits.OnesCount64(w)
	}

	return n
}

// Keys lists the set in ascending order.
func (s *Bits[K]) Keys() []K {
	r := make([]K, 0, s.Size())

	s.each(func(k K) bool {
		r = append(r, k)
		return true
	})

	return r
}

func (s *Bits[K]) each(f func(k K) bool) {
	for i, w := range s.b {
		for w != 0 {
			j := bits.TrailingZeros64(w)
			w &^= 1 << j

			if !f(K(i*64 + j)) {
				return
			}
		}
	}
}

func (s *Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, s.Size())

	s.each(func(k K) bool {
		b = e.AppendInt(b, int(k))
		return true
	})

	return b
}

func (s *Bits[K]) grow(i int) {
	if s.b == nil {
		s.b = s.b0[:]
	}

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}

func ij[K Key](k K) (int, int) {
	if k < 0 {
		panic("set: negative key")
	}

	return int(k) / 64, int(k) % 64
}
