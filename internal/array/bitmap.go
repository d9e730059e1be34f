package array

// Bitmap is a fixed validity mask, one bit per row.
type Bitmap struct {
	bits []uint64
}

func NewBitmap(n int, defaultValid bool) Bitmap {
	b := Bitmap{bits: make([]uint64, (n+63)/64)}
	if defaultValid {
		for i := range b.bits {
			b.bits[i] = ^uint64(0)
		}
		if n%64 != 0 && len(b.bits) > 0 {
			b.bits[len(b.bits)-1] = (uint64(1) << uint(n%64)) - 1
		}
	}
	return b
}

func NewBitmapFromBools(mask []bool) Bitmap {
	b := Bitmap{bits: make([]uint64, (len(mask)+63)/64)}
	for i := range mask {
		if mask[i] {
			b.Set(i)
		}
	}
	return b
}

func (b Bitmap) Get(i int) bool {
	return (b.bits[i/64]>>(uint(i%64)))&1 == 1
}

func (b Bitmap) Set(i int) {
	b.bits[i/64] |= uint64(1) << uint(i%64)
}

// Resize copies the first min(n, have) bits and marks any rows past have as valid.
func (b Bitmap) Resize(have, n int) Bitmap {
	out := NewBitmap(n, false)
	for i := 0; i < n; i++ {
		if i >= have || b.Get(i) {
			out.Set(i)
		}
	}
	return out
}

type BitmapBuilder struct {
	bits []uint64
	n    int
}

func (b *BitmapBuilder) Append(valid bool) {
	if b.n%64 == 0 {
		b.bits = append(b.bits, 0)
	}
	if valid {
		b.bits[b.n/64] |= uint64(1) << uint(b.n%64)
	}
	b.n++
}

func (b *BitmapBuilder) Len() int { return b.n }

func (b *BitmapBuilder) Get(i int) bool {
	return (b.bits[i/64]>>(uint(i%64)))&1 == 1
}

func (b *BitmapBuilder) Reserve(additionalBits int) {
	if additionalBits <= 0 {
		return
	}
	needWords := (b.n + additionalBits + 63) / 64
	if cap(b.bits) >= needWords {
		return
	}
	next := make([]uint64, len(b.bits), needWords)
	copy(next, b.bits)
	b.bits = next
}

func (b *BitmapBuilder) Build() Bitmap {
	return Bitmap{bits: b.bits}
}
