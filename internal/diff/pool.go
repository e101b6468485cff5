package diff

import (
	"sync"
)

// scratch is the per-comparison working set: one scanline per side and the
// diff list of the current row. It is reused for every row.
type scratch struct {
	left, right []byte
	diffs       []PixelDiff
}

var scratchPool = sync.Pool{
	New: func() interface{} { return new(scratch) },
}

func getScratch(rowLen, width int) *scratch {
	s := scratchPool.Get().(*scratch)
	s.left = resize(s.left, rowLen)
	s.right = resize(s.right, rowLen)
	if cap(s.diffs) < width {
		s.diffs = make([]PixelDiff, 0, width)
	}
	return s
}

func putScratch(s *scratch) {
	s.diffs = s.diffs[:0]
	scratchPool.Put(s)
}

func resize(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
