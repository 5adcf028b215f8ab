package mempool

import (
	"sync"
)

// A simple sized pool for []uint8 and []int32 buffers. Segmentation allocates a
// mask and a BFS queue per viewport per tick, so reuse keeps the tracker loop
// from churning the allocator.

var (
	uint8Pools sync.Map // key: size class (int), value: *sync.Pool
	int32Pools sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

// GetUint8 retrieves a zeroed []uint8 buffer of length n from the pool.
// The caller must return it via PutUint8 when done.
func GetUint8(n int) []uint8 {
	cls := sizeClass(n)
	pAny, _ := uint8Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint8, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]uint8, n)
	}
	buf, ok := p.Get().([]uint8)
	if !ok || cap(buf) < cls {
		buf = make([]uint8, cls)
	}
	buf = buf[:n]
	// Masks are rebuilt from scratch, callers rely on a clean slate.
	clear(buf)
	return buf
}

// PutUint8 returns a buffer to the pool. It is safe to pass a nil slice.
func PutUint8(buf []uint8) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		// Not one of ours; let the GC have it.
		return
	}
	pAny, _ := uint8Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint8, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetInt32 retrieves an empty []int32 with capacity for at least n elements.
// It is meant to be used as an append-only queue.
func GetInt32(n int) []int32 {
	cls := sizeClass(n)
	pAny, _ := int32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]int32, 0, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]int32, 0, n)
	}
	buf, ok := p.Get().([]int32)
	if !ok || cap(buf) < cls {
		buf = make([]int32, 0, cls)
	}
	return buf[:0]
}

// PutInt32 returns a queue buffer to the pool. It is safe to pass a nil slice.
func PutInt32(buf []int32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		return
	}
	pAny, _ := int32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]int32, 0, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return
	}
	p.Put(buf[:0]) //nolint:staticcheck
}
