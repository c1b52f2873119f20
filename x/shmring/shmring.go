// Package shmring is a lock-free single-producer, single-consumer byte ring.
//
// The producer may run in completion-handler context: TryWriteFrom never
// blocks and never allocates. Edge notifications are coalesced into
// 1-deep channels so a consumer can select on them.
package shmring

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	dropped atomic.Uint32 // bytes refused because the ring was full

	readable chan struct{} // empty -> non-empty edge
	writable chan struct{} // full -> non-full edge
}

// New allocates a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Space is the number of bytes the producer may write now.
func (r *Ring) Space() int {
	return int(r.size() - (r.wr.Load() - r.rd.Load()))
}

// Available is the number of bytes the consumer may read now.
func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Dropped returns how many bytes TryWriteFrom has refused so far.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	before := wr - rd
	n := int(r.size() - before)
	if n > len(src) {
		n = len(src)
	}
	if n < len(src) {
		r.dropped.Add(uint32(len(src) - n))
	}
	if n == 0 {
		return 0
	}
	idx := wr & r.mask
	first := copy(r.buf[idx:], src[:n])
	copy(r.buf, src[first:n])
	r.wr.Store(wr + uint32(n)) // publish

	if before == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// PutByte writes a single byte, reporting false if the ring is full.
func (r *Ring) PutByte(b byte) bool {
	var one [1]byte
	one[0] = b
	return r.TryWriteFrom(one[:]) == 1
}

// TryReadInto copies up to len(dst) bytes out of the ring.
func (r *Ring) TryReadInto(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	n := int(wr - rd)
	if n == 0 {
		return 0
	}
	if n > len(dst) {
		n = len(dst)
	}
	idx := rd & r.mask
	first := copy(dst[:n], r.buf[idx:])
	copy(dst[first:n], r.buf[:n-first])
	r.rd.Store(rd + uint32(n)) // release

	if wr-rd == r.size() {
		select {
		case r.writable <- struct{}{}:
		default:
		}
	}
	return n
}

func (r *Ring) Readable() <-chan struct{} { return r.readable }
func (r *Ring) Writable() <-chan struct{} { return r.writable }
