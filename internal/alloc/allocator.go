package alloc

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Span is a run of file space. Tag names what a live span holds.
type Span struct {
	Addr uint64
	Size uint64
	Tag  string
}

func (s Span) end() uint64 { return s.Addr + s.Size }

// Stats counts the work an Allocator has done.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	TotalBytesFree   uint64
	BytesReused      uint64 // served from the free list
	LargestAlloc     uint64
}

// Allocator places metadata blocks in a file. A request is served from the
// first free span big enough, or else from the end of file.
type Allocator struct {
	mu    sync.Mutex
	base  uint64
	eof   uint64
	live  []Span
	free  []Span // sorted by address, adjacent spans merged
	stats Stats
}

// New returns an allocator for a file whose first base bytes are taken.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes and returns their address. A zero size
// reserves nothing and returns the end of file.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if size == 0 {
		return a.eof
	}

	addr, reused := a.takeLocked(size)
	if reused {
		a.stats.BytesReused += size
	} else {
		addr = a.eof
		a.eof += size
	}
	a.live = append(a.live, Span{Addr: addr, Size: size, Tag: tag})
	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	a.stats.LargestAlloc = max(a.stats.LargestAlloc, size)
	return addr
}

func (a *Allocator) takeLocked(size uint64) (uint64, bool) {
	i := slices.IndexFunc(a.free, func(s Span) bool { return s.Size >= size })
	if i < 0 {
		return 0, false
	}
	addr := a.free[i].Addr
	if a.free[i].Size == size {
		a.free = slices.Delete(a.free, i, i+1)
	} else {
		a.free[i].Addr += size
		a.free[i].Size -= size
	}
	return addr, true
}

// Free returns a span to the allocator. Space at the end of file shrinks
// the file rather than joining the free list.
func (a *Allocator) Free(addr, size uint64) {
	if size == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := slices.IndexFunc(a.live, func(s Span) bool { return s.Addr == addr && s.Size == size }); i >= 0 {
		a.live = slices.Delete(a.live, i, i+1)
	}
	a.stats.TotalBytesFree += size

	i, _ := slices.BinarySearchFunc(a.free, addr, func(s Span, addr uint64) int { return cmp.Compare(s.Addr, addr) })
	a.free = slices.Insert(a.free, i, Span{Addr: addr, Size: size})
	merged := a.free[:0]
	for _, s := range a.free {
		if n := len(merged); n > 0 && merged[n-1].end() == s.Addr {
			merged[n-1].Size += s.Size
			continue
		}
		merged = append(merged, s)
	}
	a.free = merged

	if n := len(a.free); n > 0 && a.free[n-1].end() == a.eof {
		a.eof = a.free[n-1].Addr
		a.free = a.free[:n-1]
	}
}

// EOF is the address the next appended block would get.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// SetEOF moves the end of file, as when opening an existing file.
func (a *Allocator) SetEOF(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eof = addr
}

func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Validate checks that every live and free span lies between the base and
// the end of file and that no two spans overlap.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	spans := slices.Concat(a.live, a.free)
	slices.SortFunc(spans, func(x, y Span) int { return cmp.Compare(x.Addr, y.Addr) })
	for i, s := range spans {
		if s.Addr < a.base || s.end() > a.eof {
			return fmt.Errorf("span %#x+%d %q outside [%#x, %#x)", s.Addr, s.Size, s.Tag, a.base, a.eof)
		}
		if i > 0 && spans[i-1].end() > s.Addr {
			p := spans[i-1]
			return fmt.Errorf("span %#x+%d %q overlaps %#x+%d %q", p.Addr, p.Size, p.Tag, s.Addr, s.Size, s.Tag)
		}
	}
	return nil
}
