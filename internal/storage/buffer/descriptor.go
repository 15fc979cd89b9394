package buffer

import (
	"fmt"

	"badgerdb/internal/storage"
)

// FrameID indexes a frame in the pool, 0..N-1.
type FrameID uint32

// frameDesc holds the metadata for one frame. Descriptors are mutated
// only by the Manager.
type frameDesc struct {
	frameNo FrameID
	file    *storage.PageFile // nil while the frame is invalid
	pageNo  storage.PageID
	pinCnt  int
	dirty   bool
	valid   bool
	refbit  bool
}

// set installs a page identity into the descriptor. The frame comes out
// pinned once, clean, and with its reference bit set so a freshly loaded
// page survives one pass of the clock.
func (d *frameDesc) set(file *storage.PageFile, pageNo storage.PageID) {
	d.file = file
	d.pageNo = pageNo
	d.pinCnt = 1
	d.dirty = false
	d.valid = true
	d.refbit = true
}

// clear restores the invalid state: no file, no pins, no flags.
func (d *frameDesc) clear() {
	d.file = nil
	d.pageNo = 0
	d.pinCnt = 0
	d.dirty = false
	d.valid = false
	d.refbit = false
}

func (d *frameDesc) String() string {
	name := "<none>"
	if d.file != nil {
		name = d.file.Filename()
	}
	return fmt.Sprintf("frame=%d file=%s page=%d pin=%d dirty=%v valid=%v ref=%v",
		d.frameNo, name, d.pageNo, d.pinCnt, d.dirty, d.valid, d.refbit)
}
