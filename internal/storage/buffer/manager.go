// Package buffer implements the buffer pool: a fixed set of page-sized
// frames mediating between page files on disk and in-memory clients.
// Pages are cached in frames, clients pin the frames they hold, and a
// clock-sweep replacement engine picks victims among unpinned frames,
// writing dirty pages back before reuse.
package buffer

import (
	"errors"
	"fmt"
	"log/slog"

	"badgerdb/internal/storage"
)

// Manager owns the frame pool, the descriptor table, the page index and
// the clock hand. It is single-threaded: one operation runs to
// completion before the next begins.
type Manager struct {
	numBufs   uint32
	table     *hashTable
	descs     []frameDesc
	pool      []storage.Page
	clockHand FrameID
	stats     Stats
}

// NewManager creates a pool of bufs frames, all invalid, with the clock
// hand parked on the last frame, where the first sweep starts.
func NewManager(bufs uint32) *Manager {
	if bufs == 0 {
		bufs = 1
	}
	m := &Manager{
		numBufs:   bufs,
		table:     newHashTable(int(bufs)),
		descs:     make([]frameDesc, bufs),
		pool:      make([]storage.Page, bufs),
		clockHand: FrameID(bufs - 1),
	}
	for i := range m.descs {
		m.descs[i].frameNo = FrameID(i)
	}
	return m
}

func (m *Manager) advanceClock() {
	m.clockHand = (m.clockHand + 1) % FrameID(m.numBufs)
}

// allocBuf selects a frame with the second-chance clock sweep. The
// returned frame is always invalid: an evicted page is written back if
// dirty, unmapped from the page index, and its descriptor cleared before
// the frame is handed out. The sweep gives up after 2N step-actions so
// every frame gets one pass to lose its reference bit and a second to be
// selected; if nothing is evictable by then, every frame is pinned.
func (m *Manager) allocBuf() (FrameID, error) {
	steps := uint32(0)
	for steps < 2*m.numBufs {
		d := &m.descs[m.clockHand]

		if !d.valid {
			return d.frameNo, nil
		}
		if d.refbit {
			d.refbit = false
			steps++
			m.advanceClock()
			continue
		}
		if d.pinCnt != 0 {
			steps++
			m.advanceClock()
			continue
		}

		// Unpinned with a clear reference bit: evict.
		if d.dirty {
			slog.Debug("evicting dirty page",
				"file", d.file.Filename(), "page", d.pageNo, "frame", d.frameNo)
			if err := d.file.WritePage(m.pool[d.frameNo]); err != nil {
				return 0, err
			}
			m.stats.Accesses++
			m.stats.DiskWrites++
		}
		if err := m.table.remove(d.file, d.pageNo); err != nil {
			return 0, err
		}
		d.clear()
		return d.frameNo, nil
	}
	return 0, &BufferExceededError{}
}

// ReadPage returns the page pinned in a frame, loading it from the file
// on a cache miss. Every successful call must be balanced by one
// UnPinPage; the returned pointer is only valid while that pin is held.
func (m *Manager) ReadPage(file *storage.PageFile, pageNo storage.PageID) (*storage.Page, error) {
	frameNo, err := m.table.lookup(file, pageNo)
	if err == nil {
		d := &m.descs[frameNo]
		d.refbit = true
		d.pinCnt++
		m.stats.Accesses++
		return &m.pool[frameNo], nil
	}
	var miss *HashNotFoundError
	if !errors.As(err, &miss) {
		return nil, err
	}

	frameNo, err = m.allocBuf()
	if err != nil {
		return nil, err
	}
	page, err := file.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	m.stats.DiskReads++
	m.stats.Accesses++
	if err := m.table.insert(file, pageNo, frameNo); err != nil {
		return nil, err
	}
	m.pool[frameNo] = page
	m.descs[frameNo].set(file, pageNo)
	return &m.pool[frameNo], nil
}

// AllocPage allocates a fresh page in the file and installs it pinned in
// a frame. It returns the new page number alongside the frame's page.
func (m *Manager) AllocPage(file *storage.PageFile) (storage.PageID, *storage.Page, error) {
	page, err := file.AllocatePage()
	if err != nil {
		return 0, nil, err
	}
	pageNo := page.Number()

	frameNo, err := m.allocBuf()
	if err != nil {
		return 0, nil, err
	}
	m.pool[frameNo] = page
	m.stats.Accesses++
	if err := m.table.insert(file, pageNo, frameNo); err != nil {
		return 0, nil, err
	}
	m.descs[frameNo].set(file, pageNo)
	return pageNo, &m.pool[frameNo], nil
}

// UnPinPage releases one pin on the frame holding (file, pageNo). An
// unknown page is silently ignored. When dirty is true the frame is
// marked dirty; it is never marked clean here.
func (m *Manager) UnPinPage(file *storage.PageFile, pageNo storage.PageID, dirty bool) error {
	frameNo, err := m.table.lookup(file, pageNo)
	if err != nil {
		var miss *HashNotFoundError
		if errors.As(err, &miss) {
			return nil
		}
		return err
	}

	d := &m.descs[frameNo]
	if d.pinCnt == 0 {
		return &PageNotPinnedError{File: file.Filename(), PageNo: pageNo, FrameNo: frameNo}
	}
	d.pinCnt--
	if dirty {
		d.dirty = true
	}
	return nil
}

// FlushFile writes back every dirty page of the file and drops all of
// its pages from the pool, in ascending frame order. A pinned frame
// aborts with PagePinnedError; an invalid frame still claiming the file
// aborts with BadBufferError. Frames already processed stay flushed.
func (m *Manager) FlushFile(file *storage.PageFile) error {
	for i := range m.descs {
		d := &m.descs[i]
		if d.file != file {
			continue
		}
		if !d.valid {
			return &BadBufferError{FrameNo: d.frameNo, Dirty: d.dirty, Valid: d.valid, Refbit: d.refbit}
		}
		if d.pinCnt > 0 {
			return &PagePinnedError{File: file.Filename(), PageNo: d.pageNo, FrameNo: d.frameNo}
		}
		if d.dirty {
			slog.Debug("flushing dirty page",
				"file", file.Filename(), "page", d.pageNo, "frame", d.frameNo)
			if err := file.WritePage(m.pool[d.frameNo]); err != nil {
				return err
			}
			m.stats.DiskWrites++
			d.dirty = false
		}
		if err := m.table.remove(d.file, d.pageNo); err != nil {
			return err
		}
		d.clear()
	}
	return nil
}

// DisposePage drops the page from the pool, discarding any dirty
// contents, and deletes it from the file. The delete runs whether or not
// the page was resident.
func (m *Manager) DisposePage(file *storage.PageFile, pageNo storage.PageID) error {
	frameNo, err := m.table.lookup(file, pageNo)
	if err == nil {
		if err := m.table.remove(file, pageNo); err != nil {
			return err
		}
		m.descs[frameNo].clear()
	} else {
		var miss *HashNotFoundError
		if !errors.As(err, &miss) {
			return err
		}
	}
	return file.DeletePage(pageNo)
}

// Stats returns a copy of the traffic counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// ClearStats resets the traffic counters.
func (m *Manager) ClearStats() {
	m.stats.Clear()
}

// NumBufs returns the pool capacity in frames.
func (m *Manager) NumBufs() uint32 {
	return m.numBufs
}

// PrintSelf dumps every frame descriptor and the count of valid frames.
func (m *Manager) PrintSelf() {
	fmt.Println("buffer pool state:")
	validCount := 0
	for i := range m.descs {
		fmt.Printf("  %s\n", m.descs[i].String())
		if m.descs[i].valid {
			validCount++
		}
	}
	fmt.Printf("total valid frames: %d\n", validCount)
}
