package storage

import (
	"encoding/binary"
	"errors"
)

const (
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576

	PageSize   = 1 << 13 // 8,192 (8 KiB)
	HeaderSize = 10      // flags + page number + lower + upper
	SlotSize   = 4       // 2 * uint16: offset, length
)

// Header offsets
const (
	offFlags  = 0
	offPageNo = 2
	offLower  = 6
	offUpper  = 8
)

// Page flags
const (
	FlagFree uint16 = 1 << 0
)

var (
	ErrRecordTooLarge = errors.New("page: record too large for a single page")
	ErrPageFull       = errors.New("page: not enough free space")
	ErrBadSlot        = errors.New("page: invalid or deleted slot")
	ErrPageCorrupt    = errors.New("page: corrupt slot or record bounds")
)

// PageID identifies a page within a PageFile.
type PageID uint32

// +------------------+ 0
// | Header           |
// | Slots[]          | <-- lower
// +------------------+
// |                  |
// |   Free space     |
// |                  |
// +------------------+ <-- upper
// |  Record Data     |
// |  (grows down)    |
// +------------------+ PageSize (8192)
//
// A Page is a fixed-size block; the header and records share the same
// byte range that is written to disk, so a page round-trips through the
// file layer unchanged. The backing array (not a slice) makes a Page
// copyable by value, which is how the buffer pool installs a page into
// a frame.
type Page struct {
	buf [PageSize]byte
}

type slot struct {
	offset uint16
	length uint16
}

// ---- low-level header getters/setters ----

func (p *Page) flags() uint16 {
	return binary.LittleEndian.Uint16(p.buf[offFlags:])
}

func (p *Page) setFlags(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[offFlags:], v)
}

// Number returns the page identifier assigned at allocation.
func (p *Page) Number() PageID {
	return PageID(binary.LittleEndian.Uint32(p.buf[offPageNo:]))
}

func (p *Page) setNumber(v PageID) {
	binary.LittleEndian.PutUint32(p.buf[offPageNo:], uint32(v))
}

func (p *Page) lower() uint16 {
	return binary.LittleEndian.Uint16(p.buf[offLower:])
}

func (p *Page) setLower(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[offLower:], v)
}

func (p *Page) upper() uint16 {
	return binary.LittleEndian.Uint16(p.buf[offUpper:])
}

func (p *Page) setUpper(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[offUpper:], v)
}

func (p *Page) init(pageNo PageID) {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.setFlags(0)
	p.setNumber(pageNo)
	p.setLower(HeaderSize)
	p.setUpper(PageSize)
}

// ---- public helpers ----

func (p *Page) FreeSpace() int {
	return int(p.upper() - p.lower())
}

func (p *Page) NumSlots() int {
	return int(p.lower()-HeaderSize) / SlotSize
}

// IsUninitialized reports whether the block has never been stamped with a
// header. An all-zero page read from disk is in this state.
func (p *Page) IsUninitialized() bool {
	return p.lower() == 0 && p.upper() == 0
}

// IsFree reports whether the page has been deleted from its file.
func (p *Page) IsFree() bool {
	return p.flags()&FlagFree != 0
}

// ---- slots ----

func (p *Page) slotOff(idx int) int {
	return HeaderSize + idx*SlotSize
}

func (p *Page) getSlot(i int) (slot, error) {
	if i < 0 || i >= p.NumSlots() {
		return slot{}, ErrBadSlot
	}
	o := p.slotOff(i)
	// slots live in [HeaderSize, lower)
	if o+SlotSize > int(p.lower()) {
		return slot{}, ErrPageCorrupt
	}
	return slot{
		offset: binary.LittleEndian.Uint16(p.buf[o+0:]),
		length: binary.LittleEndian.Uint16(p.buf[o+2:]),
	}, nil
}

func (p *Page) putSlot(idx int, s slot) error {
	if idx < 0 || idx > p.NumSlots() {
		// a new slot may only be appended at NumSlots
		return ErrBadSlot
	}
	off := p.slotOff(idx)
	if idx == p.NumSlots() && off+SlotSize > int(p.upper()) {
		return ErrPageFull
	}
	binary.LittleEndian.PutUint16(p.buf[off+0:], s.offset)
	binary.LittleEndian.PutUint16(p.buf[off+2:], s.length)
	return nil
}

// ---- records ----

// InsertRecord stores rec in the page and returns its slot index.
func (p *Page) InsertRecord(rec []byte) (int, error) {
	maxInline := PageSize - HeaderSize - SlotSize
	if len(rec) > maxInline {
		return -1, ErrRecordTooLarge
	}
	need := len(rec) + SlotSize
	if p.FreeSpace() < need {
		return -1, ErrPageFull
	}
	u := int(p.upper()) - len(rec)
	copy(p.buf[u:], rec)
	p.setUpper(uint16(u))

	i := p.NumSlots()
	if err := p.putSlot(i, slot{offset: uint16(u), length: uint16(len(rec))}); err != nil {
		return -1, err
	}
	p.setLower(p.lower() + SlotSize)
	return i, nil
}

// GetRecord returns the bytes stored under the given slot. The returned
// slice aliases the page buffer and is only valid while the caller holds
// a pin on the page's frame.
func (p *Page) GetRecord(i int) ([]byte, error) {
	s, err := p.getSlot(i)
	if err != nil {
		return nil, err
	}
	if s.offset == 0 && s.length == 0 {
		// tombstone left by DeleteRecord
		return nil, ErrBadSlot
	}
	start, end := int(s.offset), int(s.offset)+int(s.length)
	if start < int(p.upper()) || end > PageSize || start >= end {
		return nil, ErrPageCorrupt
	}
	return p.buf[start:end], nil
}

// DeleteRecord tombstones a slot. The record bytes stay behind until the
// page is rewritten; only the slot stops resolving.
func (p *Page) DeleteRecord(i int) error {
	s, err := p.getSlot(i)
	if err != nil {
		return err
	}
	if s.offset == 0 && s.length == 0 {
		return ErrBadSlot
	}
	return p.putSlot(i, slot{})
}
