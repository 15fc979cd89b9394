package buffer

import (
	"badgerdb/internal/storage"
)

// hashEntry is one chained mapping (file, pageNo) -> frameNo.
type hashEntry struct {
	file    *storage.PageFile
	pageNo  storage.PageID
	frameNo FrameID
	next    *hashEntry
}

// hashTable is the page index: a chained table keyed on file handle
// identity plus page number. File identity is pointer equality, never
// the filename.
type hashTable struct {
	buckets []*hashEntry
}

// tableSize spreads collisions over roughly 1.2x the frame count: the
// product is truncated to an integer and made odd by setting its low
// bit, so an even product is bumped up by one.
func tableSize(bufs int) int {
	return (bufs*12/10)&^1 + 1
}

func newHashTable(bufs int) *hashTable {
	return &hashTable{buckets: make([]*hashEntry, tableSize(bufs))}
}

func (h *hashTable) bucketOf(file *storage.PageFile, pageNo storage.PageID) int {
	k := file.ID()*31 + uint64(pageNo)
	return int(k % uint64(len(h.buckets)))
}

// insert adds a mapping. The key must not already be present.
func (h *hashTable) insert(file *storage.PageFile, pageNo storage.PageID, frameNo FrameID) error {
	b := h.bucketOf(file, pageNo)
	for e := h.buckets[b]; e != nil; e = e.next {
		if e.file == file && e.pageNo == pageNo {
			return &HashAlreadyPresentError{File: file.Filename(), PageNo: pageNo}
		}
	}
	h.buckets[b] = &hashEntry{file: file, pageNo: pageNo, frameNo: frameNo, next: h.buckets[b]}
	return nil
}

// lookup returns the frame holding (file, pageNo).
func (h *hashTable) lookup(file *storage.PageFile, pageNo storage.PageID) (FrameID, error) {
	b := h.bucketOf(file, pageNo)
	for e := h.buckets[b]; e != nil; e = e.next {
		if e.file == file && e.pageNo == pageNo {
			return e.frameNo, nil
		}
	}
	return 0, &HashNotFoundError{File: file.Filename(), PageNo: pageNo}
}

// remove deletes the mapping for (file, pageNo).
func (h *hashTable) remove(file *storage.PageFile, pageNo storage.PageID) error {
	b := h.bucketOf(file, pageNo)
	for pe, e := &h.buckets[b], h.buckets[b]; e != nil; pe, e = &e.next, e.next {
		if e.file == file && e.pageNo == pageNo {
			*pe = e.next
			return nil
		}
	}
	return &HashNotFoundError{File: file.Filename(), PageNo: pageNo}
}
