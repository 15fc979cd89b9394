package buffer

import (
	"fmt"

	"badgerdb/internal/storage"
)

// BufferExceededError is returned by the replacement engine when every
// frame is pinned and no eviction is possible.
type BufferExceededError struct{}

func (e *BufferExceededError) Error() string {
	return "buffer: all frames are pinned, no buffer available"
}

// PageNotPinnedError is returned when a page is unpinned more times than
// it was pinned.
type PageNotPinnedError struct {
	File    string
	PageNo  storage.PageID
	FrameNo FrameID
}

func (e *PageNotPinnedError) Error() string {
	return fmt.Sprintf("buffer: page %d of %s in frame %d is not pinned", e.PageNo, e.File, e.FrameNo)
}

// PagePinnedError is returned when a flush meets a pinned frame.
type PagePinnedError struct {
	File    string
	PageNo  storage.PageID
	FrameNo FrameID
}

func (e *PagePinnedError) Error() string {
	return fmt.Sprintf("buffer: page %d of %s is pinned in frame %d", e.PageNo, e.File, e.FrameNo)
}

// BadBufferError reports a corrupted frame descriptor: a flush found an
// invalid frame still claiming to belong to the flushed file.
type BadBufferError struct {
	FrameNo FrameID
	Dirty   bool
	Valid   bool
	Refbit  bool
}

func (e *BadBufferError) Error() string {
	return fmt.Sprintf("buffer: bad frame %d (dirty=%v valid=%v refbit=%v)", e.FrameNo, e.Dirty, e.Valid, e.Refbit)
}

// HashNotFoundError signals a page index miss. Inside the manager it is
// an expected control signal, never surfaced to callers.
type HashNotFoundError struct {
	File   string
	PageNo storage.PageID
}

func (e *HashNotFoundError) Error() string {
	return fmt.Sprintf("buffer: page %d of %s not in page index", e.PageNo, e.File)
}

// HashAlreadyPresentError signals a duplicate page index insert. A caller
// ever seeing one is a bug in the manager.
type HashAlreadyPresentError struct {
	File   string
	PageNo storage.PageID
}

func (e *HashAlreadyPresentError) Error() string {
	return fmt.Sprintf("buffer: page %d of %s already in page index", e.PageNo, e.File)
}
