package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/spf13/afero"
)

var (
	ErrPageNotFound = errors.New("pagefile: page not found")
	ErrPageFreed    = errors.New("pagefile: page has been deleted")
)

// fileSeq hands every open PageFile a process-unique id. The id only
// feeds the buffer pool's hash; identity is still pointer equality.
var fileSeq atomic.Uint64

// PageFile is per-file on-disk page storage. Pages live at
// pageNo * PageSize; the file grows as pages are allocated. Reads past
// the end of the file yield zero-filled pages, which lets higher layers
// treat untouched pages as lazily initialized.
type PageFile struct {
	file      afero.File
	name      string
	id        uint64
	pageCount PageID
	free      []PageID // deleted page numbers, reusable until Close
}

// OpenPageFile opens or creates the named file on fs.
func OpenPageFile(fs afero.Fs, name string) (*PageFile, error) {
	file, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open page file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat page file: %w", err)
	}

	return &PageFile{
		file:      file,
		name:      name,
		id:        fileSeq.Add(1),
		pageCount: PageID(info.Size() / PageSize),
	}, nil
}

// ID returns the process-unique numeric identity of this handle.
func (f *PageFile) ID() uint64 { return f.id }

// Filename returns the file's name for diagnostics.
func (f *PageFile) Filename() string { return f.name }

// PageCount returns the number of pages the file currently spans.
func (f *PageFile) PageCount() PageID { return f.pageCount }

// AllocatePage returns a new, empty page with a fresh stable identifier.
// Deleted page numbers are reused before the file is extended. The page
// is written through so its identifier is durable immediately.
func (f *PageFile) AllocatePage() (Page, error) {
	var pageNo PageID
	if n := len(f.free); n > 0 {
		pageNo = f.free[n-1]
		f.free = f.free[:n-1]
	} else {
		pageNo = f.pageCount
	}

	var p Page
	p.init(pageNo)
	if err := f.WritePage(p); err != nil {
		return Page{}, fmt.Errorf("allocate page %d: %w", pageNo, err)
	}
	return p, nil
}

// ReadPage returns the page stored under pageNo. A read past the end of
// the file is zero-filled; an all-zero page is stamped with its number
// before being returned.
func (f *PageFile) ReadPage(pageNo PageID) (Page, error) {
	var p Page
	if err := f.readRaw(pageNo, &p); err != nil {
		return Page{}, err
	}
	if p.IsFree() {
		return Page{}, fmt.Errorf("read page %d of %s: %w", pageNo, f.name, ErrPageFreed)
	}
	if p.IsUninitialized() {
		p.init(pageNo)
	}
	return p, nil
}

// WritePage persists the page's current contents under its identifier.
func (f *PageFile) WritePage(p Page) error {
	pageNo := p.Number()
	off := int64(pageNo) * PageSize
	if _, err := f.file.WriteAt(p.buf[:], off); err != nil {
		return fmt.Errorf("write page %d of %s: %w", pageNo, f.name, err)
	}
	if pageNo >= f.pageCount {
		f.pageCount = pageNo + 1
	}
	return nil
}

// DeletePage removes pageNo from the file. The on-disk block is zeroed
// except for the free flag and the page number, and the number becomes
// reusable by AllocatePage.
func (f *PageFile) DeletePage(pageNo PageID) error {
	if pageNo >= f.pageCount {
		return fmt.Errorf("delete page %d of %s: %w", pageNo, f.name, ErrPageNotFound)
	}
	var p Page
	if err := f.readRaw(pageNo, &p); err != nil {
		return err
	}
	if p.IsFree() {
		return fmt.Errorf("delete page %d of %s: %w", pageNo, f.name, ErrPageFreed)
	}

	var freed Page
	freed.setFlags(FlagFree)
	freed.setNumber(pageNo)
	off := int64(pageNo) * PageSize
	if _, err := f.file.WriteAt(freed.buf[:], off); err != nil {
		return fmt.Errorf("delete page %d of %s: %w", pageNo, f.name, err)
	}
	f.free = append(f.free, pageNo)
	return nil
}

// Close closes the underlying file. Callers are responsible for flushing
// any cached pages first.
func (f *PageFile) Close() error {
	return f.file.Close()
}

func (f *PageFile) readRaw(pageNo PageID, p *Page) error {
	off := int64(pageNo) * PageSize
	n, err := f.file.ReadAt(p.buf[:], off)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read page %d of %s: %w", pageNo, f.name, err)
	}
	// Zero-fill the rest of the page on a short read or EOF.
	for i := n; i < PageSize; i++ {
		p.buf[i] = 0
	}
	return nil
}
