package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rec1Data = []byte("first record payload")
	rec2Data = []byte("second record payload")
)

func newTestPage(t *testing.T) *Page {
	t.Helper()

	var p Page
	p.init(7)

	// defaults after init
	assert.Equal(t, PageID(7), p.Number())
	assert.Equal(t, uint16(PageSize), p.upper())
	assert.Equal(t, uint16(HeaderSize), p.lower())
	assert.Equal(t, 0, p.NumSlots())
	assert.False(t, p.IsUninitialized())
	assert.False(t, p.IsFree())

	return &p
}

func TestPageInsertAndGetRecord(t *testing.T) {
	p := newTestPage(t)

	slot1, err := p.InsertRecord(rec1Data)
	require.NoError(t, err)
	assert.Equal(t, 0, slot1)

	slot2, err := p.InsertRecord(rec2Data)
	require.NoError(t, err)
	assert.Equal(t, 1, slot2)
	assert.Equal(t, 2, p.NumSlots())

	got1, err := p.GetRecord(slot1)
	require.NoError(t, err)
	assert.Equal(t, rec1Data, got1)

	got2, err := p.GetRecord(slot2)
	require.NoError(t, err)
	assert.Equal(t, rec2Data, got2)
}

func TestPageDeleteRecord(t *testing.T) {
	p := newTestPage(t)

	slot, err := p.InsertRecord(rec1Data)
	require.NoError(t, err)

	require.NoError(t, p.DeleteRecord(slot))

	_, err = p.GetRecord(slot)
	assert.ErrorIs(t, err, ErrBadSlot)

	// double delete is rejected
	assert.ErrorIs(t, p.DeleteRecord(slot), ErrBadSlot)

	// the slot index stays occupied, new records go behind it
	slot2, err := p.InsertRecord(rec2Data)
	require.NoError(t, err)
	assert.Equal(t, 1, slot2)
}

func TestPageBadSlot(t *testing.T) {
	p := newTestPage(t)

	_, err := p.GetRecord(0)
	assert.ErrorIs(t, err, ErrBadSlot)

	_, err = p.GetRecord(-1)
	assert.ErrorIs(t, err, ErrBadSlot)
}

func TestPageRecordTooLarge(t *testing.T) {
	p := newTestPage(t)

	_, err := p.InsertRecord(make([]byte, PageSize))
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestPageFillsUp(t *testing.T) {
	p := newTestPage(t)

	rec := make([]byte, 1024)
	inserted := 0
	for {
		_, err := p.InsertRecord(rec)
		if err != nil {
			assert.ErrorIs(t, err, ErrPageFull)
			break
		}
		inserted++
	}

	// 8 KiB minus header fits seven 1 KiB records plus slots
	assert.Equal(t, 7, inserted)
	assert.Less(t, p.FreeSpace(), len(rec)+SlotSize)
}

func TestPageFreeSpaceAccounting(t *testing.T) {
	p := newTestPage(t)

	before := p.FreeSpace()
	_, err := p.InsertRecord(rec1Data)
	require.NoError(t, err)
	assert.Equal(t, before-len(rec1Data)-SlotSize, p.FreeSpace())
}

func TestPageUninitialized(t *testing.T) {
	var p Page
	assert.True(t, p.IsUninitialized())

	p.init(3)
	assert.False(t, p.IsUninitialized())
}
