package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yokyay/classhub/internal/domain"
)

func TestFileStoreLifecycle(t *testing.T) {
	s := NewFileStore()
	roomID := domain.RoomID("room-1")

	require.Empty(t, s.List(roomID))

	pdf := s.Add(roomID, "syllabus.pdf", "application/pdf", []byte("%PDF-1.4 fake"))
	txt := s.Add(roomID, "notes.txt", "text/plain", []byte("hello"))

	require.NotEmpty(t, pdf.ID)
	require.NotEqual(t, pdf.ID, txt.ID)
	require.Equal(t, int64(5), txt.Size)

	list := s.List(roomID)
	require.Len(t, list, 2)
	require.Equal(t, "syllabus.pdf", list[0].Name, "upload order preserved")

	got, ok := s.Get(roomID, txt.ID)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), got.Data)

	_, ok = s.Get(roomID, "missing")
	require.False(t, ok)
	_, ok = s.Get("other-room", txt.ID)
	require.False(t, ok)

	require.NoError(t, s.Remove(roomID, pdf.ID))
	require.ErrorIs(t, s.Remove(roomID, pdf.ID), ErrFileNotFound)
	require.Len(t, s.List(roomID), 1)

	s.PurgeRoom(roomID)
	require.Empty(t, s.List(roomID))
}

func TestFileStoreSniffsMime(t *testing.T) {
	s := NewFileStore()
	roomID := domain.RoomID("room-1")

	// PNG magic bytes, no content type from the client.
	png := s.Add(roomID, "pic", "", []byte("\x89PNG\r\n\x1a\n rest"))
	require.Equal(t, "image/png", png.Mime)

	// An explicit content type is trusted as-is.
	f := s.Add(roomID, "data.bin", "application/octet-stream", []byte{0x00, 0x01})
	require.Equal(t, "application/octet-stream", f.Mime)
}
