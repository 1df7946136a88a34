package app

import (
	"errors"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/domain"
)

var ErrFileNotFound = errors.New("file not found")

// StoredFile is one uploaded blob held in process memory.
type StoredFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Mime       string    `json:"mime"`
	UploadedAt time.Time `json:"uploadedAt"`
	Data       []byte    `json:"-"`
}

// FileStore keeps per-room uploads. Lives and dies with the room: the
// coordinator purges a room's files when the room is deleted.
type FileStore struct {
	mu     sync.RWMutex
	byRoom map[domain.RoomID][]*StoredFile
}

func NewFileStore() *FileStore {
	return &FileStore{byRoom: make(map[domain.RoomID][]*StoredFile)}
}

// Add stores a blob and returns its metadata. When the client sent no
// content type the mime is sniffed from the bytes.
func (s *FileStore) Add(roomID domain.RoomID, name, mime string, data []byte) *StoredFile {
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	f := &StoredFile{
		ID:         uuid.NewString(),
		Name:       name,
		Size:       int64(len(data)),
		Mime:       mime,
		UploadedAt: time.Now().UTC(),
		Data:       data,
	}
	s.mu.Lock()
	s.byRoom[roomID] = append(s.byRoom[roomID], f)
	s.mu.Unlock()
	log.Info().Str("module", "app.files").Str("room", string(roomID)).Str("file", f.ID).Str("name", name).Int64("size", f.Size).Msg("file stored")
	return f
}

// List returns upload-order metadata for a room.
func (s *FileStore) List(roomID domain.RoomID) []*StoredFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := s.byRoom[roomID]
	out := make([]*StoredFile, len(files))
	copy(out, files)
	return out
}

func (s *FileStore) Get(roomID domain.RoomID, fileID string) (*StoredFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.byRoom[roomID] {
		if f.ID == fileID {
			return f, true
		}
	}
	return nil, false
}

func (s *FileStore) Remove(roomID domain.RoomID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.byRoom[roomID]
	for i, f := range files {
		if f.ID == fileID {
			s.byRoom[roomID] = append(files[:i], files[i+1:]...)
			return nil
		}
	}
	return ErrFileNotFound
}

// PurgeRoom drops every blob of the room. Implements core.BlobPurger.
func (s *FileStore) PurgeRoom(roomID domain.RoomID) {
	s.mu.Lock()
	delete(s.byRoom, roomID)
	s.mu.Unlock()
	log.Info().Str("module", "app.files").Str("room", string(roomID)).Msg("room files purged")
}
