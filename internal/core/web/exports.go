package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type exportFile struct {
	name    string
	body    []byte
	expires time.Time
}

// exportStash holds rendered exports until they are downloaded once or expire.
type exportStash struct {
	mu    sync.Mutex
	ttl   time.Duration
	files map[string]exportFile
	now   func() time.Time
}

func newExportStash(ttl time.Duration) *exportStash {
	return &exportStash{
		ttl:   ttl,
		files: make(map[string]exportFile),
		now:   time.Now,
	}
}

// put stores an export and returns its download id.
func (s *exportStash) put(name string, body []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, f := range s.files {
		if now.After(f.expires) {
			delete(s.files, id)
		}
	}

	id := uuid.NewString()
	s.files[id] = exportFile{name: name, body: body, expires: now.Add(s.ttl)}
	return id
}

// take removes and returns the export with id.
func (s *exportStash) take(id string) (exportFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return exportFile{}, false
	}
	delete(s.files, id)
	if s.now().After(f.expires) {
		return exportFile{}, false
	}
	return f, true
}

func (s *exportStash) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
