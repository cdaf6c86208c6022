package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/pkg/logger"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrAlreadyTracked = errors.New("channel is already bound to a server")
	ErrNotTracked     = errors.New("channel is not bound to a server")
)

// StoreBackend reads and writes the raw store document
type StoreBackend interface {
	Read() ([]byte, error) // nil, nil when nothing was saved yet
	Write(data []byte) error
}

// FileBackend keeps the store in a single JSON file
type FileBackend struct {
	Path string
}

func (b FileBackend) Read() ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write replaces the file through a temp file in the same directory
func (b FileBackend) Write(data []byte) error {
	dir := filepath.Dir(b.Path)
	tmp, err := os.CreateTemp(dir, ".servers-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.Path)
}

// StoreEntry is one channel binding as returned by Snapshot
type StoreEntry struct {
	ChannelID int64
	Server    *models.TrackedServer
}

// ServerStore owns the channel -> tracked server mapping.
// Every mutation goes through the store and is persisted while the lock is held,
// except SetLastStatus which is flushed by the next structural change.
type ServerStore struct {
	mu      sync.Mutex
	backend StoreBackend
	sealer  *Sealer
	servers *orderedmap.OrderedMap[int64, *models.TrackedServer]
}

// NewServerStore creates an empty store; call Load to read persisted state
func NewServerStore(backend StoreBackend, sealer *Sealer) *ServerStore {
	return &ServerStore{
		backend: backend,
		sealer:  sealer,
		servers: orderedmap.New[int64, *models.TrackedServer](),
	}
}

// Load replaces in-memory state with the persisted document.
// Keys are decimal channel ids; a missing document yields an empty store.
func (s *ServerStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read()
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}

	servers := orderedmap.New[int64, *models.TrackedServer]()
	if len(data) > 0 {
		if err := json.Unmarshal(data, servers); err != nil {
			return fmt.Errorf("decode store: %w", err)
		}
	}

	for pair := servers.Oldest(); pair != nil; pair = pair.Next() {
		rc := pair.Value.RemoteConsole
		if rc == nil || rc.PasswordSealed == "" {
			continue
		}
		plain, err := s.sealer.Open(rc.PasswordSealed)
		if err != nil {
			// The sealed value is kept so a restart with the right secret recovers it
			logger.Warn("Cannot unseal remote console password, console disabled", map[string]interface{}{
				"channel_id": pair.Key,
				"address":    pair.Value.Address,
				"error":      err.Error(),
			})
			rc.Enabled = false
			rc.Password = ""
			continue
		}
		rc.Password = plain
		rc.PasswordSealed = ""
	}

	s.servers = servers
	logger.Info("Tracked servers loaded", map[string]interface{}{
		"count": servers.Len(),
	})
	return nil
}

// Save persists the current mapping
func (s *ServerStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *ServerStore) saveLocked() error {
	out := orderedmap.New[int64, *models.TrackedServer]()
	for pair := s.servers.Oldest(); pair != nil; pair = pair.Next() {
		srv := pair.Value.Clone()
		if rc := srv.RemoteConsole; rc != nil && rc.Password != "" && s.sealer.Enabled() {
			sealed, err := s.sealer.Seal(rc.Password)
			if err != nil {
				return fmt.Errorf("seal password for channel %d: %w", pair.Key, err)
			}
			rc.Password = ""
			rc.PasswordSealed = sealed
		}
		out.Set(pair.Key, srv)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := s.backend.Write(data); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// Len returns the number of tracked channels
func (s *ServerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servers.Len()
}

// Has reports whether the channel is tracked
func (s *ServerStore) Has(channelID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.servers.Get(channelID)
	return ok
}

// Get returns a copy of the record bound to a channel
func (s *ServerStore) Get(channelID int64) (*models.TrackedServer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers.Get(channelID)
	if !ok {
		return nil, false
	}
	return srv.Clone(), true
}

// Snapshot returns copies of every record in insertion order
func (s *ServerStore) Snapshot() []StoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]StoreEntry, 0, s.servers.Len())
	for pair := s.servers.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, StoreEntry{ChannelID: pair.Key, Server: pair.Value.Clone()})
	}
	return entries
}

// Create binds a new server to a channel and persists it
func (s *ServerStore) Create(channelID int64, srv *models.TrackedServer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers.Get(channelID); ok {
		return ErrAlreadyTracked
	}
	s.servers.Set(channelID, srv.Clone())
	return s.saveLocked()
}

// Update applies fn to the stored record and persists the result.
// An error from fn aborts the update without touching the record.
func (s *ServerStore) Update(channelID int64, fn func(*models.TrackedServer) error) (*models.TrackedServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.servers.Get(channelID)
	if !ok {
		return nil, ErrNotTracked
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.servers.Set(channelID, next)
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// Delete removes channels and persists once if anything was removed
func (s *ServerStore) Delete(channelIDs ...int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range channelIDs {
		if _, ok := s.servers.Delete(id); ok {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveLocked()
}

// SetStatusMessage records the id of the message displaying status and persists it
func (s *ServerStore) SetStatusMessage(channelID, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers.Get(channelID)
	if !ok {
		return ErrNotTracked
	}
	id := messageID
	srv.StatusMessageID = &id
	return s.saveLocked()
}

// SetLastStatus updates the observed status in memory and returns the previous one
func (s *ServerStore) SetLastStatus(channelID int64, status models.ServerStatus) (models.ServerStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers.Get(channelID)
	if !ok {
		return "", false
	}
	prev := srv.LastStatus
	srv.LastStatus = status
	return prev, true
}
