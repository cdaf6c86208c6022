package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// maxResultLength bounds the stored console output per entry
const maxResultLength = 1000

// EntryStore persists audit entries, e.g. repository.ConsoleAuditRepository
type EntryStore interface {
	Create(entry *models.ConsoleAuditEntry) error
}

// ConsoleAuditLog records every remote console command issued from chat.
// Entries are kept in a bounded in-memory ring and written through to an
// optional store.
type ConsoleAuditLog struct {
	entries []models.ConsoleAuditEntry
	mu      sync.RWMutex
	maxSize int
	store   EntryStore
}

// NewConsoleAuditLog creates an audit log; store may be nil
func NewConsoleAuditLog(maxSize int, store EntryStore) *ConsoleAuditLog {
	if maxSize <= 0 {
		maxSize = 1000
	}

	return &ConsoleAuditLog{
		entries: make([]models.ConsoleAuditEntry, 0, maxSize),
		maxSize: maxSize,
		store:   store,
	}
}

// RecordCommand adds an entry for one command and its outcome
func (a *ConsoleAuditLog) RecordCommand(channelID int64, address, userID, command, result string, success bool) models.ConsoleAuditEntry {
	entry := models.ConsoleAuditEntry{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Address:   address,
		UserID:    userID,
		Command:   command,
		Result:    Truncate(result, maxResultLength),
		Success:   success,
		CreatedAt: time.Now(),
	}

	a.mu.Lock()
	a.entries = append(a.entries, entry)
	if len(a.entries) > a.maxSize {
		a.entries = a.entries[len(a.entries)-a.maxSize:]
	}
	a.mu.Unlock()

	fields := map[string]interface{}{
		"channel_id": channelID,
		"address":    address,
		"user_id":    userID,
		"command":    command,
	}
	if success {
		logger.Info("AUDIT: console command", fields)
	} else {
		logger.Warn("AUDIT: console command FAILED", fields)
	}

	if a.store != nil {
		if err := a.store.Create(&entry); err != nil {
			logger.Error("Failed to persist console audit entry", err, fields)
		}
	}

	return entry
}

// GetRecent returns the N most recent entries, oldest first
func (a *ConsoleAuditLog) GetRecent(n int) []models.ConsoleAuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if n <= 0 || n > len(a.entries) {
		n = len(a.entries)
	}

	result := make([]models.ConsoleAuditEntry, n)
	copy(result, a.entries[len(a.entries)-n:])
	return result
}

// GetByChannel returns in-memory entries for one channel, oldest first
func (a *ConsoleAuditLog) GetByChannel(channelID int64) []models.ConsoleAuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []models.ConsoleAuditEntry
	for _, entry := range a.entries {
		if entry.ChannelID == channelID {
			result = append(result, entry)
		}
	}
	return result
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
