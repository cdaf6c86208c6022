package audit

import (
	"errors"
	"strings"
	"testing"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	entries []*models.ConsoleAuditEntry
	err     error
}

func (r *recordingStore) Create(entry *models.ConsoleAuditEntry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

func TestRecordCommandKeepsRing(t *testing.T) {
	log := NewConsoleAuditLog(2, nil)

	log.RecordCommand(1, "a:25565", "u1", "list", "ok", true)
	log.RecordCommand(2, "b:25565", "u1", "say hi", "", false)
	log.RecordCommand(1, "a:25565", "u2", "time set day", "done", true)

	recent := log.GetRecent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "say hi", recent[0].Command)
	assert.Equal(t, "time set day", recent[1].Command)

	assert.Len(t, log.GetByChannel(1), 1)
	assert.Len(t, log.GetRecent(1), 1)
}

func TestRecordCommandTruncatesAndPersists(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}
	log := NewConsoleAuditLog(0, store)

	entry := log.RecordCommand(9, "a:25565", "u", "help", strings.Repeat("ж", 1500), true)

	assert.Len(t, []rune(entry.Result), maxResultLength)
	assert.NotEmpty(t, entry.ID)
	require.Len(t, store.entries, 1)
	assert.Equal(t, entry.ID, store.entries[0].ID)
	assert.Len(t, log.GetRecent(0), 1)
}
