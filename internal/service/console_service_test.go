package service

import (
	"context"
	"testing"

	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePrepareErrors(t *testing.T) {
	h := newHarness(t)
	console := NewConsoleService(h.store, &fakeRunner{}, h.platform, h.renderer, nil)

	_, err := console.Prepare(1)
	assert.ErrorIs(t, err, ErrNotTracked)

	h.track(t, 1, "mc.example:25565", nil)
	_, err = console.Prepare(1)
	assert.ErrorIs(t, err, ErrRemoteConsoleDisabled)

	// Enabled without a password is not usable
	_, err = h.store.Update(1, func(srv *models.TrackedServer) error {
		srv.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575}
		return nil
	})
	require.NoError(t, err)
	_, err = console.Prepare(1)
	assert.ErrorIs(t, err, ErrRemoteConsoleDisabled)
}

func TestConsoleRunRecordsAndMirrors(t *testing.T) {
	h := newHarness(t)
	runner := &fakeRunner{output: "There are 3 of a max of 20 players online", ok: true}
	auditLog := audit.NewConsoleAuditLog(10, nil)
	console := NewConsoleService(h.store, runner, h.platform, h.renderer, auditLog)

	h.track(t, 1, "mc.example:25565", func(srv *models.TrackedServer) {
		srv.RemoteConsole = &models.RemoteConsole{
			Enabled:      true,
			Port:         25575,
			Password:     "pw",
			LogChannelID: int64Ptr(77),
		}
	})

	result, err := console.Run(context.Background(), 1, "9", "/list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Logged)
	assert.Equal(t, []string{"list"}, runner.commands)

	entries := auditLog.GetByChannel(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "list", entries[0].Command)
	assert.Equal(t, "9", entries[0].UserID)
	assert.True(t, entries[0].Success)

	require.Len(t, h.platform.sent, 1)
	mirrored := h.platform.sent[0]
	assert.EqualValues(t, 77, mirrored.ChannelID)
	require.Len(t, mirrored.Embed.Fields, 4)
	assert.Equal(t, "`/list`", mirrored.Embed.Fields[2].Value)
	assert.Contains(t, mirrored.Embed.Fields[3].Value, "3 of a max of 20")
}

func TestConsoleRunFailureIsNoResult(t *testing.T) {
	h := newHarness(t)
	runner := &fakeRunner{ok: false}
	auditLog := audit.NewConsoleAuditLog(10, nil)
	console := NewConsoleService(h.store, runner, h.platform, h.renderer, auditLog)

	h.track(t, 1, "mc.example:25565", func(srv *models.TrackedServer) {
		srv.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "pw"}
	})

	result, err := console.Run(context.Background(), 1, "9", "stop")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Output)
	assert.False(t, result.Logged)
	assert.Empty(t, h.platform.sent)
	require.Len(t, auditLog.GetRecent(0), 1)
	assert.False(t, auditLog.GetRecent(0)[0].Success)
}
