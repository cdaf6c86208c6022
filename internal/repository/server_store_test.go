package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	data   []byte
	writes int
}

func (m *memBackend) Read() ([]byte, error) { return m.data, nil }

func (m *memBackend) Write(data []byte) error {
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

func newTestStore(t *testing.T) (*ServerStore, *memBackend) {
	t.Helper()
	backend := &memBackend{}
	store := NewServerStore(backend, nil)
	require.NoError(t, store.Load())
	return store, backend
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	store := NewServerStore(FileBackend{Path: filepath.Join(t.TempDir(), "servers.json")}, nil)
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestLoadNormalizesStringKeys(t *testing.T) {
	backend := &memBackend{data: []byte(`{
		"1061998983158964285": {"address": "a.example:25565", "type": "java", "players": true, "message": 55, "last_status": "online"},
		"42": {"address": "b.example:19132", "type": "bedrock", "players": false, "message": null}
	}`)}
	store := NewServerStore(backend, nil)
	require.NoError(t, store.Load())

	entries := store.Snapshot()
	require.Len(t, entries, 2)
	assert.EqualValues(t, 1061998983158964285, entries[0].ChannelID)
	assert.EqualValues(t, 55, *entries[0].Server.StatusMessageID)
	assert.EqualValues(t, 42, entries[1].ChannelID)
	assert.Equal(t, models.StatusUnknown, entries[1].Server.LastStatus)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	store := NewServerStore(FileBackend{Path: path}, nil)
	require.NoError(t, store.Load())

	first := models.NewTrackedServer("play.example.com:25565", models.ServerTypeJava)
	first.ShowInPresence = true
	second := models.NewTrackedServer("pe.example.com:19132", models.ServerTypeBedrock)
	second.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 19150, Password: "pw"}
	require.NoError(t, store.Create(30, first))
	require.NoError(t, store.Create(10, second))
	require.NoError(t, store.SetStatusMessage(30, 99))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	reloaded := NewServerStore(FileBackend{Path: path}, nil)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, store.Snapshot(), reloaded.Snapshot())

	require.NoError(t, reloaded.Save())
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(after, &raw))
	assert.Contains(t, raw, "30")
	assert.Contains(t, raw, "10")
}

func TestCreateRejectsDuplicateChannel(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, store.Create(42, models.NewTrackedServer("a:25565", models.ServerTypeJava)))

	err := store.Create(42, models.NewTrackedServer("b:25565", models.ServerTypeJava))
	assert.ErrorIs(t, err, ErrAlreadyTracked)

	srv, ok := store.Get(42)
	require.True(t, ok)
	assert.Equal(t, "a:25565", srv.Address)
	assert.Equal(t, 1, backend.writes)
}

func TestDeleteSavesOnce(t *testing.T) {
	store, backend := newTestStore(t)
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, store.Create(id, models.NewTrackedServer("a:25565", models.ServerTypeJava)))
	}
	writes := backend.writes

	removed, err := store.Delete(1, 3, 404)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, writes+1, backend.writes)
	assert.Equal(t, 1, store.Len())

	removed, err = store.Delete(404)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, writes+1, backend.writes)
}

func TestUpdateAbortsOnError(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, store.Create(5, models.NewTrackedServer("a:25565", models.ServerTypeJava)))
	writes := backend.writes

	_, err := store.Update(5, func(s *models.TrackedServer) error {
		s.Address = "changed:1"
		return models.ErrInvalidPort
	})
	assert.ErrorIs(t, err, models.ErrInvalidPort)
	srv, _ := store.Get(5)
	assert.Equal(t, "a:25565", srv.Address)
	assert.Equal(t, writes, backend.writes)

	_, err = store.Update(6, func(*models.TrackedServer) error { return nil })
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestSetLastStatusDoesNotSave(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, store.Create(5, models.NewTrackedServer("a:25565", models.ServerTypeJava)))
	writes := backend.writes

	prev, ok := store.SetLastStatus(5, models.StatusOnline)
	assert.True(t, ok)
	assert.Equal(t, models.StatusUnknown, prev)
	assert.Equal(t, writes, backend.writes)

	_, ok = store.SetLastStatus(6, models.StatusOnline)
	assert.False(t, ok)
}

func TestSealedPasswordsAtRest(t *testing.T) {
	backend := &memBackend{}
	store := NewServerStore(backend, NewSealer("hunter2"))
	require.NoError(t, store.Load())

	srv := models.NewTrackedServer("a:25565", models.ServerTypeJava)
	srv.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "rcon-pass"}
	require.NoError(t, store.Create(1, srv))

	assert.NotContains(t, string(backend.data), "rcon-pass")
	assert.Contains(t, string(backend.data), `"password_sealed"`)

	got, _ := store.Get(1)
	assert.Equal(t, "rcon-pass", got.RemoteConsole.Password)

	reloaded := NewServerStore(backend, NewSealer("hunter2"))
	require.NoError(t, reloaded.Load())
	got, _ = reloaded.Get(1)
	assert.Equal(t, "rcon-pass", got.RemoteConsole.Password)
	assert.Empty(t, got.RemoteConsole.PasswordSealed)
	assert.True(t, got.RemoteConsole.Usable())
}

func TestPasswordsLookingSealedRoundTrip(t *testing.T) {
	for _, secret := range []string{"", "s3cret"} {
		t.Run("secret="+secret, func(t *testing.T) {
			backend := &memBackend{}
			store := NewServerStore(backend, NewSealer(secret))
			require.NoError(t, store.Load())

			srv := models.NewTrackedServer("a:25565", models.ServerTypeJava)
			srv.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "sealed:hunter2"}
			require.NoError(t, store.Create(7, srv))
			if secret != "" {
				assert.NotContains(t, string(backend.data), "hunter2")
			}

			reloaded := NewServerStore(backend, NewSealer(secret))
			require.NoError(t, reloaded.Load())
			got, ok := reloaded.Get(7)
			require.True(t, ok)
			assert.Equal(t, "sealed:hunter2", got.RemoteConsole.Password)
			assert.True(t, got.RemoteConsole.Enabled)
		})
	}
}

func TestUnopenableSealedPasswordDisablesConsole(t *testing.T) {
	backend := &memBackend{}
	store := NewServerStore(backend, NewSealer("right"))
	require.NoError(t, store.Load())

	broken := models.NewTrackedServer("a:25565", models.ServerTypeJava)
	broken.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "pw"}
	require.NoError(t, store.Create(1, broken))
	require.NoError(t, store.Create(2, models.NewTrackedServer("b:25565", models.ServerTypeJava)))

	for _, secret := range []string{"", "wrong"} {
		reloaded := NewServerStore(backend, NewSealer(secret))
		require.NoError(t, reloaded.Load(), "secret %q", secret)
		assert.Equal(t, 2, reloaded.Len())

		got, _ := reloaded.Get(1)
		assert.False(t, got.RemoteConsole.Enabled)
		assert.Empty(t, got.RemoteConsole.Password)
		assert.False(t, got.RemoteConsole.Usable())
	}

	// A save under the wrong secret keeps the sealed value recoverable
	wrong := NewServerStore(backend, NewSealer("wrong"))
	require.NoError(t, wrong.Load())
	require.NoError(t, wrong.Save())

	recovered := NewServerStore(backend, NewSealer("right"))
	require.NoError(t, recovered.Load())
	got, _ := recovered.Get(1)
	assert.Equal(t, "pw", got.RemoteConsole.Password)
}

func TestSealer(t *testing.T) {
	_, err := NewSealer("").Seal("pw")
	assert.ErrorIs(t, err, ErrSecretRequired)
	assert.False(t, (*Sealer)(nil).Enabled())

	sealed, err := NewSealer("a").Seal("pw")
	require.NoError(t, err)
	opened, err := NewSealer("a").Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "pw", opened)

	_, err = NewSealer("b").Open(sealed)
	assert.ErrorIs(t, err, ErrSecretMismatch)

	_, err = NewSealer("a").Open("not base64!")
	assert.Error(t, err)
}
