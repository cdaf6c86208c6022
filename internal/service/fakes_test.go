package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/payperplay/mcwatch/internal/i18n"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/internal/storage"
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

type sentEmbed struct {
	ChannelID int64
	MessageID int64
	Embed     models.DiscordEmbed
}

// fakePlatform is an in-memory chat platform
type fakePlatform struct {
	mu sync.Mutex

	channels   map[int64]*ChannelInfo
	channelErr map[int64]error
	messages   map[int64]map[int64]models.DiscordEmbed
	messageErr map[int64]error
	editErr    error
	renameErr  error
	nextID     int64

	sent     []sentEmbed
	edits    int
	renames  []string
	activity []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels:   make(map[int64]*ChannelInfo),
		channelErr: make(map[int64]error),
		messages:   make(map[int64]map[int64]models.DiscordEmbed),
		messageErr: make(map[int64]error),
		nextID:     1000,
	}
}

func (p *fakePlatform) addChannel(id int64, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[id] = &ChannelInfo{ID: id, Name: name, GuildID: "1"}
	p.messages[id] = make(map[int64]models.DiscordEmbed)
}

func (p *fakePlatform) addMessage(channelID, messageID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[channelID][messageID] = models.DiscordEmbed{}
}

func (p *fakePlatform) Channel(_ context.Context, channelID int64) (ChannelInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channelErr[channelID]; err != nil {
		return ChannelInfo{}, err
	}
	ch, ok := p.channels[channelID]
	if !ok {
		return ChannelInfo{}, ErrChannelNotFound
	}
	return *ch, nil
}

func (p *fakePlatform) MessageExists(_ context.Context, channelID, messageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.messageErr[channelID]; err != nil {
		return err
	}
	if _, ok := p.messages[channelID][messageID]; !ok {
		return ErrMessageNotFound
	}
	return nil
}

func (p *fakePlatform) SendEmbed(_ context.Context, channelID int64, embed models.DiscordEmbed) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	if p.messages[channelID] == nil {
		p.messages[channelID] = make(map[int64]models.DiscordEmbed)
	}
	p.messages[channelID][p.nextID] = embed
	p.sent = append(p.sent, sentEmbed{ChannelID: channelID, MessageID: p.nextID, Embed: embed})
	return p.nextID, nil
}

func (p *fakePlatform) EditEmbed(_ context.Context, channelID, messageID int64, embed models.DiscordEmbed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.editErr != nil {
		return p.editErr
	}
	if _, ok := p.messages[channelID][messageID]; !ok {
		return ErrMessageNotFound
	}
	p.messages[channelID][messageID] = embed
	p.edits++
	return nil
}

func (p *fakePlatform) RenameChannel(_ context.Context, channelID int64, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renames = append(p.renames, name)
	if p.renameErr != nil {
		return p.renameErr
	}
	// Discord stores text channel names lowercased
	if ch, ok := p.channels[channelID]; ok {
		ch.Name = strings.ToLower(name)
	}
	return nil
}

func (p *fakePlatform) SetWatchingActivity(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = append(p.activity, text)
	return nil
}

func (p *fakePlatform) message(channelID, messageID int64) (models.DiscordEmbed, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	embed, ok := p.messages[channelID][messageID]
	return embed, ok
}

// fakeProber answers from a fixed table; unknown addresses are offline
type fakeProber struct {
	mu      sync.Mutex
	results map[string]models.StatusResult
	calls   map[string]int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		results: make(map[string]models.StatusResult),
		calls:   make(map[string]int),
	}
}

func (p *fakeProber) set(address string, result models.StatusResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[address] = result
}

func (p *fakeProber) Probe(_ context.Context, _ models.ServerType, address string) models.StatusResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[address]++
	if result, ok := p.results[address]; ok {
		return result
	}
	return models.Offline()
}

type fakeRecorder struct {
	samples []storage.StatusSample
}

func (r *fakeRecorder) WriteStatusSample(sample storage.StatusSample) {
	r.samples = append(r.samples, sample)
}

type fakeRunner struct {
	output   string
	ok       bool
	commands []string
}

func (r *fakeRunner) Execute(_ context.Context, _ *models.TrackedServer, command string) (string, bool) {
	r.commands = append(r.commands, command)
	return r.output, r.ok
}

type harness struct {
	store      *repository.ServerStore
	backend    *memBackend
	platform   *fakePlatform
	prober     *fakeProber
	recorder   *fakeRecorder
	renderer   *Renderer
	reconciler *ReconcileService
	tracker    *TrackerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := &memBackend{}
	store := repository.NewServerStore(backend, nil)
	require.NoError(t, store.Load())

	h := &harness{
		store:    store,
		backend:  backend,
		platform: newFakePlatform(),
		prober:   newFakeProber(),
		recorder: &fakeRecorder{},
		renderer: NewRenderer(i18n.MustLoad("en")),
	}
	h.reconciler = NewReconcileService(store, h.platform, h.prober, h.renderer, h.recorder, time.Minute)
	h.tracker = NewTrackerService(store, h.platform, h.renderer, h.reconciler)
	return h
}

// track inserts a record directly, bypassing registration
func (h *harness) track(t *testing.T, channelID int64, address string, mutate func(*models.TrackedServer)) {
	t.Helper()
	srv := models.NewTrackedServer(address, models.ServerTypeJava)
	if mutate != nil {
		mutate(srv)
	}
	require.NoError(t, h.store.Create(channelID, srv))
}

func int64Ptr(v int64) *int64 { return &v }

func onlineResult(players, maxPlayers int) models.StatusResult {
	return models.StatusResult{
		Online:     true,
		Players:    players,
		MaxPlayers: maxPlayers,
		Version:    "1.20.1",
		Latency:    40 * time.Millisecond,
	}
}
