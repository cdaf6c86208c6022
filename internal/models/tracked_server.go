package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ServerType represents the Minecraft edition a tracked server speaks
type ServerType string

const (
	ServerTypeJava    ServerType = "java"
	ServerTypeBedrock ServerType = "bedrock"
)

// Valid reports whether t is a known server type
func (t ServerType) Valid() bool {
	return t == ServerTypeJava || t == ServerTypeBedrock
}

// DefaultPort returns the game port assumed when an address carries none
func (t ServerType) DefaultPort() int {
	if t == ServerTypeBedrock {
		return 19132
	}
	return 25565
}

// ServerStatus represents the last observed state of a server
type ServerStatus string

const (
	StatusUnknown ServerStatus = "unknown"
	StatusOnline  ServerStatus = "online"
	StatusOffline ServerStatus = "offline"
)

// PresenceDisplayMode controls how a server is labelled in the bot presence
type PresenceDisplayMode string

const (
	DisplayPlayers PresenceDisplayMode = "players"
	DisplayAddress PresenceDisplayMode = "ip"
)

// DefaultRemoteConsolePort is the vanilla rcon.port default
const DefaultRemoteConsolePort = 25575

var (
	ErrInvalidAddress = errors.New("invalid server address")
	ErrInvalidPort    = errors.New("invalid port in server address")
)

// RemoteConsole holds RCON credentials for a tracked server
type RemoteConsole struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host,omitempty"` // Overrides the address host
	Port         int    `json:"port,omitempty"`
	Password     string `json:"password,omitempty"`
	LogChannelID *int64 `json:"log_channel,omitempty"`

	// PasswordSealed is the at-rest form of Password when STORE_SECRET is set.
	// It stays populated in memory only when it could not be opened on load.
	PasswordSealed string `json:"password_sealed,omitempty"`
}

// Usable reports whether the console can be dialed. Enabled alone is not enough,
// port and password must both be present.
func (rc *RemoteConsole) Usable() bool {
	return rc != nil && rc.Enabled && rc.Port > 0 && rc.Password != ""
}

// TrackedServer binds one chat channel to one game server
type TrackedServer struct {
	Address             string              `json:"address"`
	Type                ServerType          `json:"type"`
	ShowPlayerList      bool                `json:"players"`
	StatusMessageID     *int64              `json:"message"`
	LastStatus          ServerStatus        `json:"last_status"`
	ShowInPresence      bool                `json:"show_in_status"`
	PresenceDisplayMode PresenceDisplayMode `json:"display_in_status"`
	RenameChannel       bool                `json:"rename_channel"`
	RemoteConsole       *RemoteConsole      `json:"rcon,omitempty"`
}

// UnmarshalJSON fills the defaults older store files omit
func (s *TrackedServer) UnmarshalJSON(data []byte) error {
	type plain TrackedServer
	decoded := plain{
		Type:                ServerTypeJava,
		LastStatus:          StatusUnknown,
		PresenceDisplayMode: DisplayPlayers,
		RenameChannel:       true,
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.LastStatus == "" {
		decoded.LastStatus = StatusUnknown
	}
	if decoded.PresenceDisplayMode == "" {
		decoded.PresenceDisplayMode = DisplayPlayers
	}
	if decoded.Type == "" {
		decoded.Type = ServerTypeJava
	}
	if rc := decoded.RemoteConsole; rc != nil && rc.Enabled && rc.Port == 0 {
		rc.Port = DefaultRemoteConsolePort
	}
	*s = TrackedServer(decoded)
	return nil
}

// NewTrackedServer returns a record with registration defaults
func NewTrackedServer(address string, serverType ServerType) *TrackedServer {
	return &TrackedServer{
		Address:             address,
		Type:                serverType,
		LastStatus:          StatusUnknown,
		PresenceDisplayMode: DisplayPlayers,
		RenameChannel:       true,
		RemoteConsole:       &RemoteConsole{Enabled: false},
	}
}

// Clone returns a deep copy so callers can read outside the store lock
func (s *TrackedServer) Clone() *TrackedServer {
	if s == nil {
		return nil
	}
	out := *s
	if s.StatusMessageID != nil {
		id := *s.StatusMessageID
		out.StatusMessageID = &id
	}
	if s.RemoteConsole != nil {
		rc := *s.RemoteConsole
		if rc.LogChannelID != nil {
			id := *rc.LogChannelID
			rc.LogChannelID = &id
		}
		out.RemoteConsole = &rc
	}
	return &out
}

// Host returns the address without its port
func (s *TrackedServer) Host() string {
	host, _, err := SplitHostPort(s.Address)
	if err != nil {
		return s.Address
	}
	return host
}

// DisplayAddress drops the port when it equals the edition default
func (s *TrackedServer) DisplayAddress() string {
	host, port, err := SplitHostPort(s.Address)
	if err != nil || port != s.Type.DefaultPort() {
		return s.Address
	}
	return host
}

// ChannelSlug is the channel name encoding address and state, e.g. mc-play.example.com-25565-online.
// Lowercase, because Discord stores text channel names that way.
func (s *TrackedServer) ChannelSlug(online bool) string {
	state := "offline"
	if online {
		state = "online"
	}
	return fmt.Sprintf("mc-%s-%s", strings.ToLower(strings.ReplaceAll(s.Address, ":", "-")), state)
}

// ParseAddress normalizes user input to host:port, adding the edition default port
func ParseAddress(raw string, serverType ServerType) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidAddress
	}

	if !strings.Contains(raw, ":") {
		return net.JoinHostPort(raw, strconv.Itoa(serverType.DefaultPort())), nil
	}

	host, port, err := SplitHostPort(raw)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// SplitHostPort splits host:port and validates the port
func SplitHostPort(address string) (string, int, error) {
	host, portText, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidPort, portText)
	}
	return host, port, nil
}
