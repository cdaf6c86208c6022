package models

import "time"

// StatusResult is the normalized outcome of one status probe.
// Any probe failure yields the zero value with Online=false.
type StatusResult struct {
	Online      bool
	Players     int
	MaxPlayers  int
	PlayerNames []string // Always empty for bedrock
	Version     string
	MOTD        string
	Latency     time.Duration
}

// Offline returns the result reported for unreachable servers
func Offline() StatusResult {
	return StatusResult{}
}

// LatencyMs returns latency rounded to whole milliseconds
func (r StatusResult) LatencyMs() int64 {
	return r.Latency.Round(time.Millisecond).Milliseconds()
}

// Status maps the result onto the persisted status enum
func (r StatusResult) Status() ServerStatus {
	if r.Online {
		return StatusOnline
	}
	return StatusOffline
}
