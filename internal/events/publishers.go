package events

import "strconv"

func channelKey(channelID int64) string {
	return strconv.FormatInt(channelID, 10)
}

// PublishServerRegistered publishes a server registered event
func PublishServerRegistered(channelID int64, userID, address, serverType string) {
	GetEventBus().Publish(Event{
		Type:      EventServerRegistered,
		Source:    "tracker",
		ChannelID: channelKey(channelID),
		UserID:    userID,
		Data: map[string]interface{}{
			"address": address,
			"type":    serverType,
		},
	})
}

// PublishServerUpdated publishes a settings change made from the settings view
func PublishServerUpdated(channelID int64, userID, change string) {
	GetEventBus().Publish(Event{
		Type:      EventServerUpdated,
		Source:    "tracker",
		ChannelID: channelKey(channelID),
		UserID:    userID,
		Data: map[string]interface{}{
			"change": change,
		},
	})
}

// PublishServerRemoved publishes an untracking, either explicit or because the channel vanished
func PublishServerRemoved(channelID int64, userID, address, reason string) {
	GetEventBus().Publish(Event{
		Type:      EventServerRemoved,
		Source:    "reconciler",
		ChannelID: channelKey(channelID),
		UserID:    userID,
		Data: map[string]interface{}{
			"address": address,
			"reason":  reason,
		},
	})
}

// PublishStatusChanged publishes server.online or server.offline
func PublishStatusChanged(channelID int64, address string, online bool, players, maxPlayers int) {
	eventType := EventServerOffline
	if online {
		eventType = EventServerOnline
	}

	GetEventBus().Publish(Event{
		Type:      eventType,
		Source:    "reconciler",
		ChannelID: channelKey(channelID),
		Data: map[string]interface{}{
			"address":     address,
			"players":     players,
			"max_players": maxPlayers,
		},
	})
}

// PublishConsoleCommand publishes a remote console command and its outcome
func PublishConsoleCommand(channelID int64, userID, command string, success bool) {
	GetEventBus().Publish(Event{
		Type:      EventConsoleCommand,
		Source:    "console",
		ChannelID: channelKey(channelID),
		UserID:    userID,
		Data: map[string]interface{}{
			"command": command,
			"success": success,
		},
	})
}
