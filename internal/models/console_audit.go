package models

import (
	"time"
)

// ConsoleAuditEntry records one remote console command issued from chat
type ConsoleAuditEntry struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	ChannelID int64     `gorm:"index;not null" json:"channel_id"`
	Address   string    `gorm:"size:255;not null" json:"address"`
	UserID    string    `gorm:"index;size:64" json:"user_id"`
	Command   string    `gorm:"type:text;not null" json:"command"`
	Result    string    `gorm:"type:text" json:"result"`
	Success   bool      `gorm:"index" json:"success"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name
func (ConsoleAuditEntry) TableName() string {
	return "console_audit_entries"
}
