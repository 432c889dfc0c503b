// Package store persists two ledgers the CSV/EDF recording pipeline itself
// doesn't track: completed recording sessions and devices discovered by the
// scanner, backed by gorm over pure-Go sqlite.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordingSession is one completed recording: the device it came from,
// where its EDF+ file lives, and how long it ran.
type RecordingSession struct {
	ID            uint `gorm:"primarykey"`
	SessionID     string `gorm:"uniqueIndex;size:36"`
	DeviceAddress string `gorm:"index"`
	DeviceModel   string
	ChannelCount  int
	EDFPath       string
	StartedAt     time.Time
	EndedAt       time.Time
	SampleCount   int64
	CreatedAt     time.Time
}

// TableName overrides gorm's pluralization default.
func (RecordingSession) TableName() string { return "recording_sessions" }

// BeforeCreate stamps a fresh session ID and creation time if unset.
func (s *RecordingSession) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	return nil
}

// DiscoveredDevice is one BLE address the scanner has seen, deduplicated
// across scan passes.
type DiscoveredDevice struct {
	ID        uint `gorm:"primarykey"`
	Address   string `gorm:"uniqueIndex;size:64;not null"`
	FullName  string
	Model     string
	DeviceID  int
	FirstSeen time.Time
	LastSeen  time.Time
}

// TableName overrides gorm's pluralization default.
func (DiscoveredDevice) TableName() string { return "discovered_devices" }

// BeforeCreate stamps FirstSeen/LastSeen if unset.
func (d *DiscoveredDevice) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if d.FirstSeen.IsZero() {
		d.FirstSeen = now
	}
	if d.LastSeen.IsZero() {
		d.LastSeen = now
	}
	return nil
}
