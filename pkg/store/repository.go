package store

import (
	"fmt"
	"time"
)

// SessionRepository persists completed recording sessions.
type SessionRepository struct {
	db *DB
}

// Sessions returns a repository for recording-session rows.
func (d *DB) Sessions() *SessionRepository { return &SessionRepository{db: d} }

// Create inserts a completed recording session row.
func (r *SessionRepository) Create(s *RecordingSession) error {
	if err := r.db.gorm.Create(s).Error; err != nil {
		return fmt.Errorf("store: create recording session: %w", err)
	}
	return nil
}

// GetRecent returns the most recently created sessions, newest first.
func (r *SessionRepository) GetRecent(limit int) ([]RecordingSession, error) {
	var sessions []RecordingSession
	if err := r.db.gorm.Order("created_at desc").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("store: list recent sessions: %w", err)
	}
	return sessions, nil
}

// DeviceRepository persists discovered-device rows, deduplicated by
// address.
type DeviceRepository struct {
	db *DB
}

// Devices returns a repository for discovered-device rows.
func (d *DB) Devices() *DeviceRepository { return &DeviceRepository{db: d} }

// Upsert records a device sighting: insert a new row keyed by address, or
// touch LastSeen on an existing one.
func (r *DeviceRepository) Upsert(address, fullName, model string, deviceID int) error {
	var existing DiscoveredDevice
	err := r.db.gorm.Where("address = ?", address).First(&existing).Error
	if err == nil {
		existing.LastSeen = time.Now()
		if err := r.db.gorm.Save(&existing).Error; err != nil {
			return fmt.Errorf("store: update discovered device: %w", err)
		}
		return nil
	}

	device := DiscoveredDevice{
		Address:  address,
		FullName: fullName,
		Model:    model,
		DeviceID: deviceID,
	}
	if err := r.db.gorm.Create(&device).Error; err != nil {
		return fmt.Errorf("store: create discovered device: %w", err)
	}
	return nil
}

// GetAll returns every discovered device, most recently seen first.
func (r *DeviceRepository) GetAll() ([]DiscoveredDevice, error) {
	var devices []DiscoveredDevice
	if err := r.db.gorm.Order("last_seen desc").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("store: list discovered devices: %w", err)
	}
	return devices, nil
}
