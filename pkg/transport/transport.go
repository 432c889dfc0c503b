// Package transport hides the go-ble/ble stack behind a small capability
// interface so the session layer never touches a raw BLE client.
package transport

import (
	"context"
	"fmt"

	"github.com/go-ble/ble"
)

// Link is everything pkg/session needs from a connected BLE peripheral.
// *ble.Client satisfies it without an adapter, since ble.Client is itself
// an interface with a superset of these methods.
type Link interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	Subscribe(c *ble.Characteristic, indicate bool, h ble.NotificationHandler) error
	Unsubscribe(c *ble.Characteristic, indicate bool) error
	CancelConnection() error
}

// Dial connects to the given BLE address and returns a Link.
func Dial(ctx context.Context, addr ble.Addr) (Link, error) {
	cln, err := ble.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return cln, nil
}

// FindCharacteristics locates the data and control characteristics of svc
// by UUID string.
func FindCharacteristics(svc *ble.Service, dataUUID, controlUUID string) (data, control *ble.Characteristic, err error) {
	dataID, err := ble.Parse(dataUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: parse data characteristic uuid: %w", err)
	}
	controlID, err := ble.Parse(controlUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: parse control characteristic uuid: %w", err)
	}

	for _, c := range svc.Characteristics {
		switch {
		case c.UUID.Equal(dataID):
			data = c
		case c.UUID.Equal(controlID):
			control = c
		}
	}
	return data, control, nil
}

// FindService locates a service by UUID string within a discovered
// profile.
func FindService(profile *ble.Profile, serviceUUID string) (*ble.Service, error) {
	id, err := ble.Parse(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("transport: parse service uuid: %w", err)
	}
	for _, s := range profile.Services {
		if s.UUID.Equal(id) {
			return s, nil
		}
	}
	return nil, nil
}
