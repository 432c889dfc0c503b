package session

import "errors"

// Sentinel errors for the device connection lifecycle, matching the error
// kinds the BLE session can surface.
var (
	ErrAlreadyConnected      = errors.New("session: already connected")
	ErrNotConnected          = errors.New("session: not connected")
	ErrMissingService        = errors.New("session: device does not advertise the expected service")
	ErrMissingCharacteristic = errors.New("session: service is missing an expected characteristic")
)
