package glasspane

import "errors"

var (
	// ErrDeviceUnavailable indicates that no GPU device could be created.
	// NewApp logs it and renders on the CPU instead.
	ErrDeviceUnavailable = errors.New("glasspane: gpu device unavailable")

	// ErrAppExists is returned by NewApp while another App is open.
	ErrAppExists = errors.New("glasspane: an App is already open")

	// ErrInvalidSettings is returned by Settings.Validate.
	ErrInvalidSettings = errors.New("glasspane: invalid settings")

	// ErrClosed is returned by operations on a closed App.
	ErrClosed = errors.New("glasspane: app closed")
)
