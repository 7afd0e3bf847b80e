package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrNoSpeech       = errors.New("no speech detected")
	ErrNoVoice        = errors.New("no usable voice in response")
	ErrClipNotLoaded  = errors.New("no clip loaded")
	ErrNotImplemented = errors.New("not implemented")
)
