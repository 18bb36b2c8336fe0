package config

import "time"

const (
	// PageSize is the number of presentations shown per dashboard page.
	PageSize = 12

	// MaxTitleLength bounds presentation titles.
	MaxTitleLength = 200

	// MaxDescriptionLength bounds presentation descriptions.
	MaxDescriptionLength = 500

	// MinNameLength and MaxNameLength bound the display name at registration.
	MinNameLength = 2
	MaxNameLength = 50

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// MaxUploadSize is the largest source document accepted for generation.
	MaxUploadSize = 10 << 20

	// MinDuration and MaxDuration bound the talk length in minutes.
	MinDuration = 5
	MaxDuration = 60

	// SimulatedSlideCount is the deck size the offline progress simulator pretends to build.
	SimulatedSlideCount = 15
)

const (
	DefaultAutosaveDelay     = time.Second
	DefaultReconnectAttempts = 3
	DefaultReconnectDelay    = time.Second
	DefaultHTTPTimeout       = 30 * time.Second

	// SimulatorTick is the interval between simulated progress steps.
	SimulatorTick = time.Second

	// CompletionRedirectDelay is the pause on the complete view before opening the editor.
	CompletionRedirectDelay = 2 * time.Second

	// SecondsPerPercent drives the remaining-time estimate.
	SecondsPerPercent = 2

	// ExportPollInterval paces export status polling.
	ExportPollInterval = 2 * time.Second
)
