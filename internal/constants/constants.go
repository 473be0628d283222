package constants

import "time"

// Boolean string values
const (
	BoolTrue  = "true"
	BoolFalse = "false"
	BoolYes   = "yes"
	BoolNo    = "no"
	BoolOne   = "1"
	BoolZero  = "0"
)

// Search and theme defaults
const (
	DefaultSearchLimit      = 3
	DefaultSearchCandidates = 100
	DefaultThemeLimit       = 5
	DefaultQueryCacheSize   = 256
	DefaultReindexWorkers   = 4
)

// Embedding defaults
const (
	DefaultEmbeddingModel      = "text-embedding-ada-002"
	DefaultVectorDimensions    = 1536
	DefaultEmbeddingTimeout    = 15 * time.Second
	BytesPerFloat32            = 4
	EmbeddingProviderOpenAI    = "openai"
	EmbeddingProviderHash      = "hash"
	DefaultEmbeddingProviderID = EmbeddingProviderOpenAI
)

// Client behaviour
const (
	SearchDebounce = 200 * time.Millisecond
	EditDebounce   = 300 * time.Millisecond
	MinFontSize    = 14.0
	MaxFontSize    = 28.0
	FontScaleChars = 100
)

// Display
const (
	PreviewLength = 80
)

// File permissions
const (
	ConfigFileMode = 0600 // Secure file permissions for config
)
