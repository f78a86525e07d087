package module

import (
	"time"

	"cibscope/internal/platform/config"
)

// Options holds configuration settings for the scan module
type Options struct {
	Workers int

	// Embedding provider; empty EmbedBaseURL disables the semantic stage
	EmbedBaseURL string
	EmbedModel   string
	EmbedAPIKey  string
	EmbedBatch   int

	// Vector cache; Redis is used when available, else in-process
	CacheTTL time.Duration
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("SCAN_")
	return Options{
		Workers:      sc.MayInt("WORKERS", 4),
		EmbedBaseURL: sc.MayString("EMBED_URL", ""),
		EmbedModel:   sc.MayString("EMBED_MODEL", "all-minilm"),
		EmbedAPIKey:  sc.MayString("EMBED_API_KEY", ""),
		EmbedBatch:   sc.MayInt("EMBED_BATCH", 16),
		CacheTTL:     time.Duration(sc.MayInt("CACHE_TTL_S", 86400)) * time.Second,
	}
}
