package cache

import (
	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/logger"
)

// Initialize initializes the cache system
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache", "enabled", cfg.Cache.Enabled)
	return NewInMemoryCache(cfg)
}
