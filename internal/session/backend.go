package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/campusdesk/student-portal/internal/config"
)

// Open builds the backend selected by SESSION_BACKEND.
func Open(cfg config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		return OpenRedisStore(cfg.Redis, cfg.Session.TTL(), logger), nil
	case config.SessionBackendMemory:
		logger.Warn("using in-memory page state; state is lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
