package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/store/cache"
	"go.uber.org/zap"
)

const (
	BalanceActive        = "ACTIVE"
	BalanceNotConfigured = "N/A"

	balanceCacheKey = "runpod:balance"
)

// BalanceService turns the provider's account balance into a display string.
// Every failure is masked as BalanceActive.
type BalanceService struct {
	reporter llm.BalanceReporter
	cache    cache.CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewBalanceService accepts a nil reporter (no credentials) and a nil cache.
func NewBalanceService(reporter llm.BalanceReporter, c cache.CacheService, ttl time.Duration, logger *zap.Logger) *BalanceService {
	return &BalanceService{reporter: reporter, cache: c, ttl: ttl, logger: logger}
}

func (s *BalanceService) Balance(ctx context.Context) string {
	if s.reporter == nil {
		return BalanceNotConfigured
	}

	if s.cache != nil {
		var cached string
		if err := s.cache.Get(ctx, balanceCacheKey, &cached); err == nil && cached != "" {
			return cached
		}
	}

	amount, err := s.reporter.Balance(ctx)
	if err != nil {
		s.logger.Warn("Balance lookup failed, masking", zap.Error(err))
		return BalanceActive
	}
	if amount == 0 {
		return BalanceActive
	}

	display := fmt.Sprintf("$%.2f", amount)
	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, balanceCacheKey, display, s.ttl); err != nil {
			s.logger.Debug("Balance cache write failed", zap.Error(err))
		}
	}

	return display
}
