package handlers

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/saiset-co/sai-handle/types"
)

const (
	defaultRequestsPerSecond = 100
	defaultBurst             = 20
)

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	Wait              bool    `json:"wait"`
}

// RateLimit admits traversals of the rest of the chain through a token
// bucket shared by every context it is loaded into. Rejected traversals
// resolve to reject(ErrRateLimited) without delegating.
type RateLimit[C, O any] struct {
	next            types.Delegate[C, O]
	logger          types.Logger
	limiter         *rate.Limiter
	reject          func(error) O
	rateLimitConfig *RateLimitConfig
	weight          int
}

func NewRateLimit[C, O any](next types.Delegate[C, O], logger types.Logger, item *types.HandlerItemConfig, reject func(error) O) *RateLimit[C, O] {
	rateLimitConfig := &RateLimitConfig{
		RequestsPerSecond: defaultRequestsPerSecond,
		Burst:             defaultBurst,
	}
	decodeParams(item, rateLimitConfig, logger, "rate_limit")

	if rateLimitConfig.RequestsPerSecond <= 0 || rateLimitConfig.Burst <= 0 {
		if logger != nil {
			logger.Warn("Invalid rate limit params, using defaults",
				zap.Float64("requests_per_second", rateLimitConfig.RequestsPerSecond),
				zap.Int("burst", rateLimitConfig.Burst),
			)
		}
		rateLimitConfig.RequestsPerSecond = defaultRequestsPerSecond
		rateLimitConfig.Burst = defaultBurst
	}

	return &RateLimit[C, O]{
		next:            next,
		logger:          logger,
		limiter:         rate.NewLimiter(rate.Limit(rateLimitConfig.RequestsPerSecond), rateLimitConfig.Burst),
		reject:          reject,
		rateLimitConfig: rateLimitConfig,
		weight:          weightOf(item, 60),
	}
}

func (rl *RateLimit[C, O]) Name() string { return "rate_limit" }
func (rl *RateLimit[C, O]) Weight() int  { return rl.weight }

func (rl *RateLimit[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		if rl.rateLimitConfig.Wait {
			if err := rl.limiter.Wait(ctx); err != nil {
				return rl.rejected(cx, types.WrapError(types.ErrRateLimited, err.Error()))
			}
		} else if !rl.limiter.Allow() {
			return rl.rejected(cx, types.ErrRateLimited)
		}

		return rl.next(cx).Await(ctx)
	})
}

func (rl *RateLimit[C, O]) rejected(cx *C, err error) O {
	rl.logger.Warn("Chain rate limited", zap.String("pass", passOf(cx)), zap.Error(err))

	if rl.reject == nil {
		var zero O
		return zero
	}
	return rl.reject(err)
}
