package middleware

import (
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// WriteLimiter throttles mutating requests per caller. Limiters idle for
// longer than ten minutes are dropped.
type WriteLimiter struct {
	mu       sync.Mutex
	limiters *gocache.Cache
	limit    rate.Limit
	burst    int
}

func NewWriteLimiter(perMinute int) *WriteLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &WriteLimiter{
		limiters: gocache.New(10*time.Minute, 20*time.Minute),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (w *WriteLimiter) get(key string) *rate.Limiter {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v, ok := w.limiters.Get(key); ok {
		w.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(w.limit, w.burst)
	w.limiters.SetDefault(key, l)
	return l
}

// Handler limits POST and PUT requests; reads pass through untouched.
func (w *WriteLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		key := c.IP()
		if caller := principal.FromCtx(c); caller.Registered {
			key = caller.ID.String()
		}
		if !w.get(key).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many requests",
			})
		}
		return c.Next()
	}
}
