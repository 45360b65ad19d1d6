package bot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ThrottleConfig bounds outgoing Telegram traffic. Queue watches edit their
// message on every poll, so many active chats can exceed the Bot API limits.
type ThrottleConfig struct {
	Rate      float64
	Burst     int
	JitterMin time.Duration
	JitterMax time.Duration
}

// DefaultThrottleConfig stays under the global 30 messages per second limit.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Rate:      20,
		Burst:     30,
		JitterMin: 20 * time.Millisecond,
		JitterMax: 80 * time.Millisecond,
	}
}

// throttledClient delays Send calls through a token bucket with jitter.
// Request (callback answers) is not throttled, Telegram expects those fast.
type throttledClient struct {
	telegramClient
	limiter *rate.Limiter
	cfg     ThrottleConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newThrottledClient(inner telegramClient, cfg ThrottleConfig) *throttledClient {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultThrottleConfig().Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &throttledClient{
		telegramClient: inner,
		limiter:        rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *throttledClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.wait(context.Background()); err != nil {
		return tgbotapi.Message{}, err
	}
	return c.telegramClient.Send(msg)
}

func (c *throttledClient) wait(ctx context.Context) error {
	if d := c.jitter(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *throttledClient) jitter() time.Duration {
	if c.cfg.JitterMax <= c.cfg.JitterMin {
		return c.cfg.JitterMin
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.JitterMin + time.Duration(c.rng.Int63n(int64(c.cfg.JitterMax-c.cfg.JitterMin)))
}
