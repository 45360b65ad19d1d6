package simrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
)

// ErrNotFound is returned when SIMRS answers 404.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx answer from SIMRS.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("simrs http %d", e.Code)
}

// Client calls the hospital information system REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL and API key.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "simrs").Logger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     l,
	}
}

// UseRedisCache configures Redis caching for doctor lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit limits outgoing requests to perSecond with the given burst.
func (c *Client) UseRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// FetchQueueStatus reads the live queue of a doctor at a clinic on date (YYYY-MM-DD).
// Queue status is never cached.
func (c *Client) FetchQueueStatus(ctx context.Context, doctorCode, clinicCode, date string) (*model.QueueStatus, error) {
	endpoint := fmt.Sprintf("%s/appointments/queue-status/%s/%s/%s",
		c.baseURL, url.PathEscape(doctorCode), url.PathEscape(clinicCode), url.PathEscape(date))

	var wire queueStatusWire
	if err := c.doGet(ctx, endpoint, &wire); err != nil {
		return nil, fmt.Errorf("queue status %s/%s/%s: %w", doctorCode, clinicCode, date, err)
	}
	qs := wire.toModel(doctorCode, clinicCode, date)
	return &qs, nil
}

// GetDoctor returns a doctor with the weekly schedule.
func (c *Client) GetDoctor(ctx context.Context, code string) (*model.Doctor, error) {
	endpoint := fmt.Sprintf("%s/doctors/%s", c.baseURL, url.PathEscape(code))
	cacheKey := "doctor:" + code

	var doc model.Doctor
	if c.readCache(ctx, cacheKey, &doc) {
		metrics.IncDoctorCache("hit")
		return &doc, nil
	}
	metrics.IncDoctorCache("miss")

	var wire doctorWire
	if err := c.doGet(ctx, endpoint, &wire); err != nil {
		return nil, fmt.Errorf("doctor %s: %w", code, err)
	}
	doc = wire.toModel(c.logger)
	c.writeCache(ctx, cacheKey, doc)
	return &doc, nil
}

// ListDoctors returns every doctor known to SIMRS.
func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	endpoint := c.baseURL + "/doctors"
	cacheKey := "doctors"

	var docs []model.Doctor
	if c.readCache(ctx, cacheKey, &docs) {
		metrics.IncDoctorCache("hit")
		return docs, nil
	}
	metrics.IncDoctorCache("miss")

	var wrap struct {
		Doctors []doctorWire `json:"doctors"`
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	docs = make([]model.Doctor, 0, len(wrap.Doctors))
	for _, w := range wrap.Doctors {
		docs = append(docs, w.toModel(c.logger))
	}
	c.writeCache(ctx, cacheKey, docs)
	return docs, nil
}

// HealthCheck checks if SIMRS is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.doGet(ctx, c.baseURL+"/health", nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
