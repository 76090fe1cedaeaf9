package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SourceRateLimiter enforces the minimum delay each external data source
// imposes between requests. Every adapter owns one limiter; the pipeline is
// sequential, but the mutex keeps the limiter safe if a future caller shares
// an adapter across goroutines.
type SourceRateLimiter struct {
	source          string        // Data source this limiter protects
	minimumDelay    time.Duration // Minimum delay between requests
	lastRequestTime time.Time     // Timestamp of the last request
	mutex           sync.Mutex
	requestCount    int64 // Total number of requests processed
}

// NewSourceRateLimiter creates a rate limiter for the named source.
func NewSourceRateLimiter(source string, minimumDelay time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		source:          source,
		minimumDelay:    minimumDelay,
		lastRequestTime: time.Now().Add(-minimumDelay),
	}
}

// Wait blocks until the source's minimum delay has elapsed since the last
// request, then records the new request.
func (limiter *SourceRateLimiter) Wait() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	elapsedTime := time.Since(limiter.lastRequestTime)
	if elapsedTime < limiter.minimumDelay {
		remainingDelay := limiter.minimumDelay - elapsedTime

		logrus.WithFields(logrus.Fields{
			"component":       "SourceRateLimiter",
			"source":          limiter.source,
			"elapsed_time":    elapsedTime,
			"remaining_delay": remainingDelay,
			"request_count":   limiter.requestCount + 1,
		}).Debug("Enforcing rate limit delay")

		time.Sleep(remainingDelay)
	}

	limiter.lastRequestTime = time.Now()
	limiter.requestCount++
}

// RequestCount returns the total number of requests this limiter has passed.
func (limiter *SourceRateLimiter) RequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}
