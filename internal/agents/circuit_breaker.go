package agents

import (
	"sync"
	"time"
)

// DefaultCircuitBreakerThreshold is the number of consecutive ping failures
// before an agent's circuit breaker opens.
const DefaultCircuitBreakerThreshold = 2

// CircuitBreaker suppresses status flapping on an agent's health checks. It
// tracks consecutive ping failures and opens once threshold is reached; a
// successful ping resets the failure count but does not auto-close an open
// breaker, so a single good ping after a long outage doesn't immediately
// flip the agent back online.
//
// There is no half-open state: RunHealthChecks closes the breaker itself
// once it observes a success, since agent liveness (unlike the workflow
// failures this pattern was originally built for) doesn't need an operator
// acknowledgment step to resume.
type CircuitBreaker struct {
	mu                  sync.RWMutex
	threshold           int
	consecutiveFailures int
	open                bool
	lastFailureAt       time.Time
}

// NewCircuitBreaker creates a circuit breaker with the given threshold. If
// threshold <= 0, DefaultCircuitBreakerThreshold is used.
func NewCircuitBreaker(threshold int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultCircuitBreakerThreshold
	}
	return &CircuitBreaker{threshold: threshold}
}

// RecordSuccess resets the consecutive failure count. It does not close an
// already-open breaker; call Close for that.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
}

// RecordFailure records a ping failure. Returns true if this failure just
// tripped the breaker open.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureAt = time.Now()

	if cb.consecutiveFailures >= cb.threshold && !cb.open {
		cb.open = true
		return true
	}
	return false
}

// IsOpen reports whether the breaker is tripped.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.open
}

// Close resets the breaker to its initial closed state.
func (cb *CircuitBreaker) Close() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
	cb.open = false
	cb.lastFailureAt = time.Time{}
}

// ConsecutiveFailures returns the current streak of ping failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.consecutiveFailures
}
