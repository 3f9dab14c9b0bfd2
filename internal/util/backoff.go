package util

import (
	"math"
	"time"
)

// CalculateExponentialBackoff returns baseDelay * 2^(attempt-1) capped at
// maxDelay, spread by +/- jitterPercent/2 so retries don't line up
func CalculateExponentialBackoff(attempt int, baseDelay time.Duration, maxDelay time.Duration, jitterPercent float64) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := math.Min(float64(baseDelay)*math.Pow(2, float64(attempt-1)), float64(maxDelay))

	if jitterPercent > 0 {
		// time based pseudo random is plenty for spreading retries
		pseudoRandom := float64(time.Now().UnixNano()%1000) / 1000.0
		backoff += backoff * jitterPercent * (pseudoRandom - 0.5)
	}

	return time.Duration(backoff)
}
