package engine

import "fmt"

// DefaultMaxEvents caps the number of payloads in one command. A full
// organization bootstrap stays well under it.
const DefaultMaxEvents = 10000

// checkQuota rejects commands with more payloads than limit.
func checkQuota(correlationID string, n, limit int) error {
	if limit > 0 && n > limit {
		return &CommandError{
			Code:          ErrCodeQuotaExceeded,
			Message:       fmt.Sprintf("command has %d events, limit is %d", n, limit),
			CorrelationID: correlationID,
		}
	}
	return nil
}
