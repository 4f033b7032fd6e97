// Package queue carries report events over RabbitMQ.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedEvent = errors.New("malformed event")

// ReportCreatedEvent is a snapshot of a report taken right after it was stored.
type ReportCreatedEvent struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

func (e ReportCreatedEvent) Validate() error {
	if e.ID == 0 {
		return fmt.Errorf("%w: id must be positive", ErrMalformedEvent)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrMalformedEvent)
	}
	return nil
}

// DecodeReportCreated parses and validates a delivery body.
func DecodeReportCreated(body []byte) (ReportCreatedEvent, error) {
	var ev ReportCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return ev, ev.Validate()
}
