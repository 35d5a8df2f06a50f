package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeVerificationCreated = "verification.created"
	EventTypeRequestRejected     = "request.rejected"
)

// VerificationCreatedEvent carries a fresh one-time code to its target address.
type VerificationCreatedEvent struct {
	BaseEvent
	Target    string    `json:"target"`
	Kind      string    `json:"kind"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewVerificationCreatedEvent(target, kind, code string, expiresAt time.Time) *VerificationCreatedEvent {
	return &VerificationCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeVerificationCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"target":     target,
				"kind":       kind,
				"expires_at": expiresAt,
			},
		},
		Target:    target,
		Kind:      kind,
		Code:      code,
		ExpiresAt: expiresAt,
	}
}

type RequestRejectedEvent struct {
	BaseEvent
	RequestType    string `json:"request_type"`
	RequestID      int64  `json:"request_id"`
	SerialNumber   string `json:"serial_number"`
	RequesterEmail string `json:"requester_email"`
	Reason         string `json:"reason"`
}

func NewRequestRejectedEvent(requestType string, requestID int64, serialNumber, requesterEmail, reason string) *RequestRejectedEvent {
	return &RequestRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_type":  requestType,
				"request_id":    requestID,
				"serial_number": serialNumber,
				"reason":        reason,
			},
		},
		RequestType:    requestType,
		RequestID:      requestID,
		SerialNumber:   serialNumber,
		RequesterEmail: requesterEmail,
		Reason:         reason,
	}
}
