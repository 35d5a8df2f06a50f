// Package workflow holds the pending, approved and rejected lifecycle shared
// by car-pass, ID and visitor access requests.
package workflow

import (
	"context"
	"log/slog"
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const (
	StatusPending  = requestDatamodel.StatusPending
	StatusApproved = requestDatamodel.StatusApproved
	StatusRejected = requestDatamodel.StatusRejected
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}

const maxReasonLength = 500

// ErrAlreadyDecided reports a decision that lost a race with another one.
var ErrAlreadyDecided = appErrors.NewConflictError("This request was decided in the meantime", appErrors.ErrCodeInvalidStatus)

// EnsurePending refuses to decide a request twice.
func EnsurePending(status string) error {
	if status != StatusPending {
		return appErrors.NewValidationFieldError("status", "This request has already been "+status, appErrors.ErrCodeInvalidStatus)
	}
	return nil
}

func ValidateRejection(reason string) error {
	v := validation.NewValidator()
	v.Field("rejectionReason", reason).Required().MaxLength(maxReasonLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// EnsureVisible hides rows outside the scope as if they did not exist.
func EnsureVisible(scope auth.Scope, requestedByID int64, notFound error) error {
	if !scope.Covers(requestedByID) {
		return notFound
	}
	return nil
}

// EnsureEditable lets owners change their request only while it is pending;
// holders of any-access may edit at every stage.
func EnsureEditable(scope auth.Scope, requestedByID int64, status string, notFound error) error {
	if err := EnsureVisible(scope, requestedByID, notFound); err != nil {
		return err
	}
	if !scope.Any {
		return EnsurePending(status)
	}
	return nil
}

// ActionFor maps an editor intent to the permission action it needs.
func ActionFor(intent string) string {
	switch intent {
	case "add":
		return auth.ActionCreate
	case "delete":
		return auth.ActionDelete
	case "approve", "reject":
		return auth.ActionApprove
	}
	return auth.ActionUpdate
}

type Gatekeeper interface {
	RequireUserWithPermission(r *http.Request, permission string) (int64, error)
	RequireScope(r *http.Request, entity, action string) (auth.Scope, error)
}

// Authorize resolves the scope of the submitted intent. Decisions are only
// ever taken with any-access.
func Authorize(gate Gatekeeper, r *http.Request, entity string) (auth.Scope, error) {
	action := ActionFor(transport.Intent(r))
	if action == auth.ActionApprove {
		userID, err := gate.RequireUserWithPermission(r, entity+":"+action+":"+auth.AccessAny)
		if err != nil {
			return auth.Scope{}, err
		}
		return auth.Scope{UserID: userID, Any: true}, nil
	}
	return gate.RequireScope(r, entity, action)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotifyRejection publishes request.rejected; a failure only loses the email.
func NotifyRejection(ctx context.Context, publisher EventPublisher, logger *slog.Logger, requestType string, id int64, serialNumber, email, reason string) {
	if publisher == nil {
		return
	}
	event := events.NewRequestRejectedEvent(requestType, id, serialNumber, email, reason)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("NotifyRejection: failed to publish event", "request_type", requestType, "serial_number", serialNumber, "error", err)
	}
}
