package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	gateway "github.com/bizgrid/notification-gateway/internal/gateways"
	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/bizgrid/notification-gateway/pkg/prom"
)

// MaxSMSLength is the hard limit of the delivery channel, including the
// truncation marker.
const MaxSMSLength = 160

const truncationMarker = "..."

var (
	ErrMissingTenant = errors.New("tenant_id is required")
	ErrMissingPhone  = errors.New("phone is required")
	ErrEmptyBody     = errors.New("message body cannot be empty")
)

type SMSGateway interface {
	Send(ctx context.Context, sr *gateway.SendRequest) (*gateway.SendResponse, error)
}

type MessageLogRepository interface {
	Create(ctx context.Context, entry *model.MessageLogEntry) (*model.MessageLogEntry, error)
	List(ctx context.Context, f model.MessageLogFilter) ([]*model.MessageLogEntry, int64, error)
}

type DispatchRequest struct {
	TenantID       int64
	Phone          string
	Body           string
	NotificationID *int64
}

func (r DispatchRequest) Validate() error {
	if r.TenantID == 0 {
		return ErrMissingTenant
	}
	if r.Phone == "" {
		return ErrMissingPhone
	}
	if r.Body == "" {
		return ErrEmptyBody
	}
	return nil
}

type DispatchResult struct {
	Success          bool
	Status           model.DeliveryStatus
	GatewayMessageID string
	LogEntry         *model.MessageLogEntry
}

// DispatchService performs one send attempt per call: ledger gate,
// truncate, gateway call, exactly one audit row, consume on success.
// Failures are terminal for the attempt; nothing here retries.
type DispatchService struct {
	ledger  *LedgerService
	logRepo MessageLogRepository
	gateway SMSGateway
}

func NewDispatchService(ledger *LedgerService, logRepo MessageLogRepository, gw SMSGateway) *DispatchService {
	return &DispatchService{
		ledger:  ledger,
		logRepo: logRepo,
		gateway: gw,
	}
}

func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.ledger.EnsureMonthlyAllocation(ctx, req.TenantID, time.Now())
	if err != nil {
		return nil, err
	}

	if !s.ledger.HasBalance(entry) {
		// Out of budget is a business outcome, not an error: log the
		// attempt and drop the message. Nothing queues it for later.
		logger.Warn("SMS dropped, monthly credits exhausted",
			"tenant_id", req.TenantID,
			"allocated", entry.CreditsAllocated,
			"used", entry.CreditsUsed)

		return s.finish(ctx, req, req.Body, model.DeliveryNoCredits, nil)
	}

	body := TruncateMessage(req.Body)

	var gatewayMessageID *string
	status := model.DeliveryFailed

	res, err := s.gateway.Send(ctx, &gateway.SendRequest{
		Mobile:  req.Phone,
		Message: body,
	})
	if err != nil {
		// Transport failure and gateway refusal both land on "failed";
		// credits stay untouched either way.
		logger.Error("SMS gateway call failed", "tenant_id", req.TenantID, "error", err)
	} else if res.Accepted {
		status = model.DeliverySent
		if res.MessageID != "" {
			gatewayMessageID = &res.MessageID
		}
	} else {
		logger.Warn("SMS rejected by gateway",
			"tenant_id", req.TenantID,
			"response_code", res.ResponseCode,
			"description", res.Description)
	}

	result, err := s.finish(ctx, req, body, status, gatewayMessageID)
	if err != nil {
		return nil, err
	}

	if status == model.DeliverySent {
		if _, err := s.ledger.Consume(ctx, entry); err != nil {
			// The message already left; an increment failure must not
			// turn a delivered send into an error for the caller.
			logger.Error("failed to consume credit after send",
				"tenant_id", req.TenantID,
				"ledger_entry_id", entry.ID,
				"error", err)
		}
	}

	return result, nil
}

// finish writes the single audit row for this attempt and builds the result.
func (s *DispatchService) finish(ctx context.Context, req DispatchRequest, body string, status model.DeliveryStatus, gatewayMessageID *string) (*DispatchResult, error) {
	logEntry, err := s.logRepo.Create(ctx, &model.MessageLogEntry{
		TenantID:         req.TenantID,
		Phone:            req.Phone,
		Message:          body,
		Status:           status,
		GatewayMessageID: gatewayMessageID,
		NotificationID:   req.NotificationID,
	})
	if err != nil {
		return nil, err
	}

	prom.IncSMSDispatch(string(status))

	result := &DispatchResult{
		Success:  status == model.DeliverySent,
		Status:   status,
		LogEntry: logEntry,
	}
	if gatewayMessageID != nil {
		result.GatewayMessageID = *gatewayMessageID
	}
	return result, nil
}

func (s *DispatchService) ListMessageLog(ctx context.Context, f model.MessageLogFilter) ([]*model.MessageLogEntry, int64, error) {
	return s.logRepo.List(ctx, f)
}

// TruncateMessage caps a body at MaxSMSLength runes total, marking the cut
// with a trailing "...".
func TruncateMessage(body string) string {
	if utf8.RuneCountInString(body) <= MaxSMSLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:MaxSMSLength-len(truncationMarker)]) + truncationMarker
}
