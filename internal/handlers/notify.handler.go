package handlers

import (
	"context"
	"errors"

	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/internal/repository"
	"github.com/bizgrid/notification-gateway/internal/services"
	xhttp "github.com/bizgrid/notification-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type DispatchService interface {
	Dispatch(ctx context.Context, req services.DispatchRequest) (*services.DispatchResult, error)
}

type FanoutService interface {
	OnNotificationCreated(ctx context.Context, n *model.Notification) (*services.FanoutResult, error)
}

type TenantService interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Tenant, error)
}

type NotifyHandler struct {
	dispatch DispatchService
	fanout   FanoutService
	tenants  TenantService
}

func RegisterNotifyRoutes(e *router.Group, h *NotifyHandler) {
	e.POST("/notify/dispatch-sms", h.DispatchSMS)
	e.POST("/notify/on-created", h.OnNotificationCreated)
}

func NewNotifyHandler(dispatch DispatchService, fanout FanoutService, tenants TenantService) *NotifyHandler {
	return &NotifyHandler{
		dispatch: dispatch,
		fanout:   fanout,
		tenants:  tenants,
	}
}

type dispatchSMSRequest struct {
	UserID         int64  `json:"user_id"`
	Phone          string `json:"phone"`
	Message        string `json:"message"`
	NotificationID *int64 `json:"notification_id"`
}

type dispatchSMSResponse struct {
	Success          bool   `json:"success"`
	Status           string `json:"status"`
	GatewayMessageID string `json:"gateway_message_id,omitempty"`
}

type onCreatedRequest struct {
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

type onCreatedResponse struct {
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *NotifyHandler) DispatchSMS(ctx *xhttp.RequestCtx) {
	var req dispatchSMSRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == 0 {
		writeError(ctx, xhttp.StatusBadRequest, "user_id is required")
		return
	}
	if req.Message == "" {
		writeError(ctx, xhttp.StatusBadRequest, "message is required")
		return
	}

	tenant, err := h.tenants.GetByUserID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			writeError(ctx, xhttp.StatusBadRequest, "no tenant profile for user")
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	phone := req.Phone
	if phone == "" {
		phone = tenant.Phone
	}
	if phone == "" {
		writeError(ctx, xhttp.StatusBadRequest, "phone is required")
		return
	}

	res, err := h.dispatch.Dispatch(ctx, services.DispatchRequest{
		TenantID:       tenant.ID,
		Phone:          phone,
		Body:           req.Message,
		NotificationID: req.NotificationID,
	})
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	if res.Status == model.DeliveryNoCredits {
		writeJSON(ctx, xhttp.StatusForbidden, map[string]any{
			"success": false,
			"status":  string(model.DeliveryNoCredits),
			"error":   "monthly SMS credits exhausted",
		})
		return
	}

	writeJSON(ctx, xhttp.StatusOK, dispatchSMSResponse{
		Success:          res.Success,
		Status:           string(res.Status),
		GatewayMessageID: res.GatewayMessageID,
	})
}

func (h *NotifyHandler) OnNotificationCreated(ctx *xhttp.RequestCtx) {
	var req onCreatedRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.NotificationID == 0 || req.UserID == 0 {
		writeError(ctx, xhttp.StatusBadRequest, "notification_id and user_id are required")
		return
	}
	if req.Message == "" {
		writeError(ctx, xhttp.StatusBadRequest, "message is required")
		return
	}

	res, err := h.fanout.OnNotificationCreated(ctx, &model.Notification{
		ID:      req.NotificationID,
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	resp := onCreatedResponse{Skipped: res.Skipped, Reason: res.Reason}
	if res.Dispatch != nil {
		resp.Success = res.Dispatch.Success
		resp.Status = string(res.Dispatch.Status)
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}
