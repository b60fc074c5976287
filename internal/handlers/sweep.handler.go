package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/bizgrid/notification-gateway/internal/services"
	xhttp "github.com/bizgrid/notification-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type ReminderService interface {
	RunMonthlyReminderSweep(ctx context.Context, now time.Time) (*services.ReminderSummary, error)
}

type WatchdogService interface {
	RunStaleLinkSweep(ctx context.Context, now time.Time) (*services.WatchdogSummary, error)
}

type SweepHandler struct {
	reminders ReminderService
	watchdog  WatchdogService
	lock      *services.SweepLock
}

func RegisterSweepRoutes(e *router.Group, h *SweepHandler) {
	e.POST("/reminders/sweep", h.RunReminderSweep)
	e.POST("/links/watchdog", h.RunLinkWatchdog)
}

func NewSweepHandler(reminders ReminderService, watchdog WatchdogService, lock *services.SweepLock) *SweepHandler {
	return &SweepHandler{
		reminders: reminders,
		watchdog:  watchdog,
		lock:      lock,
	}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *SweepHandler) RunReminderSweep(ctx *xhttp.RequestCtx) {
	release, err := h.lock.Acquire("billing_reminder")
	if err != nil {
		if errors.Is(err, services.ErrSweepAlreadyRunning) {
			writeJSON(ctx, xhttp.StatusOK, map[string]string{"message": "sweep already running"})
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}
	defer release()

	summary, err := h.reminders.RunMonthlyReminderSweep(ctx, time.Now())
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}

func (h *SweepHandler) RunLinkWatchdog(ctx *xhttp.RequestCtx) {
	release, err := h.lock.Acquire("stale_links")
	if err != nil {
		if errors.Is(err, services.ErrSweepAlreadyRunning) {
			writeJSON(ctx, xhttp.StatusOK, map[string]string{"message": "sweep already running"})
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}
	defer release()

	summary, err := h.watchdog.RunStaleLinkSweep(ctx, time.Now())
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}
