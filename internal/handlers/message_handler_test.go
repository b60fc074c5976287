package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bizgrid/notification-gateway/internal/model"
	xhttp "github.com/bizgrid/notification-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockMessageLogService struct {
	mock.Mock
}

func (m *MockMessageLogService) ListMessageLog(ctx context.Context, f model.MessageLogFilter) ([]*model.MessageLogEntry, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.MessageLogEntry), args.Get(1).(int64), args.Error(2)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestMessageHandler_ListMessages(t *testing.T) {
	t.Run("successful list", func(t *testing.T) {
		svc := new(MockMessageLogService)
		handler := NewMessageHandler(svc)

		entries := []*model.MessageLogEntry{
			{ID: 1, TenantID: 1, Phone: "+15550001", Status: model.DeliverySent},
			{ID: 2, TenantID: 1, Phone: "+15550001", Status: model.DeliveryFailed},
		}

		svc.On("ListMessageLog", mock.Anything, mock.MatchedBy(func(f model.MessageLogFilter) bool {
			return f.TenantID != nil && *f.TenantID == 1 && f.Limit == 10
		})).Return(entries, int64(2), nil)

		ctx := setupTestContext("GET", "/messages?tenant_id=1&limit=10&offset=0", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response listResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(2), response.Total)
		assert.Len(t, response.Items, 2)

		svc.AssertExpectations(t)
	})

	t.Run("status filter accepts a comma list", func(t *testing.T) {
		svc := new(MockMessageLogService)
		handler := NewMessageHandler(svc)

		svc.On("ListMessageLog", mock.Anything, mock.MatchedBy(func(f model.MessageLogFilter) bool {
			return len(f.Statuses) == 2 &&
				f.Statuses[0] == model.DeliverySent &&
				f.Statuses[1] == model.DeliveryNoCredits
		})).Return([]*model.MessageLogEntry{}, int64(0), nil)

		ctx := setupTestContext("GET", "/messages?status=sent,no_credits", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("list with time range", func(t *testing.T) {
		svc := new(MockMessageLogService)
		handler := NewMessageHandler(svc)

		svc.On("ListMessageLog", mock.Anything, mock.MatchedBy(func(f model.MessageLogFilter) bool {
			return f.From != nil && f.To != nil
		})).Return([]*model.MessageLogEntry{}, int64(0), nil)

		ctx := setupTestContext("GET", "/messages?from=2026-08-01&to=2026-08-31", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("list with desc order", func(t *testing.T) {
		svc := new(MockMessageLogService)
		handler := NewMessageHandler(svc)

		svc.On("ListMessageLog", mock.Anything, mock.MatchedBy(func(f model.MessageLogFilter) bool {
			return f.Desc == true
		})).Return([]*model.MessageLogEntry{}, int64(0), nil)

		ctx := setupTestContext("GET", "/messages?order=desc", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(MockMessageLogService)
		handler := NewMessageHandler(svc)

		svc.On("ListMessageLog", mock.Anything, mock.Anything).
			Return(nil, int64(0), errors.New("database error"))

		ctx := setupTestContext("GET", "/messages", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())

		var response map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, "database error", response["error"])

		svc.AssertExpectations(t)
	})
}

func TestHelperFunctions(t *testing.T) {
	t.Run("readJSON", func(t *testing.T) {
		data := map[string]string{"key": "value"}
		bodyBytes, _ := json.Marshal(data)
		ctx := setupTestContext("POST", "/", bodyBytes)

		var result map[string]string
		err := readJSON(ctx, &result)
		require.NoError(t, err)
		assert.Equal(t, "value", result["key"])
	})

	t.Run("writeJSON", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		data := map[string]string{"message": "test"}

		writeJSON(ctx, 200, data)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Header.Peek("Content-Type")), "application/json")

		var result map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &result)
		require.NoError(t, err)
		assert.Equal(t, "test", result["message"])
	})

	t.Run("writeError", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeError(ctx, 404, "not found")

		assert.Equal(t, 404, ctx.Response.StatusCode())

		var result map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &result)
		require.NoError(t, err)
		assert.Equal(t, "not found", result["error"])
	})

	t.Run("parseTime RFC3339", func(t *testing.T) {
		parsed, err := parseTime("2026-08-01T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, 2026, parsed.Year())
	})

	t.Run("parseTime date only", func(t *testing.T) {
		parsed, err := parseTime("2026-08-01")
		require.NoError(t, err)
		assert.Equal(t, 2026, parsed.Year())
		assert.Equal(t, time.Month(8), parsed.Month())
		assert.Equal(t, 1, parsed.Day())
	})

	t.Run("parseTime invalid", func(t *testing.T) {
		_, err := parseTime("invalid")
		assert.Error(t, err)
	})
}
