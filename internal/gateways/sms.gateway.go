package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrEmptyResponse = errors.New("gateway returned no per-recipient responses")
)

// ResponseCodeSuccess is the gateway's per-recipient code for an accepted
// message. Anything else is a failure.
const ResponseCodeSuccess = 101

const defaultTimeout = 5 * time.Second

// SendRequest is one outbound message for one recipient.
type SendRequest struct {
	Mobile  string
	Message string
}

// SendResponse is the parsed outcome of a send call.
type SendResponse struct {
	Accepted     bool
	ResponseCode int
	MessageID    string
	Description  string
}

// recipientResponse mirrors the gateway's JSON payload; the gateway
// answers with one element per recipient even for single sends.
type recipientResponse struct {
	ResponseCode int    `json:"response_code"`
	MessageID    string `json:"message_id"`
	Description  string `json:"response_description"`
	Mobile       string `json:"mobile"`
}

type sendEnvelope struct {
	Responses []recipientResponse `json:"responses"`
}

type Config struct {
	URL      string
	Username string
	APIKey   string

	// Timeout bounds the whole send call so a scheduled sweep can never
	// hang on the gateway. Zero means defaultTimeout.
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// Client talks to the external SMS gateway. Authentication is an account
// username plus API key in the form-encoded request body. One attempt per
// call; retry policy belongs to the caller and the caller never retries.
type Client struct {
	config *Config
	client *fasthttp.Client
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.URL == "" {
		return nil, errors.New("gateway url is required")
	}
	if config.APIKey == "" {
		return nil, errors.New("gateway api key is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		ReadBufferSize:      config.ReadBufferSize,
		WriteBufferSize:     config.WriteBufferSize,
	}

	logger.Info("SMS gateway client initialized", "url", config.URL, "timeout", config.Timeout)

	return &Client{
		config: config,
		client: httpClient,
	}, nil
}

// Send delivers a single message synchronously. A transport error or a
// malformed payload comes back as error; a parseable gateway refusal comes
// back as Accepted=false with the code, so callers can tell the two apart.
func (c *Client) Send(ctx context.Context, sr *SendRequest) (*SendResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("username", c.config.Username)
	args.Set("api_key", c.config.APIKey)
	args.Set("mobile", sr.Mobile)
	args.Set("message", sr.Message)
	req.SetBody(args.QueryString())

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	start := time.Now()
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	latency := time.Since(start).Milliseconds()

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	var envelope sendEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
	}
	if len(envelope.Responses) == 0 {
		return nil, ErrEmptyResponse
	}

	first := envelope.Responses[0]
	result := &SendResponse{
		Accepted:     first.ResponseCode == ResponseCodeSuccess,
		ResponseCode: first.ResponseCode,
		MessageID:    first.MessageID,
		Description:  first.Description,
	}

	logger.Info("SMS handed to gateway",
		"mobile", sr.Mobile,
		"response_code", first.ResponseCode,
		"accepted", result.Accepted,
		"latency_ms", latency)

	return result, nil
}
