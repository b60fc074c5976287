package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Per-recipient response codes the gateway wire format uses.
const (
	CodeAccepted       = 101
	CodeInvalidNumber  = 211
	CodeBlocked        = 212
	CodeOperatorError  = 213
	CodeInvalidContent = 214
	CodeAuthFailed     = 401
)

// recipientResponse is one element of the gateway response envelope.
type recipientResponse struct {
	ResponseCode int    `json:"response_code"`
	MessageID    string `json:"message_id"`
	Description  string `json:"response_description"`
	Mobile       string `json:"mobile"`
}

type sendEnvelope struct {
	Responses []recipientResponse `json:"responses"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	OperatorID   string    `json:"operator_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockOperator simulates the upstream SMS gateway
type MockOperator struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	operatorID   string
	apiKey       string
	rng          *rand.Rand
}

// NewMockOperator creates a new mock operator instance
func NewMockOperator(deliveryRate float64, minDelay, maxDelay time.Duration, apiKey string) *MockOperator {
	return &MockOperator{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		operatorID:   "MOCK_OPERATOR_" + uuid.New().String()[:8],
		apiKey:       apiKey,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulateDelivery decides the outcome of one recipient send
func (m *MockOperator) simulateDelivery(mobile string) recipientResponse {
	// Simulate network delay
	time.Sleep(m.randomDelay())

	response := recipientResponse{
		Mobile:    mobile,
		MessageID: uuid.New().String(),
	}

	if m.shouldSucceed() {
		response.ResponseCode = CodeAccepted
		response.Description = "accepted for delivery"

		log.Info().
			Str("message_id", response.MessageID).
			Str("mobile", mobile).
			Msg("SMS accepted")
	} else {
		response.ResponseCode = m.randomErrorCode()
		response.Description = m.errorMessage(response.ResponseCode)
		response.MessageID = ""

		log.Warn().
			Str("mobile", mobile).
			Int("response_code", response.ResponseCode).
			Msg("SMS rejected")
	}

	return response
}

func (m *MockOperator) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockOperator) shouldSucceed() bool {
	return m.rng.Float64() < m.deliveryRate
}

func (m *MockOperator) randomErrorCode() int {
	errorCodes := []int{
		CodeInvalidNumber,
		CodeBlocked,
		CodeOperatorError,
		CodeInvalidContent,
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockOperator) errorMessage(code int) string {
	descriptions := map[int]string{
		CodeInvalidNumber:  "The phone number is invalid or not in service",
		CodeBlocked:        "The recipient has blocked messages",
		CodeOperatorError:  "Operator rejected the message",
		CodeInvalidContent: "Message content violates operator policies",
		CodeAuthFailed:     "Invalid username or api key",
	}

	if msg, ok := descriptions[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock operator and routes
type Handler struct {
	operator *MockOperator
}

func NewHandler(operator *MockOperator) *Handler {
	return &Handler{operator: operator}
}

// SendSMS handles the form-encoded send endpoint
func (h *Handler) SendSMS(c *gin.Context) {
	apiKey := c.PostForm("api_key")
	mobile := c.PostForm("mobile")
	message := c.PostForm("message")

	if mobile == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "mobile and message are required",
		})
		return
	}

	if h.operator.apiKey != "" && apiKey != h.operator.apiKey {
		c.JSON(http.StatusOK, sendEnvelope{
			Responses: []recipientResponse{{
				ResponseCode: CodeAuthFailed,
				Description:  h.operator.errorMessage(CodeAuthFailed),
				Mobile:       mobile,
			}},
		})
		return
	}

	log.Info().
		Str("username", c.PostForm("username")).
		Str("mobile", mobile).
		Int("length", len(message)).
		Msg("Received SMS send request")

	response := h.operator.simulateDelivery(mobile)

	c.JSON(http.StatusOK, sendEnvelope{
		Responses: []recipientResponse{response},
	})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.operator.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Operator temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		OperatorID:   h.operator.operatorID,
		Timestamp:    time.Now(),
		DeliveryRate: h.operator.deliveryRate,
	})
}

// UpdateConfig allows changing operator configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.DeliveryRate != nil {
		if *config.DeliveryRate >= 0 && *config.DeliveryRate <= 1.0 {
			h.operator.deliveryRate = *config.DeliveryRate
			log.Info().Float64("rate", *config.DeliveryRate).Msg("Updated delivery rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.operator.deliveryRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	router.POST("/send", handler.SendSMS)
	router.PUT("/config", handler.UpdateConfig)
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	apiKey := getEnv("API_KEY", "")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock SMS Gateway")

	// Create mock operator
	operator := NewMockOperator(deliveryRate, minDelay, maxDelay, apiKey)
	handler := NewHandler(operator)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
