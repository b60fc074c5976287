package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/bizgrid/notification-gateway/internal/model"
	"github.com/bizgrid/notification-gateway/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-sourced setting used by the notification core.
// Only this struct must be used to hold configuration values, no direct
// access to env, ini or any other config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	AppName  string `env:"APP_NAME" default:"notification_gateway"`
	AppDebug bool   `env:"APP_DEBUG" default:"1"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	QueueName              string        `env:"QUEUE_NAME" default:"notifications:created"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP" default:"fanout"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ"`

	// SMS gateway credentials. The gateway authenticates with an account
	// username plus API key carried in the form-encoded request body.
	GatewayURL      string `env:"SMS_GATEWAY_URL"`
	GatewayUsername string `env:"SMS_GATEWAY_USERNAME"`
	GatewayAPIKey   string `env:"SMS_GATEWAY_API_KEY"`

	// Monthly SMS credit allocation per subscription plan.
	PlanCreditsFreeTrial int `env:"PLAN_CREDITS_FREE_TRIAL" default:"10"`
	PlanCreditsBasic     int `env:"PLAN_CREDITS_BASIC" default:"50"`
	PlanCreditsStandard  int `env:"PLAN_CREDITS_STANDARD" default:"200"`
	PlanCreditsPro       int `env:"PLAN_CREDITS_PRO" default:"500"`
}

// PlanDefaults maps each subscription plan to its monthly credit allocation.
// The map is injected into the ledger service so nothing below the config
// layer reads ambient process state.
func (c *Config) PlanDefaults() map[model.SubscriptionPlan]int {
	return map[model.SubscriptionPlan]int{
		model.PlanFreeTrial: c.PlanCreditsFreeTrial,
		model.PlanBasic:     c.PlanCreditsBasic,
		model.PlanStandard:  c.PlanCreditsStandard,
		model.PlanPro:       c.PlanCreditsPro,
	}
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
