package engine

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/predictivelabs/trader/internal/broker"
	"github.com/predictivelabs/trader/internal/predictor"
	"github.com/predictivelabs/trader/internal/quote"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BrokerKind selects the gateway implementation.
type BrokerKind string

const (
	BrokerKindBinance BrokerKind = "binance"
	BrokerKindSession BrokerKind = "session"
)

// Config is the engine's complete runtime configuration.
type Config struct {
	Symbol      string  `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Ticker symbol to trade"`
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" validate:"gt=0" jsonschema:"title=Initial Cash,description=Starting cash in USD,minimum=0"`

	// PredictionInterval is the fixed cadence of mandatory re-predictions. A
	// met price target pulls the next prediction forward to now.
	PredictionInterval types.Duration `yaml:"prediction_interval" json:"prediction_interval" validate:"gt=0" jsonschema:"title=Prediction Interval"`
	// PollInterval is the sleep between cycles during trading hours.
	PollInterval types.Duration `yaml:"poll_interval" json:"poll_interval" validate:"gt=0" jsonschema:"title=Poll Interval"`
	// AfterHoursInterval is the sleep between cycles while the market is closed.
	AfterHoursInterval types.Duration `yaml:"after_hours_interval" json:"after_hours_interval" validate:"gt=0" jsonschema:"title=After Hours Interval"`

	LogDir string `yaml:"log_dir" json:"log_dir" jsonschema:"title=Log Directory,description=Directory for daily log files"`

	Broker  BrokerKind                     `yaml:"broker" json:"broker" validate:"required,oneof=binance session" jsonschema:"title=Broker"`
	Binance *broker.BinanceGatewayConfig   `yaml:"binance,omitempty" json:"binance,omitempty" jsonschema:"title=Binance Gateway"`
	Session *broker.SessionGatewayConfig   `yaml:"session,omitempty" json:"session,omitempty" jsonschema:"title=Session Gateway"`
	Polygon *quote.PolygonFeederConfig     `yaml:"polygon,omitempty" json:"polygon,omitempty" jsonschema:"title=Polygon Quote Stream"`
	Model   predictor.ONNXPredictorConfig  `yaml:"model" json:"model" jsonschema:"title=Prediction Model"`

	// QuoteMaxAge bounds how stale a streamed quote snapshot may be before
	// price reads fall back to the broker. Only used when Polygon is set.
	QuoteMaxAge types.Duration `yaml:"quote_max_age" json:"quote_max_age" jsonschema:"title=Quote Max Age"`
}

// DefaultConfig returns a config with the loop cadence defaults filled in.
func DefaultConfig() Config {
	return Config{
		InitialCash:        1000,
		PredictionInterval: types.Duration(10 * time.Minute),
		PollInterval:       types.Duration(15 * time.Second),
		AfterHoursInterval: types.Duration(5 * time.Minute),
		LogDir:             "logs",
		QuoteMaxAge:        types.Duration(30 * time.Second),
	}
}

// ParseConfig unmarshals and validates a YAML config, applying defaults for
// anything unset.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the config, including the section matching the selected
// broker.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	switch c.Broker {
	case BrokerKindBinance:
		if c.Binance == nil {
			return errors.New(errors.ErrCodeInvalidConfiguration, "broker is binance but no binance section is set")
		}

		if err := validate.Struct(c.Binance); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance config", err)
		}
	case BrokerKindSession:
		if c.Session == nil {
			return errors.New(errors.ErrCodeInvalidConfiguration, "broker is session but no session section is set")
		}

		if err := validate.Struct(c.Session); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session config", err)
		}
	}

	if c.Polygon != nil {
		if err := validate.Struct(c.Polygon); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid polygon config", err)
		}
	}

	if err := validate.Struct(c.Model); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid model config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "trader-config"
	schema.Description = "Configuration schema for the trading engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates an indented JSON schema string for the config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}
