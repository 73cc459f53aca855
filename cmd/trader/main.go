package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/predictivelabs/trader/internal/broker"
	"github.com/predictivelabs/trader/internal/engine"
	"github.com/predictivelabs/trader/internal/history"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/predictor"
	"github.com/predictivelabs/trader/internal/quote"
	"github.com/predictivelabs/trader/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runAction loads the configuration, wires the broker, predictor, and
// journal together, and drives the trading loop until quit.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	skipConfirm := cmd.Bool("yes")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	config, err := engine.ParseConfig(data)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewDailyFileLogger(config.LogDir)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	prompter := NewStdinPrompter(os.Stdin, os.Stdout)

	fmt.Println(TitleStyle.Render(fmt.Sprintf("trader: %s via %s, starting cash %.2f",
		config.Symbol, config.Broker, config.InitialCash)))

	if !skipConfirm && !prompter.ConfirmStart() {
		return nil
	}

	gateway, err := buildGateway(ctx, config, appLogger)
	if err != nil {
		return err
	}

	// The streamed quote cache, when configured, serves price reads without a
	// broker round trip; stale entries fall back to the gateway.
	if config.Polygon != nil {
		cache := quote.NewCache()

		feeder, err := quote.NewPolygonFeeder(*config.Polygon, config.Symbol, cache, appLogger)
		if err != nil {
			return err
		}

		if err := feeder.Seed(ctx); err != nil {
			appLogger.Warn("failed to seed quote cache", zap.Error(err))
		}

		go func() {
			if err := feeder.Run(ctx); err != nil && ctx.Err() == nil {
				appLogger.Error("quote stream stopped", zap.Error(err))
			}
		}()

		gateway = quote.WithStreamingQuotes(gateway, cache, config.QuoteMaxAge.Std())
	}

	bars, err := predictor.NewPolygonBars(polygonAPIKey(config))
	if err != nil {
		return err
	}

	pred, err := predictor.NewONNXPredictor(config.Model, bars)
	if err != nil {
		return err
	}
	defer pred.Close()

	journal, err := history.NewJournal(appLogger)
	if err != nil {
		return err
	}
	defer journal.Close()

	if err := journal.Initialize(); err != nil {
		return err
	}

	eng, err := engine.New(config, engine.Deps{
		Gateway:   gateway,
		Predictor: pred,
		Journal:   journal,
		Logger:    appLogger,
		Reporter:  NewConsoleReporter(os.Stdout, engine.NewLogReporter(appLogger)),
		Prompter:  prompter,
	})
	if err != nil {
		return err
	}

	// Ctrl-C requests the summary and quit prompt at the next sleep boundary
	// instead of killing the process mid-cycle.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	go func() {
		for range interrupts {
			eng.Interrupt()
		}
	}()

	return eng.Run(ctx)
}

func buildGateway(ctx context.Context, config engine.Config, appLogger *logger.Logger) (broker.Gateway, error) {
	switch config.Broker {
	case engine.BrokerKindBinance:
		return broker.NewBinanceGateway(*config.Binance, config.Symbol)
	case engine.BrokerKindSession:
		auth := &broker.StaticTokenAuthenticator{Token: os.Getenv("TRADER_SESSION_TOKEN")}

		return broker.NewSessionGateway(ctx, *config.Session, auth, appLogger)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q", config.Broker)
	}
}

// polygonAPIKey prefers the polygon config section, falling back to the
// conventional environment variable.
func polygonAPIKey(config engine.Config) string {
	if config.Polygon != nil && config.Polygon.ApiKey != "" {
		return config.Polygon.ApiKey
	}

	return os.Getenv("POLYGON_API_KEY")
}

// schemaAction prints the JSON schema for the configuration file.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schemaJSON)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "trader",
		Usage: "Automated single-symbol trading loop driven by price predictions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "trader.yaml",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the start confirmation prompt",
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the configuration JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
