// Package wire provides dependency injection for the lotledger application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	cliadapter "github.com/example/lotledger/internal/adapters/cli"
	"github.com/example/lotledger/internal/adapters/ledger"
	"github.com/example/lotledger/internal/adapters/memory"
	"github.com/example/lotledger/internal/adapters/postgres"
	"github.com/example/lotledger/internal/adapters/sqlite"
	"github.com/example/lotledger/internal/app"
	"github.com/example/lotledger/internal/config"
	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

var (
	loadOptions config.LoadOptions

	cfg             *config.Config
	logger          *log.Logger
	registry        *prometheus.Registry
	ledgerMetrics   *metrics.Metrics
	database        *sql.DB
	trackingService primary.TrackingService
	registryService primary.RegistryService
	sequenceService primary.SequenceService
	splitService    primary.SplitService
	movementService primary.MovementService
	receiptService  primary.ReceiptService
	lineageService  primary.LineageService
	once            sync.Once
)

// Configure sets where configuration is loaded from. It must be called
// before the first service is requested.
func Configure(opts config.LoadOptions) {
	loadOptions = opts
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the application logger.
func Logger() *log.Logger {
	once.Do(initServices)
	return logger
}

// Gatherer returns the registry holding the ledger metrics.
func Gatherer() prometheus.Gatherer {
	once.Do(initServices)
	return registry
}

// TrackingService returns the singleton TrackingService instance.
func TrackingService() primary.TrackingService {
	once.Do(initServices)
	return trackingService
}

// RegistryService returns the singleton RegistryService instance.
func RegistryService() primary.RegistryService {
	once.Do(initServices)
	return registryService
}

// SequenceService returns the singleton SequenceService instance.
func SequenceService() primary.SequenceService {
	once.Do(initServices)
	return sequenceService
}

// SplitService returns the singleton SplitService instance.
func SplitService() primary.SplitService {
	once.Do(initServices)
	return splitService
}

// MovementService returns the singleton MovementService instance.
func MovementService() primary.MovementService {
	once.Do(initServices)
	return movementService
}

// ReceiptService returns the singleton ReceiptService instance.
func ReceiptService() primary.ReceiptService {
	once.Do(initServices)
	return receiptService
}

// LineageService returns the singleton LineageService instance.
func LineageService() primary.LineageService {
	once.Do(initServices)
	return lineageService
}

// DB returns the SQL database, or nil for the memory driver.
func DB() *sql.DB {
	once.Do(initServices)
	return database
}

// Close releases the database connection if one was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, _, err = config.Load(loadOptions)
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}

	level, _ := cfg.LogLevel()
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "lotledger", Level: level})

	registry = prometheus.NewRegistry()
	ledgerMetrics = metrics.New(registry)

	tx, err := openTransactor(cfg)
	if err != nil {
		logger.Fatal("failed to initialize store", "driver", cfg.Store.Driver, "err", err)
	}

	hooks := app.Hooks{
		Ledger: ledger.NewLogLedger(os.Stderr, level),
		Stock:  ledger.NewStockLog(os.Stderr, level),
	}
	buildServices(tx, hooks)
}

func buildServices(tx secondary.Transactor, hooks app.Hooks) {
	sequence := app.NewSequenceService(tx, cfg.Lot.Prefix, logger.WithPrefix("sequence"), ledgerMetrics)
	splits := app.NewSplitService(tx, hooks, logger.WithPrefix("split"), ledgerMetrics, cfg.Split.MaxSuffixAttempts)

	trackingService = app.NewTrackingService()
	registryService = app.NewRegistryService(tx, ledgerMetrics)
	sequenceService = sequence
	splitService = splits
	movementService = app.NewMovementService(tx, splits, hooks, logger.WithPrefix("movement"), ledgerMetrics)
	receiptService = app.NewReceiptService(tx, sequence, hooks, logger.WithPrefix("receipt"), ledgerMetrics)
	lineageService = app.NewLineageService(tx)
}

func openTransactor(c *config.Config) (secondary.Transactor, error) {
	switch c.Store.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverPostgres:
		var err error
		database, err = postgres.Open(context.Background(), c.Store.DSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewTransactor(database, c.Store.TxTimeout), nil
	default:
		var err error
		database, err = db.Open(c.Store.Path, c.Store.BusyTimeoutMS)
		if err != nil {
			return nil, err
		}
		return sqlite.NewTransactor(database, c.Store.TxTimeout), nil
	}
}

// ItemAdapter returns a new ItemAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ItemAdapter() *cliadapter.ItemAdapter {
	return ItemAdapterWithOutput(os.Stdout)
}

// ItemAdapterWithOutput returns a new ItemAdapter writing to the given output.
func ItemAdapterWithOutput(out io.Writer) *cliadapter.ItemAdapter {
	once.Do(initServices)
	return cliadapter.NewItemAdapter(cliadapter.Services{
		Receipts: receiptService,
		Moves:    movementService,
		Splits:   splitService,
		Lineage:  lineageService,
		Sequence: sequenceService,
	}, Retry, out)
}
