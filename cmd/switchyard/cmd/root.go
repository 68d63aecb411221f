package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/core/config"
	"github.com/meridianpay/switchyard/internal/core/db"
	"github.com/meridianpay/switchyard/internal/core/store"
	"github.com/meridianpay/switchyard/internal/forex"
	"github.com/meridianpay/switchyard/internal/kgraph"
	"github.com/meridianpay/switchyard/internal/routing"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "switchyard",
	Short: "Switchyard payment routing decision core",
	Long:  `Switchyard evaluates merchant routing policies and eliminates payment connectors a rule can never route to.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves configuration with persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

// openStore connects to the policy store. The caller owns the returned
// close function.
func openStore(cfg *config.Config) (*store.Store, func() error, error) {
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("loading queries: %w", err)
	}
	return store.New(queries), conn.Close, nil
}

// loadMerchantSnapshot resolves the merchant connector snapshot: an
// explicit file path wins, otherwise the latest stored snapshot is used
// when a store is available.
func loadMerchantSnapshot(cfg *config.Config, path string, st *store.Store) ([]kgraph.MerchantConnector, kgraph.FilterSet, error) {
	if path == "" {
		path = cfg.MerchantSnapshot
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, kgraph.FilterSet{}, fmt.Errorf("reading merchant snapshot: %w", err)
		}
		return kgraph.ParseSnapshotYAML(data)
	}
	if st == nil {
		return nil, kgraph.FilterSet{}, fmt.Errorf("no merchant snapshot: pass --merchants or configure merchant_snapshot")
	}
	record, err := st.LatestSnapshot()
	if err != nil {
		return nil, kgraph.FilterSet{}, err
	}
	return record.Snapshot()
}

// seededSession builds a routing session seeded from a merchant snapshot.
func seededSession(logger *slog.Logger, connectors []kgraph.MerchantConnector, filters kgraph.FilterSet) (*routing.Session, error) {
	session := routing.NewSession(logger)
	if err := session.SeedGraph(connectors, filters); err != nil {
		return nil, fmt.Errorf("seeding knowledge graph: %w", err)
	}
	return session, nil
}

// loadRates reads an exchange-rate table document.
func loadRates(cfg *config.Config, path string) (*forex.ExchangeRates, error) {
	if path == "" {
		path = cfg.RatesFile
	}
	if path == "" {
		return nil, fmt.Errorf("no rate table: pass --rates or configure rates_file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rate table: %w", err)
	}
	return forex.ParseRatesYAML(data)
}
