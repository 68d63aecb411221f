package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/core/config"
	"github.com/meridianpay/switchyard/internal/kgraph"
	"github.com/meridianpay/switchyard/internal/routing"
)

var connectorsMerchants string

var connectorsCmd = &cobra.Command{
	Use:   "connectors <rule text>",
	Short: "List connectors a rule can actually route to",
	Long: `Connectors parses one rule in the textual notation, expands its guard,
and eliminates every configured connector account the knowledge graph
proves incompatible with some branch of the rule.

Example rule text:
  us_cards: [stripe, adyen:eu] { payment_method = card & billing_country = US }`,
	Args: cobra.ExactArgs(1),
	RunE: runConnectors,
}

func init() {
	rootCmd.AddCommand(connectorsCmd)
	connectorsCmd.Flags().StringVar(&connectorsMerchants, "merchants", "", "merchant connector snapshot file")
}

func runConnectors(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	rule, err := routing.ParseRuleText(args[0])
	if err != nil {
		return fmt.Errorf("parsing rule: %w", err)
	}

	connectors, filters, err := loadSnapshotForElimination(cfg)
	if err != nil {
		return err
	}
	session, err := seededSession(logger, connectors, filters)
	if err != nil {
		return err
	}

	valid, err := session.ValidConnectorsForRule(rule, nil)
	if err != nil {
		return err
	}

	if len(valid) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no configured connector can serve this rule")
		return nil
	}
	for _, choice := range valid {
		fmt.Fprintln(cmd.OutOrStdout(), choice.String())
	}
	return nil
}

// loadSnapshotForElimination prefers the --merchants file and falls back
// to the latest stored snapshot.
func loadSnapshotForElimination(cfg *config.Config) ([]kgraph.MerchantConnector, kgraph.FilterSet, error) {
	if connectorsMerchants != "" || cfg.MerchantSnapshot != "" {
		return loadMerchantSnapshot(cfg, connectorsMerchants, nil)
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, kgraph.FilterSet{}, err
	}
	defer closeStore()
	return loadMerchantSnapshot(cfg, "", st)
}
