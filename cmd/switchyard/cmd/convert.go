package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/forex"
)

var (
	convertFrom   string
	convertTo     string
	convertAmount int64
	convertRates  string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a minor-unit amount between currencies",
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "source currency code")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "target currency code")
	convertCmd.Flags().Int64Var(&convertAmount, "amount", 0, "amount in minor units")
	convertCmd.Flags().StringVar(&convertRates, "rates", "", "exchange-rate table file")
	convertCmd.MarkFlagRequired("from")
	convertCmd.MarkFlagRequired("to")
	convertCmd.MarkFlagRequired("amount")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rates, err := loadRates(cfg, convertRates)
	if err != nil {
		return err
	}

	from := strings.ToUpper(convertFrom)
	to := strings.ToUpper(convertTo)
	converted, err := forex.Convert(rates, from, to, convertAmount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s = %d %s\n", convertAmount, from, converted, to)
	return nil
}
