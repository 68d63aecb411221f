package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/routing"
)

var keysValuesFor string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the routing vocabulary",
	Long: `Keys lists every directory key rules can reference. With --values, the
closed value domain of one key is listed instead.`,
	Args: cobra.NoArgs,
	RunE: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().StringVar(&keysValuesFor, "values", "", "list the value domain of this key")
}

func runKeys(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if keysValuesFor != "" {
		values, err := routing.ListValues(dir.Key(keysValuesFor))
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintln(out, v.String())
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKIND\tCATEGORY\tDESCRIPTION")
	for _, key := range routing.ListKeys() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, key.Kind(), key.Category(), key.Description())
	}
	return w.Flush()
}
