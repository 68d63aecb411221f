package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/backend"
	"github.com/meridianpay/switchyard/internal/core/config"
	"github.com/meridianpay/switchyard/internal/routing"
)

var (
	routeInput  string
	routeStored string
)

var routeCmd = &cobra.Command{
	Use:   "route [program.yaml]",
	Short: "Evaluate a routing program against one payment input",
	Long: `Route runs the interpreter: rules in order, first matching guard wins,
default selection otherwise. The program comes from a YAML file argument
or, with --stored, from the policy store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().StringVar(&routeInput, "input", "", "payment input JSON file (required)")
	routeCmd.Flags().StringVar(&routeStored, "stored", "", "load the program from the policy store by name")
	routeCmd.MarkFlagRequired("input")
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	program, err := resolveProgram(cfg, args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(routeInput)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	var input backend.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	out, err := routing.NewSession(logger).RunProgram(program, input)
	if err != nil {
		return err
	}

	matched := out.RuleName
	if matched == "" {
		matched = "(default)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rule: %s\nselection: %s\n", matched, renderSelection(out.Value))
	return nil
}

// resolveProgram loads the program from the file argument or the store.
func resolveProgram(cfg *config.Config, args []string) (ast.Program[ast.ConnectorSelection], error) {
	var empty ast.Program[ast.ConnectorSelection]
	switch {
	case routeStored != "" && len(args) > 0:
		return empty, fmt.Errorf("pass either a program file or --stored, not both")
	case routeStored != "":
		st, closeStore, err := openStore(cfg)
		if err != nil {
			return empty, err
		}
		defer closeStore()
		record, err := st.GetProgram(routeStored)
		if err != nil {
			return empty, err
		}
		return record.Program()
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return empty, fmt.Errorf("reading program: %w", err)
		}
		return ast.ParseProgramYAML(data)
	default:
		return empty, fmt.Errorf("pass a program file or --stored <name>")
	}
}

func renderSelection(sel ast.ConnectorSelection) string {
	if sel.IsVolumeSplit() {
		parts := make([]string, 0, len(sel.VolumeSplit))
		for _, vs := range sel.VolumeSplit {
			parts = append(parts, fmt.Sprintf("%s=%d%%", vs.Choice, vs.Split))
		}
		return strings.Join(parts, ", ")
	}
	parts := make([]string, 0, len(sel.Priority))
	for _, choice := range sel.Priority {
		parts = append(parts, choice.String())
	}
	return strings.Join(parts, ", ")
}
