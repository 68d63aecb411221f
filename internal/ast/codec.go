package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/meridianpay/switchyard/internal/types"
)

/*
 * YAML program definitions.
 *
 * Programs are authored as YAML documents; guards use the same textual
 * notation as rule text. Example:
 *
 *   default:
 *     priority: [paypal]
 *   metadata:
 *     owner: payments-team
 *   rules:
 *     - name: us-cards
 *       output:
 *         priority: [stripe, adyen]
 *       guard: billing_country = US & payment_method = card
 *     - name: high-value-split
 *       output:
 *         volume_split:
 *           - split: 60
 *             connector: stripe
 *           - split: 40
 *             connector: adyen
 *       guard: payment_amount > 50000
 */

type yamlSplit struct {
	Split     int    `yaml:"split"`
	Connector string `yaml:"connector"`
}

type yamlOutput struct {
	Priority    []string    `yaml:"priority,omitempty"`
	VolumeSplit []yamlSplit `yaml:"volume_split,omitempty"`
}

type yamlRule struct {
	Name   string     `yaml:"name"`
	Output yamlOutput `yaml:"output"`
	Guard  string     `yaml:"guard,omitempty"`
}

type yamlProgram struct {
	Default  yamlOutput        `yaml:"default"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Rules    []yamlRule        `yaml:"rules"`
}

// ParseProgramYAML decodes a YAML program definition. Connector names are
// validated here; guard text is parsed but lowered later.
func ParseProgramYAML(data []byte) (Program[ConnectorSelection], error) {
	var doc yamlProgram
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Program[ConnectorSelection]{}, fmt.Errorf("invalid program document: %w", err)
	}

	defaultOut, err := decodeOutput(doc.Default)
	if err != nil {
		return Program[ConnectorSelection]{}, fmt.Errorf("default output: %w", err)
	}

	program := Program[ConnectorSelection]{
		DefaultOutput: defaultOut,
		Metadata:      types.Metadata(doc.Metadata),
	}
	for _, yr := range doc.Rules {
		out, err := decodeOutput(yr.Output)
		if err != nil {
			return Program[ConnectorSelection]{}, fmt.Errorf("rule %q: %w", yr.Name, err)
		}
		rule := Rule[ConnectorSelection]{Name: yr.Name, Output: out}
		if yr.Guard != "" {
			expr, err := ParseExpr(yr.Guard)
			if err != nil {
				return Program[ConnectorSelection]{}, fmt.Errorf("rule %q: %w", yr.Name, err)
			}
			rule.Guard = &expr
		}
		program.Rules = append(program.Rules, rule)
	}
	return program, nil
}

// MarshalProgramYAML encodes a program back into the YAML authoring format.
func MarshalProgramYAML(p Program[ConnectorSelection]) ([]byte, error) {
	doc := yamlProgram{
		Default:  encodeOutput(p.DefaultOutput),
		Metadata: map[string]string(p.Metadata),
	}
	for _, rule := range p.Rules {
		yr := yamlRule{Name: rule.Name, Output: encodeOutput(rule.Output)}
		if rule.Guard != nil {
			yr.Guard = SerializeExpr(*rule.Guard)
		}
		doc.Rules = append(doc.Rules, yr)
	}
	return yaml.Marshal(doc)
}

func decodeOutput(out yamlOutput) (ConnectorSelection, error) {
	if len(out.Priority) > 0 && len(out.VolumeSplit) > 0 {
		return ConnectorSelection{}, fmt.Errorf("output declares both priority and volume_split")
	}

	var selection ConnectorSelection
	for _, name := range out.Priority {
		choice, err := ParseConnectorChoice(name)
		if err != nil {
			return ConnectorSelection{}, err
		}
		selection.Priority = append(selection.Priority, choice)
	}

	total := 0
	for _, split := range out.VolumeSplit {
		choice, err := ParseConnectorChoice(split.Connector)
		if err != nil {
			return ConnectorSelection{}, err
		}
		if split.Split <= 0 || split.Split > 100 {
			return ConnectorSelection{}, fmt.Errorf("split %d out of range (1-100)", split.Split)
		}
		total += split.Split
		selection.VolumeSplit = append(selection.VolumeSplit, VolumeSplit{Split: split.Split, Choice: choice})
	}
	if len(out.VolumeSplit) > 0 && total != 100 {
		return ConnectorSelection{}, fmt.Errorf("volume split percentages sum to %d, want 100", total)
	}

	if len(selection.Priority) == 0 && len(selection.VolumeSplit) == 0 {
		return ConnectorSelection{}, fmt.Errorf("output declares no connectors")
	}
	return selection, nil
}

func encodeOutput(selection ConnectorSelection) yamlOutput {
	var out yamlOutput
	for _, choice := range selection.Priority {
		out.Priority = append(out.Priority, choice.String())
	}
	for _, split := range selection.VolumeSplit {
		out.VolumeSplit = append(out.VolumeSplit, yamlSplit{Split: split.Split, Connector: split.Choice.String()})
	}
	return out
}
