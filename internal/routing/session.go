// Package routing is the boundary of the decision core. A Session holds
// the seeded knowledge graph and exchange-rate snapshot and exposes the
// operations callers use: seeding, connector elimination, program
// analysis, program evaluation, vocabulary introspection, rule parsing,
// and currency conversion.
package routing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/backend"
	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/dssa"
	"github.com/meridianpay/switchyard/internal/forex"
	"github.com/meridianpay/switchyard/internal/kgraph"
	"github.com/meridianpay/switchyard/internal/types"
)

// seedData is the immutable payload installed by a successful SeedGraph.
type seedData struct {
	graph      *cgraph.Graph
	connectors []dir.ConnectorChoice
}

// Session is the shared handle for one knowledge session, typically one
// merchant configuration load per process. Both cells seed exactly once:
// a second seed attempt is rejected and the first snapshot stays
// authoritative, since a stale snapshot silently replacing a fresh one
// would misroute live traffic. Seeding races are resolved by
// compare-and-swap, so concurrent seeders cannot both win. All read
// paths are safe for concurrent use.
type Session struct {
	seed  atomic.Pointer[seedData]
	rates atomic.Pointer[forex.ExchangeRates]
	log   *slog.Logger
}

// NewSession creates an unseeded session. A nil logger disables logging.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{log: logger}
}

// SeedGraph builds the combined knowledge graph from the fixed domain
// facts and the merchant's connector configuration and installs it.
// Construction errors (bad configuration, contradictory facts) leave the
// session unseeded so a corrected configuration can retry.
func (s *Session) SeedGraph(connectors []kgraph.MerchantConnector, filters kgraph.FilterSet) error {
	truth, err := kgraph.TruthGraph()
	if err != nil {
		return fmt.Errorf("building domain facts: %w", err)
	}
	overlay, err := kgraph.MerchantGraph(connectors, filters)
	if err != nil {
		return fmt.Errorf("building merchant overlay: %w", err)
	}
	combined, err := cgraph.Combine(truth, overlay)
	if err != nil {
		return fmt.Errorf("combining graphs: %w", err)
	}

	data := &seedData{graph: combined}
	for _, mc := range connectors {
		if mc.Disabled {
			continue
		}
		data.connectors = append(data.connectors, mc.Choice())
	}

	if !s.seed.CompareAndSwap(nil, data) {
		return types.ErrAlreadySeeded
	}
	s.log.Info("knowledge graph seeded", "connectors", len(data.connectors))
	return nil
}

// SeedExchangeRates installs the exchange-rate snapshot, once.
func (s *Session) SeedExchangeRates(rates *forex.ExchangeRates) error {
	if rates == nil {
		return fmt.Errorf("seeding exchange rates: nil table")
	}
	if !s.rates.CompareAndSwap(nil, rates) {
		return types.ErrAlreadySeeded
	}
	s.log.Info("exchange rates seeded", "base", rates.Base, "currencies", len(rates.Rates))
	return nil
}

// seeded returns the installed graph payload or ErrNotSeeded.
func (s *Session) seeded() (*seedData, error) {
	data := s.seed.Load()
	if data == nil {
		return nil, types.ErrNotSeeded
	}
	return data, nil
}

// Connectors returns the enabled connector accounts captured at seeding.
func (s *Session) Connectors() ([]dir.ConnectorChoice, error) {
	data, err := s.seeded()
	if err != nil {
		return nil, err
	}
	out := make([]dir.ConnectorChoice, len(data.connectors))
	copy(out, data.connectors)
	return out, nil
}

// ValidConnectorsForRule eliminates connector candidates a rule can never
// route to. Every expanded context of the rule's guard is validated
// standalone first, which catches authoring errors independent of
// connector availability; then each still-live candidate is pushed onto
// the context and checked. A candidate invalidated by any context stays
// eliminated for the rest of the rule. Candidate analysis failures are
// set removal, not errors. A nil candidate list means the merchant's
// configured connectors.
func (s *Session) ValidConnectorsForRule(rule ast.Rule[ast.ConnectorSelection], candidates []dir.ConnectorChoice) ([]dir.ConnectorChoice, error) {
	data, err := s.seeded()
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = data.connectors
	}

	lowered, err := ast.LowerRule(rule)
	if err != nil {
		return nil, err
	}
	if n := lowered.Guard.OrLeafCount(); n > types.MaxDisjunctExpansion {
		return nil, fmt.Errorf("rule %q: %w: guard expands to %d disjuncts", rule.Name, types.ErrExpansionTooLarge, n)
	}

	invalid := make(map[dir.ConnectorChoice]struct{})
	memo := cgraph.NewMemoization()
	machine := dssa.NewExpansionMachine(lowered.Guard)

	for {
		ctx, ok := machine.Advance()
		if !ok {
			break
		}
		if err := data.graph.PerformContextAnalysis(ctx.Values(), memo, cgraph.ScopeComplete); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}

		for _, cand := range candidates {
			if _, dead := invalid[cand]; dead {
				continue
			}
			probe := cgraph.Assertion{Value: dir.NewConnectorValue(cand)}
			err := ctx.WithPushed(probe, func() error {
				return data.graph.PerformContextAnalysis(ctx.Values(), memo, cgraph.ScopeComplete)
			})
			if err == nil {
				continue
			}
			var analysisErr *cgraph.AnalysisError
			if errors.As(err, &analysisErr) {
				s.log.Debug("connector eliminated", "rule", rule.Name, "connector", cand.String(), "reason", analysisErr.Error())
				invalid[cand] = struct{}{}
				continue
			}
			return nil, fmt.Errorf("rule %q: checking connector %s: %w", rule.Name, cand, err)
		}
	}

	valid := make([]dir.ConnectorChoice, 0, len(candidates))
	for _, cand := range candidates {
		if _, dead := invalid[cand]; !dead {
			valid = append(valid, cand)
		}
	}
	return valid, nil
}

// AnalyzeProgram validates a program before deployment. With a seeded
// graph every expanded context is checked against the knowledge base;
// unseeded sessions still get the structural checks.
func (s *Session) AnalyzeProgram(program ast.Program[ast.ConnectorSelection]) error {
	var graph *cgraph.Graph
	if data := s.seed.Load(); data != nil {
		graph = data.graph
	}
	return dssa.Analyze(program, graph)
}

// RunProgram evaluates a program against one payment input. Evaluation
// needs no graph, so it works on an unseeded session.
func (s *Session) RunProgram(program ast.Program[ast.ConnectorSelection], input backend.Input) (backend.Output[ast.ConnectorSelection], error) {
	interp, err := backend.NewInterpreter(program)
	if err != nil {
		return backend.Output[ast.ConnectorSelection]{}, err
	}
	return interp.Execute(input)
}

// ConvertCurrency converts a minor-unit amount through the seeded rate
// table.
func (s *Session) ConvertCurrency(from, to string, minorAmount int64) (int64, error) {
	return forex.Convert(s.rates.Load(), from, to, minorAmount)
}

// ListKeys returns the directory key vocabulary in stable order.
func ListKeys() []dir.Key {
	return dir.Keys()
}

// ListValues returns the closed value domain of a key: variant values
// for enum keys, the known connector set for the connector key. Keys
// with open domains (text, number, metadata) have no listable values.
func ListValues(key dir.Key) ([]dir.Value, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKey, string(key))
	}
	switch key.Kind() {
	case dir.KindEnum:
		variants, err := dir.Variants(key)
		if err != nil {
			return nil, err
		}
		out := make([]dir.Value, 0, len(variants))
		for _, variant := range variants {
			v, err := dir.NewEnumValue(key, variant)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case dir.KindConnector:
		connectors := dir.Connectors()
		out := make([]dir.Value, 0, len(connectors))
		for _, c := range connectors {
			out = append(out, dir.NewConnectorValue(dir.ConnectorChoice{Connector: c}))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrKeyHasNoVariants, key)
	}
}

// ParseRuleText parses the textual rule notation into a rule value.
func ParseRuleText(text string) (ast.Rule[ast.ConnectorSelection], error) {
	return ast.ParseRule(text)
}
