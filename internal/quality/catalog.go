package quality

import (
	"fmt"

	"vigil/internal/config"
	"vigil/pkg/cel"
)

// Catalog is the validated, ordered set of rules for one deployment.
// Order is declaration order: datasets appear in first-rule order and
// rules keep their declared position within a dataset.
type Catalog struct {
	rules []Rule
}

// NewCatalog validates every rule and rejects duplicate (dataset, name)
// pairs. A nil evaluator skips expression compilation, which only tests
// without CEL rules should do.
func NewCatalog(rules []Rule, evaluator *cel.Evaluator) (*Catalog, error) {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if err := validateRule(rule, evaluator); err != nil {
			return nil, err
		}
		if seen[rule.Key()] {
			return nil, fmt.Errorf("duplicate rule %s", rule.Key())
		}
		seen[rule.Key()] = true
	}
	return &Catalog{rules: rules}, nil
}

// BuildCatalog assembles the runtime catalog: built-in defaults, then
// config overrides, then custom rules, then the optional dataset filter.
func BuildCatalog(cfg config.ChecksConfig, evaluator *cel.Evaluator) (*Catalog, error) {
	rules := DefaultRules()

	for _, override := range cfg.Overrides {
		applied, err := applyOverride(rules, override)
		if err != nil {
			return nil, err
		}
		rules = applied
	}

	for _, custom := range cfg.Custom {
		rules = append(rules, Rule{
			Dataset: custom.Dataset,
			Name:    custom.Name,
			Kind:    RuleKind(custom.Kind),
			Params: RuleParams{
				Column:     custom.Column,
				Columns:    custom.Columns,
				Allowed:    custom.Values,
				CeilingPct: custom.Ceiling,
				Expression: custom.Expression,
			},
			Details: custom.Details,
		})
	}

	if len(cfg.Datasets) > 0 {
		keep := make(map[string]bool, len(cfg.Datasets))
		for _, name := range cfg.Datasets {
			keep[name] = true
		}
		filtered := rules[:0]
		for _, rule := range rules {
			if keep[rule.Dataset] {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}

	return NewCatalog(rules, evaluator)
}

func applyOverride(rules []Rule, override config.RuleOverride) ([]Rule, error) {
	matched := false
	out := rules[:0]
	for _, rule := range rules {
		if rule.Name != override.Name || (override.Dataset != "" && rule.Dataset != override.Dataset) {
			out = append(out, rule)
			continue
		}
		matched = true

		if override.Disabled {
			continue
		}
		if override.Ceiling != nil {
			if rule.Kind != KindMaxMissingPct {
				return nil, fmt.Errorf("override %s sets a ceiling but %s is a %s rule", override.Name, rule.Key(), rule.Kind)
			}
			rule.Params.CeilingPct = *override.Ceiling
		}
		if len(override.Values) > 0 {
			if rule.Kind != KindAllowedValues {
				return nil, fmt.Errorf("override %s sets allowed values but %s is a %s rule", override.Name, rule.Key(), rule.Kind)
			}
			rule.Params.Allowed = override.Values
		}
		out = append(out, rule)
	}

	if !matched {
		return nil, fmt.Errorf("override %s matches no catalog rule", override.Name)
	}
	return out, nil
}

func validateRule(rule Rule, evaluator *cel.Evaluator) error {
	if rule.Dataset == "" {
		return fmt.Errorf("rule %q has no dataset", rule.Name)
	}
	if rule.Name == "" {
		return fmt.Errorf("rule on dataset %q has no name", rule.Dataset)
	}

	switch rule.Kind {
	case KindRowCount:
		return nil
	case KindNotNull, KindUnique:
		if rule.Params.Column == "" {
			return fmt.Errorf("rule %s: %s rules require a column", rule.Key(), rule.Kind)
		}
	case KindAllowedValues:
		if rule.Params.Column == "" {
			return fmt.Errorf("rule %s: allowed_values rules require a column", rule.Key())
		}
		if len(rule.Params.Allowed) == 0 {
			return fmt.Errorf("rule %s: allowed_values rules require at least one value", rule.Key())
		}
	case KindMaxMissingPct:
		if rule.Params.Column == "" && rule.Params.Expression == "" {
			return fmt.Errorf("rule %s: max_missing_pct rules require a column or an expression", rule.Key())
		}
		if rule.Params.CeilingPct < 0 || rule.Params.CeilingPct > 100 {
			return fmt.Errorf("rule %s: ceiling must be between 0 and 100, got %v", rule.Key(), rule.Params.CeilingPct)
		}
		if rule.Params.Expression != "" {
			return validateExpressionParams(rule, evaluator)
		}
	case KindExpression:
		if rule.Params.Expression == "" {
			return fmt.Errorf("rule %s: expression rules require an expression", rule.Key())
		}
		if len(rule.Params.Columns) == 0 {
			return fmt.Errorf("rule %s: expression rules require the participating columns", rule.Key())
		}
		return validateExpressionParams(rule, evaluator)
	default:
		return fmt.Errorf("rule %s: unknown kind %q", rule.Key(), rule.Kind)
	}

	return nil
}

func validateExpressionParams(rule Rule, evaluator *cel.Evaluator) error {
	if evaluator == nil {
		return nil
	}
	if err := evaluator.ValidateViolationExpression(rule.Params.Expression); err != nil {
		return fmt.Errorf("rule %s: %w", rule.Key(), err)
	}
	return nil
}

// Rules returns every rule in declared order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// RulesFor returns the rules of the named datasets in declared order.
// An empty selection means the whole catalog.
func (c *Catalog) RulesFor(datasets []string) []Rule {
	if len(datasets) == 0 {
		return c.Rules()
	}

	keep := make(map[string]bool, len(datasets))
	for _, name := range datasets {
		keep[name] = true
	}

	var out []Rule
	for _, rule := range c.rules {
		if keep[rule.Dataset] {
			out = append(out, rule)
		}
	}
	return out
}

// Datasets returns the distinct dataset names in first-appearance order.
func (c *Catalog) Datasets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rule := range c.rules {
		if !seen[rule.Dataset] {
			seen[rule.Dataset] = true
			out = append(out, rule.Dataset)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.rules)
}
