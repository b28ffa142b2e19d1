package validate

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
)

// Rule is one CEL validation rule. The expression must evaluate to a bool;
// a false result raises an issue with the rule's severity and message.
//
// Expressions see four variables:
//
//   - id (string): the node id
//   - record_type (string): the entity type ("type" collides with CEL's
//     built-in identifier and cannot be declared)
//   - properties (map<string, dyn>): the source record's properties
//   - dependencies (list<string>): ids the node depends on for ordering
//
// Example:
//
//	validate.Rule{
//		Name:       "sense-has-gloss",
//		Expression: `"gloss" in properties && properties["gloss"] != ""`,
//		Severity:   validate.SeverityCritical,
//		Message:    "sense is missing its gloss",
//	}
type Rule struct {
	// Name identifies the rule in logs and error messages.
	Name string `yaml:"name"`

	// Expression is the CEL source text.
	Expression string `yaml:"expression"`

	// Severity is the severity of issues the rule raises. Defaults to
	// SeverityWarning when empty.
	Severity Severity `yaml:"severity,omitempty"`

	// Message is attached to raised issues. Defaults to the rule name.
	Message string `yaml:"message,omitempty"`
}

// compiledRule pairs a rule with its compiled program.
type compiledRule struct {
	rule Rule
	prg  cel.Program
}

// CELValidator evaluates per-type CEL rules against graph nodes. Rules are
// compiled once at construction; evaluation is side-effect free.
type CELValidator struct {
	rules map[string][]compiledRule
}

// RuleTypeAny applies a rule set to every node type.
const RuleTypeAny = "*"

// NewCELValidator compiles the given rules, keyed by entity type
// (RuleTypeAny for rules applied to all types). Returns an error if any
// expression fails to compile or does not produce a bool.
func NewCELValidator(rules map[string][]Rule) (*CELValidator, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("record_type", cel.StringType),
		cel.Variable("properties", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("dependencies", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	v := &CELValidator{rules: make(map[string][]compiledRule)}
	for entityType, typeRules := range rules {
		for _, rule := range typeRules {
			ast, issues := env.Compile(rule.Expression)
			if issues != nil && issues.Err() != nil {
				return nil, fmt.Errorf("compiling rule %q: %w", rule.Name, issues.Err())
			}
			if !ast.OutputType().IsExactType(cel.BoolType) {
				return nil, fmt.Errorf("rule %q: expression must evaluate to bool, got %s",
					rule.Name, ast.OutputType())
			}
			prg, err := env.Program(ast)
			if err != nil {
				return nil, fmt.Errorf("building program for rule %q: %w", rule.Name, err)
			}
			v.rules[entityType] = append(v.rules[entityType], compiledRule{rule: rule, prg: prg})
		}
	}
	return v, nil
}

// Check implements Validator.
func (v *CELValidator) Check(_ context.Context, node *graph.Node, g *graph.Graph) []Issue {
	applicable := append(append([]compiledRule(nil), v.rules[RuleTypeAny]...), v.rules[node.Type]...)
	if len(applicable) == 0 {
		return nil
	}

	properties := map[string]any{}
	if record, ok := node.Payload.(*depsync.Record); ok && record.Properties != nil {
		properties = record.Properties
	}
	deps := g.Dependencies(node.ID)
	if deps == nil {
		deps = []string{}
	}

	vars := map[string]any{
		"id":           node.ID,
		"record_type":  node.Type,
		"properties":   properties,
		"dependencies": deps,
	}

	var issues []Issue
	for _, cr := range applicable {
		out, _, err := cr.prg.Eval(vars)
		if err != nil {
			issues = append(issues, Issue{
				NodeID:   node.ID,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("rule %q failed to evaluate: %v", cr.rule.Name, err),
			})
			continue
		}

		ok, isBool := out.Value().(bool)
		if !isBool {
			issues = append(issues, Issue{
				NodeID:   node.ID,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("rule %q produced a non-bool result", cr.rule.Name),
			})
			continue
		}
		if ok {
			continue
		}

		issues = append(issues, Issue{
			NodeID:   node.ID,
			Severity: cr.rule.severity(),
			Message:  cr.rule.message(),
		})
	}
	return issues
}

func (r Rule) severity() Severity {
	if r.Severity == "" {
		return SeverityWarning
	}
	return r.Severity
}

func (r Rule) message() string {
	if r.Message == "" {
		return fmt.Sprintf("rule %q failed", r.Name)
	}
	return r.Message
}
