package validate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
	"github.com/objectsync/depsync/validate"
)

// fakeTarget is a TargetStore stub with configurable contents.
type fakeTarget struct {
	present map[string]bool
	fail    error
}

func (t fakeTarget) Exists(_ context.Context, id string) (bool, error) {
	if t.fail != nil {
		return false, t.fail
	}
	return t.present[id], nil
}

func (t fakeTarget) Create(_ context.Context, source *depsync.Record, _ map[string]*depsync.Record) (*depsync.Record, error) {
	return source, nil
}

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", depsync.NewRecord("a", "entry")))
	require.NoError(t, g.AddNode("b", "sense", depsync.NewRecord("b", "sense")))
	require.NoError(t, g.AddEdge("b", "a", graph.Ownership))
	return g
}

func TestDependencyValidator_AllSatisfiable(t *testing.T) {
	g := buildGraph(t)
	v := validate.NewDependencyValidator(fakeTarget{})

	node, ok := g.Node("b")
	require.True(t, ok)

	assert.Empty(t, v.Check(context.Background(), node, g))
}

func TestDependencyValidator_MissingSourceRecord(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", nil)) // no payload
	require.NoError(t, g.AddNode("b", "sense", depsync.NewRecord("b", "sense")))
	require.NoError(t, g.AddEdge("b", "a", graph.Ownership))

	v := validate.NewDependencyValidator(fakeTarget{})

	node, ok := g.Node("b")
	require.True(t, ok)

	issues := v.Check(context.Background(), node, g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.SeverityCritical, issues[0].Severity)
	assert.Contains(t, issues[0].Message, `"a"`)
}

func TestDependencyValidator_MissingButPresentInTarget(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", nil))
	require.NoError(t, g.AddNode("b", "sense", depsync.NewRecord("b", "sense")))
	require.NoError(t, g.AddEdge("b", "a", graph.Ownership))

	v := validate.NewDependencyValidator(fakeTarget{present: map[string]bool{"a": true}})

	node, ok := g.Node("b")
	require.True(t, ok)

	assert.Empty(t, v.Check(context.Background(), node, g))
}

func TestDependencyValidator_StoreFailureIsWarning(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", nil))

	v := validate.NewDependencyValidator(fakeTarget{fail: errors.New("store down")})

	node, ok := g.Node("a")
	require.True(t, ok)

	issues := v.Check(context.Background(), node, g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.SeverityWarning, issues[0].Severity)
}

func TestCELValidator_RuleOutcomes(t *testing.T) {
	v, err := validate.NewCELValidator(map[string][]validate.Rule{
		"sense": {
			{
				Name:       "sense-has-gloss",
				Expression: `"gloss" in properties && properties["gloss"] != ""`,
				Severity:   validate.SeverityCritical,
				Message:    "sense is missing its gloss",
			},
		},
		validate.RuleTypeAny: {
			{
				Name:       "has-dependencies-or-is-entry",
				Expression: `record_type == "entry" || size(dependencies) > 0`,
			},
		},
	})
	require.NoError(t, err)

	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", depsync.NewRecord("a", "entry")))
	require.NoError(t, g.AddNode("b", "sense",
		depsync.NewRecord("b", "sense").WithProperty("gloss", "house")))
	require.NoError(t, g.AddNode("c", "sense", depsync.NewRecord("c", "sense")))
	require.NoError(t, g.AddEdge("b", "a", graph.Ownership))
	require.NoError(t, g.AddEdge("c", "a", graph.Ownership))

	ctx := context.Background()

	nodeB, _ := g.Node("b")
	assert.Empty(t, v.Check(ctx, nodeB, g))

	nodeC, _ := g.Node("c")
	issues := v.Check(ctx, nodeC, g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.SeverityCritical, issues[0].Severity)
	assert.Equal(t, "sense is missing its gloss", issues[0].Message)

	nodeA, _ := g.Node("a")
	assert.Empty(t, v.Check(ctx, nodeA, g))
}

func TestCELValidator_DeclaredVariablesBind(t *testing.T) {
	// Compiles a rule touching every declared variable. "record_type" is
	// the entity type: CEL reserves the bare identifier "type", so the env
	// must not try to declare it.
	v, err := validate.NewCELValidator(map[string][]validate.Rule{
		validate.RuleTypeAny: {
			{
				Name:       "all-variables",
				Expression: `id == "a" && record_type == "entry" && size(dependencies) == 0 && !("gloss" in properties)`,
			},
		},
	})
	require.NoError(t, err)

	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", depsync.NewRecord("a", "entry")))
	node, _ := g.Node("a")

	assert.Empty(t, v.Check(context.Background(), node, g))
}

func TestCELValidator_DefaultSeverityIsWarning(t *testing.T) {
	v, err := validate.NewCELValidator(map[string][]validate.Rule{
		validate.RuleTypeAny: {
			{Name: "never-passes", Expression: `false`},
		},
	})
	require.NoError(t, err)

	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", depsync.NewRecord("a", "entry")))
	node, _ := g.Node("a")

	issues := v.Check(context.Background(), node, g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.SeverityWarning, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "never-passes")
}

func TestCELValidator_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		rule validate.Rule
	}{
		{"syntax error", validate.Rule{Name: "bad", Expression: `properties[`}},
		{"non-bool result", validate.Rule{Name: "stringy", Expression: `record_type`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.NewCELValidator(map[string][]validate.Rule{
				validate.RuleTypeAny: {tt.rule},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.rule.Name)
		})
	}
}

func TestMulti(t *testing.T) {
	cel, err := validate.NewCELValidator(map[string][]validate.Rule{
		validate.RuleTypeAny: {{Name: "always-warn", Expression: `false`}},
	})
	require.NoError(t, err)

	v := validate.Multi{
		validate.NewDependencyValidator(fakeTarget{}),
		cel,
	}

	g := graph.New()
	require.NoError(t, g.AddNode("a", "entry", nil)) // missing source record

	node, _ := g.Node("a")
	issues := v.Check(context.Background(), node, g)

	require.Len(t, issues, 2)
	assert.Equal(t, validate.SeverityCritical, issues[0].Severity)
	assert.Equal(t, validate.SeverityWarning, issues[1].Severity)
}
