package registry

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/logging"
)

func expensesFunc(result any) core.DataFunc {
	return func(_ context.Context, projectID string, _ map[string]any) (any, error) {
		return result, nil
	}
}

func TestRegisterAndExecute(t *testing.T) {
	reg := New()
	var gotProject string
	var gotParams map[string]any
	err := reg.RegisterAgent("finance",
		FunctionSpec{
			Name:        "get_expenses",
			Description: "Get expense analysis for the project",
			Fn: func(_ context.Context, projectID string, params map[string]any) (any, error) {
				gotProject = projectID
				gotParams = params
				return map[string]any{"total": 42}, nil
			},
		},
	)
	require.NoError(t, err)

	result, err := reg.Execute(context.Background(), "finance", "get_expenses", "proj-1", map[string]any{"quarter": "Q3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total": 42}, result)
	assert.Equal(t, "proj-1", gotProject)
	assert.Equal(t, "Q3", gotParams["quarter"])
}

func TestExecuteUnknownAgent(t *testing.T) {
	reg := New()
	_, err := reg.Execute(context.Background(), "ghost", "get_expenses", "proj-1", nil)
	assert.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestExecuteUnknownFunction(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "get_expenses", Description: "expenses", Fn: expensesFunc(nil)}))

	_, err := reg.Execute(context.Background(), "finance", "get_revenue", "proj-1", nil)
	assert.ErrorIs(t, err, core.ErrFunctionNotFound)
}

func TestExecutePropagatesFunctionError(t *testing.T) {
	reg := New()
	boom := fmt.Errorf("backend unavailable")
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{
			Name:        "get_expenses",
			Description: "expenses",
			Fn: func(context.Context, string, map[string]any) (any, error) {
				return nil, boom
			},
		}))

	_, err := reg.Execute(context.Background(), "finance", "get_expenses", "proj-1", nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegisterValidation(t *testing.T) {
	reg := New()

	assert.Error(t, reg.RegisterAgent(""), "empty agent name")
	assert.Error(t, reg.RegisterAgent("finance", FunctionSpec{Name: "", Fn: expensesFunc(nil)}), "empty function name")
	assert.Error(t, reg.RegisterAgent("finance", FunctionSpec{Name: "f"}), "nil callable")
	assert.Error(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "f", Fn: expensesFunc(nil)},
		FunctionSpec{Name: "f", Fn: expensesFunc(nil)},
	), "duplicate function name")
}

func TestReRegisterOverwrites(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "old", Description: "old", Fn: expensesFunc("old")}))
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "new", Description: "new", Fn: expensesFunc("new")}))

	_, err := reg.Execute(context.Background(), "finance", "old", "p", nil)
	assert.ErrorIs(t, err, core.ErrFunctionNotFound)

	result, err := reg.Execute(context.Background(), "finance", "new", "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", result)

	assert.Equal(t, []string{"finance"}, reg.Agents(), "overwrite must not duplicate registration order")
}

func TestEntriesPreserveRegistrationOrder(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "get_expenses", Description: "expenses", Fn: expensesFunc(nil)},
		FunctionSpec{Name: "get_budget", Description: "budget", Fn: expensesFunc(nil)},
	))
	require.NoError(t, reg.RegisterAgent("performance",
		FunctionSpec{Name: "get_kpis", Description: "kpis", Fn: expensesFunc(nil)},
	))

	entries := reg.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Agent: "finance", Function: "get_expenses", Description: "expenses"}, entries[0])
	assert.Equal(t, Entry{Agent: "finance", Function: "get_budget", Description: "budget"}, entries[1])
	assert.Equal(t, Entry{Agent: "performance", Function: "get_kpis", Description: "kpis"}, entries[2])
}

func TestUnregisterAgent(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "get_expenses", Description: "expenses", Fn: expensesFunc(nil)}))

	assert.True(t, reg.HasAgent("finance"))
	reg.UnregisterAgent("finance")
	assert.False(t, reg.HasAgent("finance"))
	assert.Empty(t, reg.Entries())

	// Unknown unregister is a no-op.
	reg.UnregisterAgent("ghost")
}

func TestUnregisterAgentLogs(t *testing.T) {
	var buf bytes.Buffer
	reg := New(func(o *Options) {
		o.Logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text", Output: &buf})
	})
	require.NoError(t, reg.RegisterAgent("finance",
		FunctionSpec{Name: "get_expenses", Description: "expenses", Fn: expensesFunc(nil)}))

	reg.UnregisterAgent("finance")
	assert.Contains(t, buf.String(), "agent functions unregistered")

	buf.Reset()
	reg.UnregisterAgent("ghost")
	assert.Contains(t, buf.String(), "unregister of unknown agent")
}
