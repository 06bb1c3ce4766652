package docmesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/config"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/internal/testutil"
	"github.com/docmesh/docmesh/logging"
	"github.com/docmesh/docmesh/registry"
	"github.com/docmesh/docmesh/routing"
)

func TestEndToEndEchoDelivery(t *testing.T) {
	mesh := New()
	require.NoError(t, mesh.RegisterAgent(routing.Registration{
		Name: "finance",
		Handler: func(msg *core.Message) (*core.Message, error) {
			return core.NewResponse("finance", msg.Sender, msg.Payload, msg.ID)
		},
	}))

	req := testutil.NewMessageBuilder().From("caller").To("finance").Payload("action", "ping").Request()
	resp := mesh.Send(req)

	require.NotNil(t, resp)
	assert.Equal(t, core.KindResponse, resp.Kind)
	assert.Equal(t, req.ID, resp.CorrelationID)
	assert.Equal(t, core.Payload{"action": "ping"}, resp.Payload)
}

func TestEndToEndSemanticDispatch(t *testing.T) {
	mesh := New()
	var gotProject string
	require.NoError(t, mesh.RegisterFunctions("finance",
		registry.FunctionSpec{
			Name:        "get_expenses",
			Description: "Get expense analysis for the project",
			Fn: func(_ context.Context, projectID string, _ map[string]any) (any, error) {
				gotProject = projectID
				return map[string]any{"total": 1250.0}, nil
			},
		},
	))
	require.NoError(t, mesh.RegisterFunctions("riskmitigation",
		registry.FunctionSpec{
			Name:        "get_risks",
			Description: "Generate a risk mitigation plan for identified hazards",
			Fn: func(context.Context, string, map[string]any) (any, error) {
				return nil, nil
			},
		},
	))
	mesh.InitDispatch(context.Background())
	require.NotNil(t, mesh.Dispatcher())
	assert.Equal(t, 2, mesh.Dispatcher().IndexSize())

	result, ok := mesh.Route(context.Background(), "show me project expenses", "docgen", "proj-7", nil)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"total": 1250.0}, result)
	assert.Equal(t, "proj-7", gotProject)
}

func TestRouteBeforeInitDispatch(t *testing.T) {
	mesh := New()
	result, ok := mesh.Route(context.Background(), "anything", "caller", "proj-1", nil)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestFromConfigPropagates(t *testing.T) {
	cfg := &config.Config{
		MaxRetries:        1,
		RetryDelay:        time.Millisecond,
		HistoryCapacity:   2,
		DispatchThreshold: 0.4,
		LogLevel:          "error",
		LogFormat:         "text",
	}
	// An explicit Logger option after FromConfig wins, keeping test output quiet.
	mesh := New(FromConfig(cfg), func(o *Options) { o.Logger = logging.NoOpLogger{} })
	require.NotNil(t, mesh)

	// Delivery policy from config: capacity 2 keeps only the last
	// outgoing/error pair across three undeliverable sends.
	for i := 0; i < 3; i++ {
		mesh.Send(testutil.NewMessageBuilder().From("caller").To("ghost").Request())
	}
	assert.Len(t, mesh.Router().History(routing.HistoryFilter{}), 2)
}

func TestOptionsPropagate(t *testing.T) {
	mesh := New(func(o *Options) {
		o.MaxRetries = 1
		o.RetryDelay = time.Millisecond
		o.HistoryCapacity = 2
	})
	// With capacity 2, three undeliverable sends keep only the last
	// outgoing/error pair.
	for i := 0; i < 3; i++ {
		mesh.Send(testutil.NewMessageBuilder().From("caller").To("ghost").Request())
	}
	assert.Len(t, mesh.Router().History(routing.HistoryFilter{}), 2)
}
