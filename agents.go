package tripagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Desarso/tripagent/common_tools"
	"github.com/Desarso/tripagent/models"
)

// Model is a chat-completions backend. Request.Tools is empty when the caller
// wants a final answer without tool use.
type Model interface {
	Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error)
}

type Agent struct {
	Model    Model
	Registry *common_tools.Registry
}

func Create_Agent(model Model, registry *common_tools.Registry) Agent {
	if registry == nil {
		registry = common_tools.NewRegistry()
	}
	return Agent{
		Model:    model,
		Registry: registry,
	}
}

func (agent *Agent) Run(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	if agent.Model == nil {
		return models.Model_Response{}, errors.New("agent has no model")
	}
	return agent.Model.Model_Request(ctx, request)
}

// Declarations returns the tool schemas offered to the model each round.
func (agent *Agent) Declarations() []models.FunctionDeclaration {
	return agent.Registry.Declarations()
}

// ExecuteTool dispatches one call through the registry. Failures come back
// as error results, never as Go errors.
func (agent *Agent) ExecuteTool(ctx context.Context, env *common_tools.Env, call models.ToolCall) common_tools.Result {
	return agent.Registry.Execute(ctx, env, call)
}

// Complete runs a tool-less single-shot request. It lets the agent's own
// model serve preference inference.
func (agent *Agent) Complete(ctx context.Context, system, prompt string) (string, error) {
	res, err := agent.Run(ctx, models.Model_Request{
		Messages: []models.Message{models.SystemMessage(system), models.UserMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete: %w", err)
	}
	return res.Text(), nil
}
