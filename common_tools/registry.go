package common_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Desarso/tripagent/models"
)

// Args are the decoded arguments of one tool call.
type Args map[string]interface{}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

func (a Args) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Env is the session context a tool may write side effects into.
type Env struct {
	Session *models.ChatSession
}

// Result is what a tool hands back to the loop. Suspend asks the loop to
// yield after the current round so the client can render the new map.
type Result struct {
	Content string
	IsError bool
	Suspend bool
	Route   *models.RouteArtifact
}

type HandlerFunc func(ctx context.Context, env *Env, args Args) Result

// Tool binds a declared schema to its handler. Defaults, when set, fills
// documented defaults for missing arguments before validation.
type Tool struct {
	Declaration models.FunctionDeclaration
	Defaults    func(args Args)
	Handler     HandlerFunc
}

// Registry is the closed set of tools the model may call.
type Registry struct {
	tools   map[string]Tool
	order   []string
	Timeout time.Duration
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool under its declared name.
func (r *Registry) Register(tool Tool) {
	name := tool.Declaration.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Declarations returns the model-facing schemas in registration order.
func (r *Registry) Declarations() []models.FunctionDeclaration {
	decls := make([]models.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration)
	}
	return decls
}

// ErrorResult renders the JSON error body tools report back to the model.
func ErrorResult(format string, args ...interface{}) Result {
	body, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	return Result{Content: string(body), IsError: true}
}

// Execute runs one tool call. It never fails: unknown tools, bad arguments
// and handler failures all come back as a result for the model to read.
func (r *Registry) Execute(ctx context.Context, env *Env, call models.ToolCall) Result {
	tool, ok := r.tools[call.Function.Name]
	if !ok {
		return ErrorResult("unknown tool: %s", call.Function.Name)
	}

	args := Args{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return ErrorResult("invalid arguments for %s: %v", call.Function.Name, err)
		}
		if args == nil {
			args = Args{}
		}
	}
	if tool.Defaults != nil {
		tool.Defaults(args)
	}
	if err := Validate(tool.Declaration.Parameters, args); err != nil {
		return ErrorResult("invalid arguments for %s: %v", call.Function.Name, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	if env == nil {
		env = &Env{}
	}
	return tool.Handler(ctx, env, args)
}

// Validate checks args against the declared parameters: every required
// argument present, every declared argument of its declared type.
func Validate(params models.Parameters, args Args) error {
	for _, name := range params.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	for name, value := range args {
		want := params.PropertyType(name)
		if want == "" {
			continue
		}
		if !matchesType(want, params.ItemsType(name), value) {
			return fmt.Errorf("argument %q must be of type %s", name, want)
		}
	}
	return nil
}

func matchesType(want, items string, value interface{}) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		f, ok := value.(float64)
		if !ok {
			_, isInt := value.(int)
			return isInt
		}
		return f == math.Trunc(f)
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		list, ok := value.([]interface{})
		if !ok {
			_, isStrings := value.([]string)
			return isStrings && (items == "" || items == "string")
		}
		if items == "" {
			return true
		}
		for _, item := range list {
			if !matchesType(items, "", item) {
				return false
			}
		}
		return true
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	}
	return true
}
