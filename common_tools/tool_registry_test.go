package common_tools

import (
	"context"
	"strings"
	"testing"

	"github.com/Desarso/tripagent/models"
)

func TestDefaultTools(t *testing.T) {
	tools := DefaultTools()
	if len(tools) != 7 {
		t.Fatalf("expected 7 travel tools, got %d", len(tools))
	}
	for i, name := range toolOrder {
		if tools[i].Name != name {
			t.Errorf("tool %d: expected %q, got %q", i, name, tools[i].Name)
		}
		if tools[i].Description == "" {
			t.Errorf("%s: description should not be empty", name)
		}
		if tools[i].Parameters.Type != "object" {
			t.Errorf("%s: expected object type, got %q", name, tools[i].Parameters.Type)
		}
	}
}

func TestSearchHotelsToolDeclaration(t *testing.T) {
	tool := SearchHotelsTool()
	if tool.Description != "Search hotels" {
		t.Errorf("unexpected description %q", tool.Description)
	}
	if got := tool.Parameters.PropertyType("adults"); got != "integer" {
		t.Errorf("adults should be integer, got %q", got)
	}
	want := []string{"city", "check_in_date", "check_out_date", "adults"}
	if strings.Join(tool.Parameters.Required, ",") != strings.Join(want, ",") {
		t.Errorf("expected required=%v, got %v", want, tool.Parameters.Required)
	}
}

func TestGenerateMapToolDeclaration(t *testing.T) {
	tool := GenerateMapTool()
	if !strings.HasPrefix(tool.Description, "Generate a map. ⚠️ ONLY use this if user explicitly asks for 'map'") {
		t.Errorf("unexpected description %q", tool.Description)
	}
	if tool.Parameters.PropertyType("locations_list") != "array" || tool.Parameters.ItemsType("locations_list") != "string" {
		t.Error("locations_list should be an array of string")
	}
	if !tool.Parameters.IsRequired("locations_list") {
		t.Error("locations_list should be required")
	}
}

func TestOptionalArguments(t *testing.T) {
	if SearchAttractionsTool().Parameters.IsRequired("keyword") {
		t.Error("keyword should be optional")
	}
	if SearchRestaurantsTool().Parameters.IsRequired("food_type") {
		t.Error("food_type should be optional")
	}
}

func echoTool(name string) Tool {
	return Tool{
		Declaration: models.FunctionDeclaration{
			Name: name,
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]interface{}{
					"n":     map[string]interface{}{"type": "integer"},
					"names": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
				Required: []string{"n"},
			},
		},
		Handler: func(ctx context.Context, env *Env, args Args) Result {
			return Result{Content: strings.Repeat("x", args.Int("n"))}
		},
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), nil, models.NewToolCall("call_1", "book_taxi", nil))
	if !res.IsError {
		t.Error("unknown tool should be an error result")
	}
	if res.Content != `{"error":"unknown tool: book_taxi"}` {
		t.Errorf("unexpected content %q", res.Content)
	}
}

func TestRegistryValidation(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))

	cases := []struct {
		name    string
		args    string
		wantErr bool
		want    string
	}{
		{"ok", `{"n": 3}`, false, "xxx"},
		{"empty arguments", ``, true, "missing required argument"},
		{"wrong type", `{"n": "3"}`, true, "must be of type integer"},
		{"fractional integer", `{"n": 1.5}`, true, "must be of type integer"},
		{"bad array item", `{"n": 1, "names": ["a", 2]}`, true, "must be of type array"},
		{"malformed json", `{"n":`, true, "invalid arguments"},
	}
	for _, tc := range cases {
		call := models.ToolCall{ID: "c", Type: "function", Function: models.FunctionCall{Name: "echo", Arguments: tc.args}}
		res := r.Execute(context.Background(), &Env{}, call)
		if res.IsError != tc.wantErr {
			t.Errorf("%s: IsError = %v, content %q", tc.name, res.IsError, res.Content)
		}
		if !strings.Contains(res.Content, tc.want) {
			t.Errorf("%s: expected %q in %q", tc.name, tc.want, res.Content)
		}
	}
}

func TestRegistryDeclarationsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("b"))
	r.Register(echoTool("a"))
	r.Register(echoTool("b"))
	decls := r.Declarations()
	if len(decls) != 2 || decls[0].Name != "b" || decls[1].Name != "a" {
		t.Errorf("unexpected declarations %+v", decls)
	}
	if !r.Has("a") || r.Has("c") {
		t.Error("Has mismatch")
	}
}
