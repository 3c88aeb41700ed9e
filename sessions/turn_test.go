package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Desarso/tripagent/common_tools"
	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/serp"
)

// MockAgent scripts model responses per call and dispatches tools through a
// real registry.
type MockAgent struct {
	RunFunc  func(call int, req models.Model_Request) (models.Model_Response, error)
	Registry *common_tools.Registry
	Requests []models.Model_Request
}

func (m *MockAgent) Run(ctx context.Context, req models.Model_Request) (models.Model_Response, error) {
	req.Messages = append([]models.Message{}, req.Messages...)
	m.Requests = append(m.Requests, req)
	return m.RunFunc(len(m.Requests), req)
}

func (m *MockAgent) Declarations() []models.FunctionDeclaration {
	return m.Registry.Declarations()
}

func (m *MockAgent) ExecuteTool(ctx context.Context, env *common_tools.Env, call models.ToolCall) common_tools.Result {
	return m.Registry.Execute(ctx, env, call)
}

func echoRegistry() *common_tools.Registry {
	r := common_tools.NewRegistry()
	r.Register(common_tools.Tool{
		Declaration: common_tools.SearchGeneralWebTool(),
		Handler: func(ctx context.Context, env *common_tools.Env, args common_tools.Args) common_tools.Result {
			return common_tools.Result{Content: "- " + args.String("query") + ": ok"}
		},
	})
	r.Register(common_tools.Tool{
		Declaration: common_tools.GenerateMapTool(),
		Handler: func(ctx context.Context, env *common_tools.Env, args common_tools.Args) common_tools.Result {
			route := &models.RouteArtifact{MapHTML: "<html></html>", Traffic: "🚩 A ➡️ B"}
			env.Session.Route = route
			return common_tools.Result{Content: "Map Generated! 2 stops plotted, 1 legs.", Suspend: true, Route: route}
		},
	})
	return r
}

func webCall(id, query string) models.ToolCall {
	return models.NewToolCall(id, common_tools.SearchGeneralWeb, map[string]interface{}{"query": query})
}

func newSession() *models.ChatSession {
	return models.NewChatSession("s1", "policy")
}

// assertPairing checks every tool message answers a call of the nearest
// preceding assistant tool-call message.
func assertPairing(t *testing.T, msgs []models.Message) {
	t.Helper()
	var open map[string]bool
	for i, m := range msgs {
		switch {
		case m.HasToolCalls():
			open = map[string]bool{}
			for _, tc := range m.ToolCalls {
				open[tc.ID] = true
			}
		case m.Role == models.RoleTool:
			if !open[m.ToolCallID] {
				t.Errorf("message %d: tool result %q answers no open call", i, m.ToolCallID)
			}
			delete(open, m.ToolCallID)
		default:
			open = nil
		}
	}
}

func countAnswers(msgs []models.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == models.RoleAssistant && m.HasContent() {
			n++
		}
	}
	return n
}

func TestRunTerminatesOnFirstTextAnswer(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			return models.NewToolCallResponse(webCall("c1", "Penang weather")), nil
		}
		return models.NewTextResponse("Sunny all week."), nil
	}}
	session := newSession()
	before := countAnswers(session.Messages)

	res, err := NewRunner(agent, 8).Run(context.Background(), session, "weather in Penang?", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != models.TurnCompleted || res.Reply != "Sunny all week." || res.Rounds != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(agent.Requests) != 2 {
		t.Errorf("expected 2 model calls, got %d", len(agent.Requests))
	}
	if got := countAnswers(session.Messages) - before; got != 1 {
		t.Errorf("expected exactly one answer appended, got %d", got)
	}
	assertPairing(t, session.Messages)
	if session.Title != "weather in Pena..." {
		t.Errorf("title = %q", session.Title)
	}
}

func TestInterimTextIsNotStored(t *testing.T) {
	var events []TurnEvent
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			res := models.NewToolCallResponse(webCall("c1", "ferry"))
			text := "Let me check."
			res.Content = &text
			return res, nil
		}
		return models.NewTextResponse("Ferries run hourly."), nil
	}}
	session := newSession()
	before := countAnswers(session.Messages)

	_, err := NewRunner(agent, 8).Run(context.Background(), session, "ferry?", func(ev TurnEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := countAnswers(session.Messages) - before; got != 1 {
		t.Errorf("interim text must not become a stored answer, got %d answers", got)
	}
	if len(events) == 0 || events[0].Type != EventProgress || events[0].Text != "Let me check." {
		t.Errorf("expected a progress event first, got %+v", events)
	}
	if events[len(events)-1].Type != EventFinal {
		t.Errorf("expected final event last, got %s", events[len(events)-1].Type)
	}
}

func TestUnknownToolGetsErrorResult(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			return models.NewToolCallResponse(models.NewToolCall("c9", "book_taxi", nil)), nil
		}
		return models.NewTextResponse("I cannot book taxis."), nil
	}}
	session := newSession()

	if _, err := NewRunner(agent, 8).Run(context.Background(), session, "book a taxi", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	second := agent.Requests[1].Messages
	last := second[len(second)-1]
	if last.Role != models.RoleTool || last.ToolCallID != "c9" {
		t.Fatalf("expected tool result for c9, got %+v", last)
	}
	if last.Text() != `{"error":"unknown tool: book_taxi"}` {
		t.Errorf("result = %s", last.Text())
	}
	assertPairing(t, session.Messages)
}

func TestMapRoundSuspendsAndResumesWithoutDuplicates(t *testing.T) {
	mapCall := models.NewToolCall("m1", common_tools.GenerateMapTraffic, map[string]interface{}{
		"locations_list": []interface{}{"Penang Hill", "Kek Lok Si"},
	})
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			return models.NewToolCallResponse(mapCall), nil
		}
		return models.NewTextResponse("Here is your route."), nil
	}}
	session := newSession()
	runner := NewRunner(agent, 8)

	var sawMap bool
	res, err := runner.Run(context.Background(), session, "show me a map", func(ev TurnEvent) {
		if ev.Type == EventMapReady && ev.Route != nil {
			sawMap = true
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != models.TurnSuspended || res.Route == nil || !sawMap {
		t.Fatalf("expected suspension with route, got %+v (map event %v)", res, sawMap)
	}
	if !session.NeedsResume() {
		t.Fatal("suspended session must be resumable")
	}
	snapshot := append([]models.Message{}, session.Messages...)

	if _, err := runner.Run(context.Background(), session, "hello?", nil); err == nil {
		t.Error("a new message must not start while a turn is suspended")
	}

	res, err = runner.Resume(context.Background(), session, nil)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.Status != models.TurnCompleted {
		t.Errorf("status = %s", res.Status)
	}
	resumed := agent.Requests[1].Messages
	if len(resumed) != len(snapshot) {
		t.Fatalf("resume must re-issue the identical sequence: %d vs %d messages", len(resumed), len(snapshot))
	}
	results := 0
	for _, m := range session.Messages {
		if m.Role == models.RoleTool && m.ToolCallID == "m1" {
			results++
		}
	}
	if results != 1 {
		t.Errorf("map result must appear exactly once, got %d", results)
	}
	assertPairing(t, session.Messages)
}

func TestResumeWithoutSuspension(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry()}
	if _, err := NewRunner(agent, 8).Resume(context.Background(), newSession(), nil); err == nil {
		t.Error("expected error resuming a session that is not suspended")
	}
}

func TestRoundCapForcesFinalAnswer(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if req.ToolsDisabled() {
			res := models.NewTextResponse("Best I can do.")
			res.ToolCalls = []models.ToolCall{webCall("ignored", "x")}
			return res, nil
		}
		return models.NewToolCallResponse(webCall("c"+string(rune('a'+call)), "loop")), nil
	}}
	session := newSession()

	res, err := NewRunner(agent, 3).Run(context.Background(), session, "keep searching", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(agent.Requests) != 4 {
		t.Fatalf("expected 3 tool rounds plus one forced final, got %d calls", len(agent.Requests))
	}
	final := agent.Requests[3]
	if !final.ToolsDisabled() || len(final.Tools) == 0 {
		t.Error("forced final request must keep the declarations and disable tool use")
	}
	if res.Rounds != 4 {
		t.Errorf("rounds = %d", res.Rounds)
	}
	note := final.Messages[len(final.Messages)-1]
	if note.Role != models.RoleSystem || !strings.Contains(note.Text(), "budget") {
		t.Errorf("expected budget note, got %+v", note)
	}
	if res.Reply != "Best I can do." || res.Status != models.TurnCompleted {
		t.Errorf("unexpected result %+v", res)
	}
	for _, m := range session.Messages {
		if m.Role == models.RoleSystem && m.Text() == note.Text() {
			t.Error("budget note must not be stored")
		}
		for _, tc := range m.ToolCalls {
			if tc.ID == "ignored" {
				t.Error("tool calls of the forced final must be discarded")
			}
		}
	}
	assertPairing(t, session.Messages)
}

func TestRoundBudgetSpansResumes(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if req.ToolsDisabled() {
			return models.NewTextResponse("Here is the route so far."), nil
		}
		return models.NewToolCallResponse(models.NewToolCall(fmt.Sprintf("m%d", call), common_tools.GenerateMapTraffic, map[string]interface{}{
			"locations_list": []interface{}{"A", "B"},
		})), nil
	}}
	session := newSession()
	runner := NewRunner(agent, 2)

	res, err := runner.Run(context.Background(), session, "map it again and again", nil)
	for legs := 0; err == nil && res.Status == models.TurnSuspended; legs++ {
		if legs > 5 {
			t.Fatalf("turn still suspended after %d resumes (%d model calls)", legs, len(agent.Requests))
		}
		res, err = runner.Resume(context.Background(), session, nil)
	}
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if res.Status != models.TurnCompleted || res.Reply != "Here is the route so far." {
		t.Errorf("unexpected result %+v", res)
	}
	if len(agent.Requests) != 3 || !agent.Requests[2].ToolsDisabled() {
		t.Errorf("expected 2 map rounds then a forced final, got %d calls", len(agent.Requests))
	}
	if res.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", res.Rounds)
	}
	assertPairing(t, session.Messages)
}

func TestModelFailureIsAgentError(t *testing.T) {
	var got []TurnEvent
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		return models.Model_Response{}, errors.New("connection reset")
	}}
	_, err := NewRunner(agent, 8).Run(context.Background(), newSession(), "hi", func(ev TurnEvent) { got = append(got, ev) })
	var agentErr *AgentError
	if !errors.As(err, &agentErr) || !agentErr.Fatal {
		t.Fatalf("expected fatal AgentError, got %v", err)
	}
	if len(got) != 1 || got[0].Type != EventError {
		t.Errorf("expected one error event, got %+v", got)
	}
}

func TestEmptyResponseIsAgentError(t *testing.T) {
	agent := &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		return models.Model_Response{}, nil
	}}
	_, err := NewRunner(agent, 8).Run(context.Background(), newSession(), "hi", nil)
	var agentErr *AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("expected AgentError, got %v", err)
	}
}

type penangSearcher struct{}

func (penangSearcher) Search(ctx context.Context, params serp.Params) (*serp.Response, error) {
	r := 4.6
	if strings.Contains(params["q"], "local food") {
		return &serp.Response{LocalResults: []serp.LocalResult{
			{Title: "Gurney Drive Hawker Centre", Rating: &r, Address: "Persiaran Gurney"},
		}}, nil
	}
	return &serp.Response{LocalResults: []serp.LocalResult{
		{Title: "Penang Hill", Rating: &r},
		{Title: "Kek Lok Si Temple", Rating: &r},
	}}, nil
}

func TestPenangDayPlan(t *testing.T) {
	tools := common_tools.NewTravelTools(penangSearcher{}, nil)
	tools.ItineraryDir = ""
	agent := &MockAgent{Registry: tools.Registry(0)}
	agent.RunFunc = func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			return models.NewToolCallResponse(
				models.NewToolCall("a1", common_tools.SearchAttractions, map[string]interface{}{"city": "Penang"}),
				models.NewToolCall("r1", common_tools.SearchRestaurants, map[string]interface{}{"city": "Penang", "food_type": "local food"}),
			), nil
		}
		var sights, food string
		for _, m := range req.Messages {
			switch m.ToolCallID {
			case "a1":
				sights = m.Text()
			case "r1":
				food = m.Text()
			}
		}
		return models.NewTextResponse("Morning:\n" + sights + "\n\nLunch:\n" + food), nil
	}
	session := newSession()
	before := len(session.Messages)

	res, err := NewRunner(agent, 8).Run(context.Background(), session, "plan 1 day in Penang", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Reply, "Penang Hill") || !strings.Contains(res.Reply, "Gurney Drive Hawker Centre") {
		t.Errorf("reply should synthesize both tool outputs: %q", res.Reply)
	}
	added := session.Messages[before:]
	if len(added) != 5 {
		t.Fatalf("expected user, assistant calls, 2 results, answer; got %d messages", len(added))
	}
	if countAnswers(added) != 1 {
		t.Errorf("expected one answer, got %d", countAnswers(added))
	}
	for _, m := range added {
		for _, tc := range m.ToolCalls {
			if tc.Function.Name == common_tools.GenerateMapTraffic {
				t.Error("no map call without an explicit request")
			}
		}
	}
	if session.Route != nil {
		t.Error("route must stay empty")
	}
	assertPairing(t, session.Messages)
}

func TestLockerSerializesSameSession(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("s1")
	acquired := make(chan struct{})
	go func() {
		u := l.Lock("s1")
		close(acquired)
		u()
	}()
	other := l.Lock("s2")
	other()

	select {
	case <-acquired:
		t.Fatal("second lock on s1 acquired while held")
	default:
	}
	unlock()
	<-acquired
}
