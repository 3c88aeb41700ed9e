package stores

import (
	"encoding/json"
	"log"

	"github.com/Desarso/tripagent/models"
)

// MissingResult is the stand-in content for a tool call whose result was lost.
var MissingResult = func() string {
	b, _ := json.Marshal(map[string]string{"error": "tool result missing"})
	return string(b)
}()

// SanitizeHistory repairs a loaded conversation so every tool message answers
// a tool call of the assistant message right before it:
//
//   - tool messages that do not follow an assistant tool-call message are dropped
//   - tool messages whose tool_call_id matches no call of that message are dropped,
//     as are repeated results for the same call
//   - calls left without a result get an explicit error result appended
func SanitizeHistory(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return msgs
	}

	result := make([]models.Message, 0, len(msgs))
	i := 0
	for i < len(msgs) {
		msg := msgs[i]
		switch {
		case msg.Role == models.RoleAssistant && msg.HasToolCalls():
			block, next := repairToolBlock(msgs, i)
			result = append(result, block...)
			i = next

		case msg.Role == models.RoleTool:
			log.Printf("[HISTORY_SANITIZER] Removing orphaned tool result at index %d (call %s)", i, msg.ToolCallID)
			i++

		default:
			result = append(result, msg)
			i++
		}
	}

	if len(result) != len(msgs) {
		log.Printf("[HISTORY_SANITIZER] History changed from %d to %d messages", len(msgs), len(result))
	}
	return result
}

// repairToolBlock returns the assistant message at start followed by one
// result per call, and the index after the tool messages it consumed.
func repairToolBlock(msgs []models.Message, start int) ([]models.Message, int) {
	assistant := msgs[start]
	pending := make(map[string]bool, len(assistant.ToolCalls))
	for _, tc := range assistant.ToolCalls {
		pending[tc.ID] = true
	}

	block := []models.Message{assistant}
	i := start + 1
	for i < len(msgs) && msgs[i].Role == models.RoleTool {
		id := msgs[i].ToolCallID
		if pending[id] {
			block = append(block, msgs[i])
			delete(pending, id)
		} else {
			log.Printf("[HISTORY_SANITIZER] Removing tool result at index %d with unmatched call %q", i, id)
		}
		i++
	}

	for _, tc := range assistant.ToolCalls {
		if pending[tc.ID] {
			log.Printf("[HISTORY_SANITIZER] Adding error result for call %s (%s) without a result", tc.ID, tc.Function.Name)
			block = append(block, models.ToolResultMessage(tc.ID, MissingResult))
			delete(pending, tc.ID)
		}
	}
	return block, i
}

// DetectCorruptedHistory checks if the history has any issues that would cause API errors.
// Returns a list of issues found (empty if history is clean).
func DetectCorruptedHistory(msgs []models.Message) []string {
	issues := []string{}
	if len(msgs) == 0 {
		return issues
	}

	if msgs[0].Role != models.RoleSystem {
		issues = append(issues, "History does not start with a system message")
	}

	var open map[string]bool
	for i, msg := range msgs {
		switch {
		case msg.Role == models.RoleAssistant && msg.HasToolCalls():
			if len(open) > 0 {
				issues = append(issues, "Tool call(s) without results before a new tool call message")
			}
			open = make(map[string]bool, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				open[tc.ID] = true
			}
		case msg.Role == models.RoleTool:
			if open == nil || !open[msg.ToolCallID] {
				issues = append(issues, "Tool result without a matching preceding tool call")
				continue
			}
			delete(open, msg.ToolCallID)
		default:
			if len(open) > 0 {
				issues = append(issues, "Tool call(s) without results")
			}
			open = nil
		}
		if i > 0 && msg.Role == models.RoleUser && msgs[i-1].Role == models.RoleUser {
			issues = append(issues, "Two consecutive user messages")
		}
	}
	if len(open) > 0 {
		issues = append(issues, "Tool call(s) without results at end of history")
	}
	return issues
}
