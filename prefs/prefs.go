// Package prefs infers travel-style tags from a conversation and merges them
// into a user's stored preferences.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/Desarso/tripagent/models"
)

// Tags is the closed set inference may select from.
var Tags = []string{
	"budget", "luxury", "foodie", "family", "adventure",
	"culture", "nature", "shopping", "nightlife", "relaxation",
}

// WindowChars bounds the trailing transcript sent to the model.
const WindowChars = 2000

// Completer is a single-shot text completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

var logger = log.New(os.Stdout, "[PREFS] ", log.LstdFlags)

const systemPrompt = `You classify a traveler's style from a chat transcript.
Choose zero or more tags from this closed set: %s.
Only choose a tag on strong, explicit signal. Rules:
- mentions of cheap or street food, hawker stalls or tight budgets -> "budget" and "foodie"
- mentions of children, kids or babies -> "family"
Reply with a JSON array of strings and nothing else. Reply [] when unsure.`

// Infer asks the completer for tags. Any failure yields an empty list.
func Infer(ctx context.Context, c Completer, msgs []models.Message) []string {
	window := Window(Transcript(msgs))
	if strings.TrimSpace(window) == "" || c == nil {
		return []string{}
	}
	raw, err := c.Complete(ctx, fmt.Sprintf(systemPrompt, strings.Join(Tags, ", ")), window)
	if err != nil {
		logger.Printf("inference failed: %v", err)
		return []string{}
	}
	return ParseTags(raw)
}

// Transcript renders user and assistant text as role:content lines.
func Transcript(msgs []models.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if !m.HasContent() {
			continue
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Window keeps the trailing WindowChars characters of a transcript.
func Window(transcript string) string {
	if utf8.RuneCountInString(transcript) <= WindowChars {
		return transcript
	}
	r := []rune(transcript)
	return string(r[len(r)-WindowChars:])
}

// ParseTags decodes a JSON list, tolerating a surrounding code fence, and
// keeps only known tags. Malformed output yields an empty list.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		logger.Printf("discarding unparseable tags %q: %v", raw, err)
		return []string{}
	}
	tags = lo.Map(tags, func(t string, _ int) string { return strings.ToLower(strings.TrimSpace(t)) })
	return lo.Uniq(lo.Filter(tags, func(t string, _ int) bool { return lo.Contains(Tags, t) }))
}

// Merge is a set union that keeps existing tags first. It never removes a tag.
func Merge(existing, inferred []string) []string {
	return lo.Union(existing, inferred)
}
