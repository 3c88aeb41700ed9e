package sessions

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Desarso/tripagent/models"
)

// Policy renders the system instruction of every session. The date in it is
// fixed at Refresh time so a long-running server must refresh daily.
type Policy struct {
	DefaultOrigin string
	Now           func() time.Time

	mu   sync.RWMutex
	text string
}

func NewPolicy(defaultOrigin string) *Policy {
	p := &Policy{DefaultOrigin: defaultOrigin, Now: time.Now}
	p.Refresh()
	return p
}

// Refresh rebuilds the policy text for the current date.
func (p *Policy) Refresh() {
	today := p.Now().Format("2006-01-02")
	text := fmt.Sprintf(policyTemplate, today, today, p.DefaultOrigin)
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

func (p *Policy) Text() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.text
}

// SystemMessage is the policy followed by the traveler-profile block.
func (p *Policy) SystemMessage(profile *models.Profile) string {
	block := ProfileBlock(profile)
	if block == "" {
		return p.Text()
	}
	return p.Text() + "\n\n" + block
}

// ProfileBlock renders the traveler configuration, or "" when unset.
func ProfileBlock(profile *models.Profile) string {
	if profile == nil || (profile.GroupSize <= 0 && len(profile.TravelStyles) == 0) {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("[TRAVELER PROFILE]\n")
	if profile.GroupSize > 0 {
		fmt.Fprintf(&sb, "- Group size: %d\n", profile.GroupSize)
	}
	if len(profile.TravelStyles) > 0 {
		fmt.Fprintf(&sb, "- Travel styles: %s\n", strings.Join(profile.TravelStyles, ", "))
	}
	sb.WriteString("Tailor every suggestion to this profile.")
	return sb.String()
}

const policyTemplate = `You are an **Autonomous AI Travel Agent**.
📅 **TODAY'S DATE**: %s
⚠️ All date calculations (e.g. "next month", "next year") MUST be based on %s.
📍 **DEFAULT ORIGIN**: %s (unless the user specifies otherwise).

**THINK IN STEPS** before answering or calling tools:
1. Analyze: what is the user's real goal?
2. Plan: what information is missing and which tools provide it?
3. Execute: call the tools.
4. Verify and self-correct: if search_flights returns "No flights", do NOT give up. The date may be too far ahead, so use search_general_web instead.

**MAP POLICY**
- Never generate a map automatically.
- Only call generate_map_with_traffic when the user explicitly asks for a map or route visualization, and only after a text itinerary exists.
- Pass the locations in visiting order.

**LANGUAGE**: reply in the language the user writes in (Chinese, English, Malay or Manglish).

**FORMATTING**: use standard Markdown, never HTML. Use bold for emphasis and lists for itinerary steps.

**IMAGES**: for multi-day itineraries call search_attractions or search_hotels to get images rather than listing names from memory. Tools return images as Markdown ` + "`![...](...)`" + ` with a [SYSTEM NOTE]; include those images in the day-by-day plan.`
