package common_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Desarso/tripagent/serp"
)

const imageNote = "[SYSTEM NOTE] Keep the image markdown above in your reply so the traveler can see each place."

func (t *TravelTools) placesQuery(ctx context.Context, q string) (*serp.Response, error) {
	return t.Search.Search(ctx, serp.Params{
		"engine": serp.EngineMaps,
		"q":      q,
		"type":   "search",
		"hl":     t.Language,
	})
}

func (t *TravelTools) searchAttractions(ctx context.Context, env *Env, args Args) Result {
	city := args.String("city")
	q := fmt.Sprintf("top sights in %s", city)
	if keyword := args.String("keyword"); keyword != "" {
		q = fmt.Sprintf("best %s in %s", keyword, city)
	}

	res, err := t.placesQuery(ctx, q)
	if err != nil {
		t.logf("attraction search failed: %v", err)
		return Result{Content: "Error searching attractions"}
	}

	var lines []string
	images := false
	for i, r := range res.LocalResults {
		if i == 5 {
			break
		}
		title := r.Title
		if title == "" {
			title = "Unknown"
		}
		line := fmt.Sprintf("- %s (%s⭐)", title, r.RatingText())
		if r.Thumbnail != "" {
			line += fmt.Sprintf("\n  ![%s](%s)", title, r.Thumbnail)
			images = true
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Result{Content: "No attractions found"}
	}
	if images {
		lines = append(lines, imageNote)
	}
	return Result{Content: strings.Join(lines, "\n")}
}

func (t *TravelTools) searchRestaurants(ctx context.Context, env *Env, args Args) Result {
	city := args.String("city")
	foodType := args.String("food_type")
	if foodType == "" {
		foodType = "local food"
	}

	res, err := t.placesQuery(ctx, fmt.Sprintf("best %s in %s", foodType, city))
	if err != nil {
		t.logf("restaurant search failed: %v", err)
		return Result{Content: "Error searching food"}
	}
	if len(res.LocalResults) == 0 {
		return Result{Content: "No restaurants found"}
	}

	lines := []string{fmt.Sprintf("Top %s in %s:", foodType, city)}
	for i, r := range res.LocalResults {
		if i == 3 {
			break
		}
		address := r.Address
		if address == "" {
			address = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s⭐) - %s", i+1, r.Title, r.RatingText(), address))
	}
	return Result{Content: strings.Join(lines, "\n")}
}

func (t *TravelTools) searchGeneralWeb(ctx context.Context, env *Env, args Args) Result {
	res, err := t.Search.Search(ctx, serp.Params{
		"engine": serp.EngineWeb,
		"q":      args.String("query"),
		"hl":     t.Language,
		"gl":     t.Region,
	})
	if err != nil {
		t.logf("web search failed: %v", err)
		return Result{Content: "Web search error."}
	}

	var lines []string
	for i, r := range res.OrganicResults {
		if i == 3 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Title, r.Snippet))
	}
	if len(lines) == 0 {
		return Result{Content: "No web results found."}
	}
	return Result{Content: strings.Join(lines, "\n")}
}
