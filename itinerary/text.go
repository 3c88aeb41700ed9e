package itinerary

import (
	"os"
	"path/filepath"
)

const TextFileName = "My_Trip_Plan.txt"

// SaveText writes the plain-text copy into dir. An empty dir disables it and
// write failures are ignored; the path written (or "") is returned.
func SaveText(dir, content string) string {
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, TextFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return ""
	}
	return path
}
