package corpus

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyellow/campus-ai-go/internal/segment"
)

// Tag derives a source tag from a file name: extension removed, underscores
// turned into spaces, title-cased. "campus_room_inventory.txt" becomes
// "Campus Room Inventory". Tags are cut to segment.MaxTagRunes.
func Tag(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	// A Caser is stateful, so each call gets its own.
	tag := cases.Title(language.English).String(strings.TrimSpace(base))
	if runes := []rune(tag); len(runes) > segment.MaxTagRunes {
		tag = strings.TrimSpace(string(runes[:segment.MaxTagRunes]))
	}
	return tag
}
