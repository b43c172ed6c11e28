package layout

// DefaultColor fills tag cells whose tag has no palette entry.
const DefaultColor = "FFFF00"

// Palette holds the pastel fill of each duration tag, as RGB hex.
var Palette = map[string]string{
	"1H":  "FFFF99",
	"2H":  "FFE0B3",
	"3H":  "B3FFB3",
	"4H":  "B3E0FF",
	"5H":  "FFB3E0",
	"6H":  "E0B3FF",
	"DÍA": "FFD9B3",
	"SEM": "B3FFE0",
	"MES": "D9D9D9",
}

// Color returns the fill for tag.
func Color(tag string) string {
	if c, ok := Palette[tag]; ok {
		return c
	}
	return DefaultColor
}
