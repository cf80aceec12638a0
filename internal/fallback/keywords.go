package fallback

import "strings"

type keyword struct {
	terms []string
	value string
}

var queryKeywords = []keyword{
	{[]string{"chair"}, "accent chair"},
	{[]string{"lamp"}, "table lamp"},
	{[]string{"sofa"}, "sofa"},
	{[]string{"table"}, "coffee table"},
	{[]string{"plant"}, "plant pot"},
	{[]string{"art", "painting"}, "wall art"},
	{[]string{"mirror"}, "wall mirror"},
	{[]string{"rug"}, "area rug"},
	{[]string{"shelf"}, "wall shelf"},
	{[]string{"cushion"}, "throw pillow"},
}

var itemTypes = []keyword{
	{[]string{"lamp", "light"}, "lighting"},
	{[]string{"chair", "sofa", "seat"}, "seating"},
	{[]string{"table"}, "table"},
	{[]string{"art", "painting", "mirror"}, "wall art"},
	{[]string{"plant", "planter"}, "plant"},
	{[]string{"rug", "carpet"}, "flooring"},
	{[]string{"shelf", "storage"}, "storage"},
}

// Query reduces an item description to a coarse shopping query by first
// keyword match, defaulting to "home decor".
func Query(description string) string {
	return match(queryKeywords, description, "home decor")
}

// ItemType labels an item description for status display, defaulting to "décor".
func ItemType(description string) string {
	return match(itemTypes, description, "décor")
}

func match(table []keyword, text, def string) string {
	lower := strings.ToLower(text)
	for _, k := range table {
		for _, term := range k.terms {
			if strings.Contains(lower, term) {
				return k.value
			}
		}
	}
	return def
}
