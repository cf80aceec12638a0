package prompts

const roomSpec = `Respond with a JSON object matching this exact structure:

{
  "layout": "<how furniture and open areas are arranged>",
  "roomType": "<living_room, bedroom, kitchen, office, outdoor_space, ...>",
  "style": "<dominant design style>",
  "colors": "<main colors>",
  "suggestions": "<one sentence improvement>",
  "environment": "indoor"
}

Field constraints:
- environment: exactly "indoor" or "outdoor"
- all fields are non-empty strings`

const critiqueSpec = `Respond with plain text only. No lists, no markdown, no JSON. Under 40 words.`

const recommendSpec = `Respond with a JSON object matching this exact structure:

{
  "targetItem": "<specific item description>",
  "placement": "horizontal",
  "priority": "<why this item matters most>",
  "category": "furniture"
}

Field constraints:
- targetItem: more than ten characters, one item only
- placement: "horizontal" (on surfaces or the floor), "vertical" (on walls), or "flooring" (covers the floor)
- category: "furniture", "lighting", "decor", "flooring", or "art"`

const previewSpec = `Respond with the prompt text only, no quotes and no commentary.`

const querySpec = `Respond with the search query only, three to six words, no punctuation.`

const productSpec = `Respond with a JSON object matching this exact structure:

{
  "name": "<product name>",
  "price": "<price with currency symbol>",
  "store": "<retailer name>",
  "description": "<one sentence>",
  "category": "<product category>"
}

All fields are required.`

const locateSpec = `Respond with a JSON object matching this exact structure:

{
  "city": "<city>",
  "country": "<country>",
  "region": "<region or state>"
}`

var specs = map[Stage]string{
	StageRoom:      roomSpec,
	StageCritique:  critiqueSpec,
	StageRecommend: recommendSpec,
	StagePreview:   previewSpec,
	StageQuery:     querySpec,
	StageProduct:   productSpec,
	StageLocate:    locateSpec,
}

// Spec returns the fixed output contract for stage. Specs are not overridable
// because parsers depend on them.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
