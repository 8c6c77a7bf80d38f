package domain

// Limits applied to generated content. Oversized fields are truncated, never
// rejected, so both the model path and the fallback path satisfy them.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MaxTags           = 5
)

// GeneratedContent is the announcement copy for one recording. Both generator
// paths (model-backed and local fallback) produce this exact shape.
type GeneratedContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Clamp returns a copy with the content limits enforced. Truncation operates
// on runes, not bytes.
func (c GeneratedContent) Clamp() GeneratedContent {
	c.Title = TruncateRunes(c.Title, MaxTitleLen)
	c.Description = TruncateRunes(c.Description, MaxDescriptionLen)
	if len(c.Tags) > MaxTags {
		c.Tags = c.Tags[:MaxTags]
	}
	return c
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
