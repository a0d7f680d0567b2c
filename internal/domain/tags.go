package domain

import "strings"

// ParseTags splits free text on commas into a tag list. Each token is
// trimmed of surrounding whitespace and empty tokens are dropped. Order and
// casing are preserved exactly as entered; lowercasing happens only at
// index-build and filter time, never here.
func ParseTags(text string) []string {
	parts := strings.Split(text, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags renders a tag list back to the free-text form accepted by
// ParseTags. Round-tripping through ParseTags is lossless for valid tags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// NormalizeTag returns the lowercase trimmed form of a tag used for the tag
// index and for filter comparisons. Returns "" for tags that are empty
// after trimming.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
