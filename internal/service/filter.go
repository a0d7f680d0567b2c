package service

import (
	"sort"
	"strings"

	"github.com/remindly/remindly-api/internal/domain"
)

// visibleNotes applies the active search text and selected tags to the full
// working set and returns the visible sequence:
//
//  1. A non-empty trimmed, lowercased search keeps only notes whose
//     title + "\n" + content contains it as a lowercase substring.
//  2. Selected tags keep only notes whose lowercased tag set is a superset
//     of the selection (AND semantics).
//  3. The remainder is sorted by ModifiedAt descending; ties keep their
//     load order (stable sort).
//
// The input slice is not modified.
func visibleNotes(all []*domain.Note, searchText string, selectedTags map[string]struct{}) []*domain.Note {
	search := strings.ToLower(strings.TrimSpace(searchText))

	visible := make([]*domain.Note, 0, len(all))
	for _, note := range all {
		if search != "" {
			haystack := strings.ToLower(note.Title + "\n" + note.Content)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if len(selectedTags) > 0 && !hasAllTags(note, selectedTags) {
			continue
		}
		visible = append(visible, note)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].ModifiedAt.After(visible[j].ModifiedAt)
	})

	return visible
}

// hasAllTags reports whether the note's lowercased tag set contains every
// selected tag.
func hasAllTags(note *domain.Note, selected map[string]struct{}) bool {
	noteTags := make(map[string]struct{}, len(note.Tags))
	for _, tag := range note.Tags {
		noteTags[strings.ToLower(tag)] = struct{}{}
	}
	for tag := range selected {
		if _, ok := noteTags[tag]; !ok {
			return false
		}
	}
	return true
}

// buildTagIndex derives the tag index from the full note set: every tag is
// lowercased and trimmed, empties are dropped, duplicates collapse, and the
// result is sorted ascending.
func buildTagIndex(all []*domain.Note) []string {
	seen := make(map[string]struct{})
	for _, note := range all {
		for _, tag := range note.Tags {
			normalized := domain.NormalizeTag(tag)
			if normalized == "" {
				continue
			}
			seen[normalized] = struct{}{}
		}
	}

	index := make([]string, 0, len(seen))
	for tag := range seen {
		index = append(index, tag)
	}
	sort.Strings(index)
	return index
}

// normalizeTagSet lowercases and trims a tag selection into set form,
// dropping empties.
func normalizeTagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := domain.NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
