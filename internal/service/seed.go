package service

import (
	"context"

	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/store"
)

// sampleNote describes one bootstrap note.
type sampleNote struct {
	title   string
	content string
	tags    []string
}

var sampleNotes = []sampleNote{
	{
		title:   "Welcome to Remindly",
		content: "# Remindly\n\n- Write notes\n- Add tags\n- Set reminders\n\nToggle markdown preview in the detail screen.",
		tags:    []string{"welcome", "tips"},
	},
	{
		title:   "Groceries",
		content: "- Milk\n- Eggs\n- Bread\n- Apples",
		tags:    []string{"home", "shopping"},
	},
	{
		title:   "Learning Plan",
		content: "Study Go, PostgreSQL, and notifications.",
		tags:    []string{"learning", "go"},
	},
}

// SeedSampleData implements NoteService.SeedSampleData.
//
// Seeding is best-effort: a first launch must never be blocked by sample
// content, so any failure along the way is logged and the method returns
// nil. The persisted flag guarantees the samples appear at most once even
// across restarts; it is only written after the inserts so a crashed seed
// attempt retries on the next start.
func (s *noteServiceImpl) SeedSampleData(ctx context.Context) error {
	seeded, err := s.flagStore.Get(ctx, store.FlagHasSeededSampleData)
	if err != nil {
		s.logger.Warn("failed to read seed flag, skipping sample data", "error", err)
		return nil
	}
	if seeded {
		return nil
	}

	s.mu.Lock()
	for _, sample := range sampleNotes {
		note, err := domain.NewNote(sample.title, sample.content, sample.tags)
		if err != nil {
			s.mu.Unlock()
			s.logger.Warn("failed to build sample note", "error", err, "title", sample.title)
			return nil
		}
		if err := s.noteStore.Create(ctx, note); err != nil {
			s.mu.Unlock()
			s.logger.Warn("failed to insert sample note", "error", err, "title", sample.title)
			return nil
		}
	}
	s.mu.Unlock()

	if err := s.flagStore.Set(ctx, store.FlagHasSeededSampleData, true); err != nil {
		s.logger.Warn("failed to persist seed flag", "error", err)
		return nil
	}

	s.logger.Info("sample data seeded", "count", len(sampleNotes))
	return nil
}
