package medicine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/metrics"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Store is the persistence surface the service needs. *Repository is the
// production implementation; tests substitute an in-memory one.
type Store interface {
	List(ctx context.Context, userID types.ID) ([]Medicine, error)
	Get(ctx context.Context, userID, medicineID types.ID) (*Medicine, error)
	Add(ctx context.Context, userID types.ID, m *Medicine) error
	Update(ctx context.Context, userID, medicineID types.ID, m *Medicine) (*Medicine, error)
	Remove(ctx context.Context, userID, medicineID types.ID) error
	AppendHistory(ctx context.Context, userID, medicineID types.ID, entry HistoryEntry) error
}

// Service implements scheduling operations on top of the store.
type Service struct {
	repo   Store
	logger *slog.Logger
}

// NewService creates a new medicine service
func NewService(repo Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns all medicines for a user, due and dormant alike.
func (s *Service) List(ctx context.Context, userID types.ID) ([]Medicine, error) {
	return s.repo.List(ctx, userID)
}

// Create validates and stores a new medicine.
func (s *Service) Create(ctx context.Context, userID types.ID, m *Medicine) (*Medicine, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	m.ID = types.NewID()
	m.History = []HistoryEntry{}
	m.LastStatus = nil
	m.LastTaken = nil
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.repo.Add(ctx, userID, m); err != nil {
		return nil, err
	}

	metrics.RecordMedicineCreated()
	s.logger.Info("medicine created",
		"user_id", userID,
		"medicine_id", m.ID,
		"frequency", m.Frequency,
	)
	return m, nil
}

// Update merges a partial update into an existing medicine. The merged
// result must still validate, so a patch cannot leave a weekly medicine
// without weekdays or flip the frequency without the matching payload.
// Only the validated merged medicine reaches the store; the raw request
// map is discarded after merging, so a wrong-typed or unknown field can
// never land in the stored document.
func (s *Service) Update(ctx context.Context, userID, medicineID types.ID, patch map[string]any) (*Medicine, error) {
	current, err := s.repo.Get(ctx, userID, medicineID)
	if err != nil {
		return nil, err
	}

	merged := *current
	applyPatch(&merged, patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, userID, medicineID, &merged)
}

// Delete removes a medicine and its history.
func (s *Service) Delete(ctx context.Context, userID, medicineID types.ID) error {
	return s.repo.Remove(ctx, userID, medicineID)
}

// DueItem is a medicine projected onto a single schedule day.
type DueItem struct {
	ID        types.ID `json:"id"`
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage"`
	Time      string   `json:"time"`
	Notes     string   `json:"notes,omitempty"`
	Completed bool     `json:"completed"`
}

// DueToday returns the medicines due on the given date, ordered by time of
// day with name as tiebreaker.
func (s *Service) DueToday(ctx context.Context, userID types.ID, today types.Date) ([]DueItem, error) {
	medicines, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dueOn(medicines, today), nil
}

// Progress summarizes adherence for one day.
type Progress struct {
	Date      types.Date `json:"date"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Pending   int        `json:"pending"`
	Percent   int        `json:"progress"`
}

// DailyProgress computes the completion ratio for the given date. A day
// with nothing due reports zero percent rather than dividing by zero.
func (s *Service) DailyProgress(ctx context.Context, userID types.ID, day types.Date) (*Progress, error) {
	due, err := s.DueToday(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	p := &Progress{Date: day, Total: len(due)}
	for _, item := range due {
		if item.Completed {
			p.Completed++
		}
	}
	p.Pending = p.Total - p.Completed
	if p.Total > 0 {
		p.Percent = p.Completed * 100 / p.Total
	}
	return p, nil
}

// Schedule expands recurrence rules over an inclusive date window, keyed
// by YYYY-MM-DD. An inverted window (start after end) yields an empty
// schedule, not an error.
func (s *Service) Schedule(ctx context.Context, userID types.ID, start, end types.Date) (map[string][]DueItem, error) {
	medicines, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	schedule := map[string][]DueItem{}
	for d := start; !d.After(end); d = d.AddDays(1) {
		schedule[d.String()] = dueOn(medicines, d)
	}
	return schedule, nil
}

// MarkStatus records one adherence entry for the given date. The entry's
// time of day is taken from the wall clock at call time. A repeated
// completed mark for the same day surfaces as a Conflict from the store.
func (s *Service) MarkStatus(ctx context.Context, userID, medicineID types.ID, completed bool, day types.Date) error {
	entry := HistoryEntry{
		Date:      day,
		Time:      time.Now().Format("15:04"),
		Completed: completed,
	}

	err := s.repo.AppendHistory(ctx, userID, medicineID, entry)
	switch {
	case err == nil:
		metrics.RecordMedicineStatusMarked(completed, "recorded")
	case errors.IsConflict(err):
		metrics.RecordMedicineStatusMarked(completed, "duplicate")
	}
	if err != nil {
		return err
	}

	s.logger.Info("medicine status recorded",
		"user_id", userID,
		"medicine_id", medicineID,
		"date", day,
		"completed", completed,
	)
	return nil
}

// dueOn filters and orders the due list for one date.
func dueOn(medicines []Medicine, d types.Date) []DueItem {
	items := []DueItem{}
	for i := range medicines {
		m := &medicines[i]
		if !m.Recurrence().DueOn(d) {
			continue
		}
		items = append(items, DueItem{
			ID:        m.ID,
			Name:      m.Name,
			Dosage:    m.Dosage,
			Time:      m.Time,
			Notes:     m.Notes,
			Completed: m.CompletedOn(d),
		})
	}

	sort.Slice(items, func(a, b int) bool {
		if items[a].Time != items[b].Time {
			return items[a].Time < items[b].Time
		}
		return items[a].Name < items[b].Name
	})
	return items
}

// applyPatch overlays known patch fields onto a medicine copy. Unknown
// and wrong-typed keys are dropped; the copy is all that is ever written
// back. Changing the frequency resets every recurrence payload, so the
// stored document never carries a payload from a previous frequency.
func applyPatch(m *Medicine, patch map[string]any) {
	if v, ok := patch["name"].(string); ok {
		m.Name = v
	}
	if v, ok := patch["dosage"].(string); ok {
		m.Dosage = v
	}
	if v, ok := patch["time"].(string); ok {
		m.Time = v
	}
	if v, ok := patch["notes"].(string); ok {
		m.Notes = v
	}
	if v, ok := patch["frequency"].(string); ok {
		m.Frequency = FrequencyKind(v)
		m.Days = nil
		m.DaysOfMonth = nil
		m.Dates = nil
	}
	if v, ok := patch["days"].([]any); ok {
		m.Days = toStrings(v)
	}
	if v, ok := patch["days_of_month"].([]any); ok {
		m.DaysOfMonth = toInts(v)
	}
	if v, ok := patch["dates"].([]any); ok {
		m.Dates = toStrings(v)
	}
}

func toStrings(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInts(vals []any) []int {
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
