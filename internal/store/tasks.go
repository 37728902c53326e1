package store

import (
	"context"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

// Tasks lists every task the assistant has shown in the conversation,
// latest snapshot per id, minus tasks merged away by an optimization.
func (s *Store) Tasks() []models.TaskView {
	var (
		order []int64
		byID  = map[int64]models.TaskRef{}
	)
	for _, m := range s.messages {
		for _, t := range m.Tasks {
			if _, seen := byID[t.ID]; !seen {
				order = append(order, t.ID)
			}
			byID[t.ID] = t
		}
	}

	out := make([]models.TaskView, 0, len(order))
	for _, id := range order {
		if s.removed[id] {
			continue
		}
		out = append(out, models.TaskView{TaskRef: byID[id], Status: s.Status(id)})
	}
	return out
}

// Status is the locally known status of task id.
func (s *Store) Status(id int64) models.TaskStatus {
	if st, ok := s.statuses[id]; ok {
		return st
	}
	return models.StatusNotStarted
}

// BeginTaskStatus sets the status of task id.
func (s *Store) BeginTaskStatus(id int64, status models.TaskStatus) (state.Runner, error) {
	call := func(ctx context.Context) (models.TaskStatusUpdate, error) {
		return s.api.UpdateTaskStatus(ctx, id, status)
	}
	return state.Start(s.TaskStatus, call, func(u models.TaskStatusUpdate) {
		s.statuses[u.ID] = u.Status
	})
}

// BeginCycleStatus advances task id to its next status.
func (s *Store) BeginCycleStatus(id int64) (state.Runner, error) {
	return s.BeginTaskStatus(id, s.Status(id).Next())
}

func (s *Store) ResetTaskStatus() { s.TaskStatus.Reset() }

func (s *Store) DailySummary() (models.DailySummary, bool) {
	if s.daily == nil {
		return models.DailySummary{}, false
	}
	return *s.daily, true
}

// BeginSummary refreshes the daily summary. A failure keeps the previous
// summary on screen.
func (s *Store) BeginSummary() (state.Runner, error) {
	return state.Start(s.Summary, s.api.DailySummary, func(d models.DailySummary) {
		s.daily = &d
	})
}
