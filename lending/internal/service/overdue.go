package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// ComputeOverdue picks the open records past their due date. transition
// holds those still persisted as BORROWED, all holds every match with
// status OVERDUE. It has no side effects.
func ComputeOverdue(records []model.Lending, now time.Time) (transition, all []model.Lending) {
	all = make([]model.Lending, 0, len(records))
	for _, l := range records {
		if model.DeriveStatus(l.ReturnedAt, l.DueDate, now) != model.StatusOverdue {
			continue
		}
		if l.Status == model.StatusBorrowed {
			transition = append(transition, l)
		}
		l.Status = model.StatusOverdue
		all = append(all, l)
	}
	return transition, all
}

// ApplyOverdueTransitions persists BORROWED -> OVERDUE for every open record
// past its due date and returns all of them. Each record is moved with a
// conditional update, so repeated or concurrent calls transition it once.
func (s *Service) ApplyOverdueTransitions(ctx context.Context) ([]model.Lending, error) {
	now := s.clock.Now()
	records, err := s.repo.ListLendings(ctx, model.LendingFilter{Status: model.StatusOverdue}, now)
	if err != nil {
		return nil, err
	}

	transition, all := ComputeOverdue(records, now)
	for _, l := range transition {
		changed, err := s.repo.TransitionStatus(ctx, l.ID, model.StatusBorrowed, model.StatusOverdue)
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}
		s.log.Info("lending overdue", zap.String("lending_id", l.ID), zap.Time("due_date", l.DueDate))
		s.auditor.Record(ctx, model.AuditEvent{
			UserID:      model.SystemUserID,
			Action:      model.ActionUpdate,
			Entity:      model.AuditEntityLending,
			EntityID:    l.ID,
			Description: "Marked overdue.",
		})
	}
	return all, nil
}

// ListOverdue is a side-effecting read: it applies pending overdue
// transitions before answering. Use CountOverdue for a pure read.
func (s *Service) ListOverdue(ctx context.Context) ([]model.Lending, error) {
	return s.ApplyOverdueTransitions(ctx)
}
