// Package memory records trade outcomes and per-session market context, and
// aggregates them into accuracy statistics for the dashboard.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"synr/internal/domain"
	"synr/internal/flow"
	"synr/internal/store"
	"synr/internal/util"
)

// System ties the reflection flow to persistent reflection and session
// storage.
type System struct {
	flows       flow.Service
	reflections store.ReflectionStore
	sessions    store.SessionStore
	log         *slog.Logger
}

// NewSystem creates a System.
func NewSystem(flows flow.Service, reflections store.ReflectionStore, sessions store.SessionStore, log *slog.Logger) *System {
	return &System{flows: flows, reflections: reflections, sessions: sessions, log: log}
}

// RecordReflection runs the reflection flow for a concluded signal and
// persists the result.
func (s *System) RecordReflection(ctx context.Context, in flow.ReflectionInput) (*domain.TradeReflection, error) {
	out, err := s.flows.ReflectOnTrade(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("reflecting on %s %s: %w", in.SignalType, in.Asset, err)
	}

	reflection := domain.TradeReflection{
		Asset:              in.Asset,
		SignalType:         in.SignalType,
		SignalPrice:        in.SignalPrice,
		PredictedDirection: in.PredictedDirection,
		Confidence:         in.Confidence,
		ActualOutcome:      in.ActualOutcome,
		OutcomeReason:      in.ReasonForActualOutcome,
		ReflectionNote:     out.ReflectionNote,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.reflections.SaveReflection(ctx, &reflection); err != nil {
		return nil, fmt.Errorf("saving reflection: %w", err)
	}

	s.log.Info("recorded trade reflection",
		"id", reflection.ID, "asset", reflection.Asset,
		"signal", string(reflection.SignalType), "outcome", reflection.ActualOutcome)
	return &reflection, nil
}

// History returns recorded reflections, newest first.
func (s *System) History(ctx context.Context, limit int) ([]domain.TradeReflection, error) {
	return s.reflections.ListReflections(ctx, limit)
}

// Stats summarises signal accuracy across all recorded reflections.
type Stats struct {
	Total         int     `json:"total"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"winRate"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// AccuracyStats aggregates all recorded reflections. Outcomes containing
// "Win" count as wins, "Loss" as losses; anything else is counted in the
// total only.
func (s *System) AccuracyStats(ctx context.Context) (*Stats, error) {
	reflections, err := s.reflections.ListReflections(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(reflections)}
	var confSum float64
	for _, r := range reflections {
		confSum += r.Confidence
		switch {
		case strings.Contains(r.ActualOutcome, "Win"):
			stats.Wins++
		case strings.Contains(r.ActualOutcome, "Loss"):
			stats.Losses++
		}
	}
	if decided := stats.Wins + stats.Losses; decided > 0 {
		stats.WinRate = float64(stats.Wins) / float64(decided)
	}
	if stats.Total > 0 {
		stats.AvgConfidence = confSum / float64(stats.Total)
	}
	return stats, nil
}

// RecordSessionContext stores the mood of a trading session. When the date
// or session type is empty they are derived from the current time.
func (s *System) RecordSessionContext(ctx context.Context, sc *domain.SessionContext) error {
	now := time.Now().UTC()
	if sc.SessionDate == "" {
		sc.SessionDate = util.SessionDate(now)
	}
	if sc.SessionType == "" {
		sc.SessionType = util.SessionAt(now)
	}
	return s.sessions.SaveSessionContext(ctx, sc)
}

// SessionContexts returns all contexts recorded for a date.
func (s *System) SessionContexts(ctx context.Context, date string) ([]domain.SessionContext, error) {
	return s.sessions.ListSessionContexts(ctx, date)
}
