package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"synr/internal/domain"
	"synr/internal/flow"
	"synr/internal/store"
)

// Archiver appends analysed insights to long-term storage.
type Archiver interface {
	ArchiveInsights(ctx context.Context, insights []domain.NewsInsight) error
}

// Service analyses news articles through the AI flow layer and manages the
// resulting insight feed.
type Service struct {
	flows    flow.Service
	insights store.InsightStore
	archive  Archiver // may be nil
	log      *slog.Logger

	// notify, when set, is called for every newly analysed insight so the
	// dashboard can push it to connected clients.
	notify func(domain.NewsInsight)
}

// NewService creates a Service. archive may be nil to skip Parquet
// archiving.
func NewService(flows flow.Service, insights store.InsightStore, archive Archiver, log *slog.Logger) *Service {
	return &Service{flows: flows, insights: insights, archive: archive, log: log}
}

// OnInsight registers a callback invoked for every newly analysed insight.
func (s *Service) OnInsight(fn func(domain.NewsInsight)) {
	s.notify = fn
}

// Analyze runs one article through the news analysis flow, persists the
// resulting insight, and notifies any registered listener.
func (s *Service) Analyze(ctx context.Context, article Article) (*domain.NewsInsight, error) {
	out, err := s.flows.AnalyzeNews(ctx, flow.NewsInput{
		Headline: article.Headline,
		Content:  article.Content,
		Source:   article.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing %q: %w", article.Headline, err)
	}

	ts := article.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	insight := domain.NewsInsight{
		ID:                   insightID(article.Headline, ts),
		Headline:             article.Headline,
		AISummary:            out.Summary,
		Sentiment:            out.Sentiment.Label,
		ExpectedGoldReaction: out.ImpactEstimation.Direction,
		Source:               article.Source,
		Timestamp:            ts,
	}
	if out.ImpactEstimation.Confidence != nil {
		insight.Confidence = *out.ImpactEstimation.Confidence
	}

	if err := s.insights.SaveInsight(ctx, &insight); err != nil {
		return nil, fmt.Errorf("saving insight: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.ArchiveInsights(ctx, []domain.NewsInsight{insight}); err != nil {
			s.log.Error("archiving insight", "id", insight.ID, "error", err)
		}
	}

	if s.notify != nil {
		s.notify(insight)
	}
	return &insight, nil
}

// Recent returns the most recent insights, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.NewsInsight, error) {
	return s.insights.ListInsights(ctx, limit)
}

// FlagIrrelevant marks an insight as irrelevant to gold trading.
func (s *Service) FlagIrrelevant(ctx context.Context, id string) error {
	return s.insights.FlagIrrelevant(ctx, id)
}

// insightID derives a stable ID from the headline and publication time, so
// re-analysing the same article replaces its insight instead of duplicating
// it.
func insightID(headline string, ts time.Time) string {
	sum := sha1.Sum([]byte(headline + "|" + strconv.FormatInt(ts.UnixMilli(), 10)))
	return hex.EncodeToString(sum[:8])
}
