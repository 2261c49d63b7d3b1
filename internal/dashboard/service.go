package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Service interface {
	// Summary always returns a renderable summary; load failures are logged
	// and yield Empty(p).
	Summary(ctx context.Context, p Period) Summary
}

type service struct {
	source Source
	clock  func() time.Time
	loc    *time.Location
}

func NewService(source Source, clock func() time.Time, loc *time.Location) Service {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{source: source, clock: clock, loc: loc}
}

func (s *service) Summary(ctx context.Context, p Period) Summary {
	in, err := s.source.Load(ctx)
	if err != nil {
		log.Error().Err(err).Str("period", string(p)).Msg("service: failed to load dashboard data, rendering empty summary")
		return Empty(p)
	}

	summary := Aggregate(in, p, s.clock().In(s.loc))
	log.Debug().
		Str("period", string(p)).
		Int("period_orders", summary.SalesSummary.PeriodOrders).
		Msg("service: dashboard aggregated")
	return summary
}
