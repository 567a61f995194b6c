package obs

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type ctxQueryKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// PGXTracer implements pgx.QueryTracer and logs statements that exceed the
// slow-query threshold.
type PGXTracer struct {
	Logger        zerolog.Logger
	SlowThreshold time.Duration
}

// TraceQueryStart records the statement and start time on the context.
func (t PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, ctxQueryKey{}, queryStart{sql: data.SQL, start: time.Now()})
}

// TraceQueryEnd logs failed and slow statements.
func (t PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(ctxQueryKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := time.Since(qs.start)
	threshold := t.SlowThreshold
	if threshold == 0 {
		threshold = 200 * time.Millisecond
	}
	switch {
	case data.Err != nil:
		t.Logger.Warn().Err(data.Err).Str("sql", truncateSQL(qs.sql)).Dur("elapsed", elapsed).Msg("query failed")
	case elapsed >= threshold:
		t.Logger.Debug().Str("sql", truncateSQL(qs.sql)).Dur("elapsed", elapsed).Msg("slow query")
	}
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}
