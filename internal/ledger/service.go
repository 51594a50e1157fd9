// Package ledger merges invoices, payments and pharmacy transactions from
// independently-paginated sources into one deduplicated, time-descending
// view with best-effort patient attribution.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caresys-hbs/caresys/internal/observability"
)

// Source supplies raw records of one kind for reconciliation.
type Source interface {
	Kind() Kind
	Fetch(ctx context.Context) ([]Raw, error)
}

// ReconcileOptions carries per-call reconciliation state. Suppressed is the
// persisted suppression flag passed in explicitly so behaviour stays
// deterministic under concurrent callers.
type ReconcileOptions struct {
	Local      []Record
	Suppressed bool
}

// Service coordinates source fetches and record merging.
type Service struct {
	logger       *slog.Logger
	sources      []Source
	fetchTimeout time.Duration
	metrics      *observability.Metrics
}

// NewService builds a Service instance. A zero fetchTimeout defaults to 10s.
func NewService(logger *slog.Logger, sources []Source, fetchTimeout time.Duration, metrics *observability.Metrics) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Service{logger: logger, sources: sources, fetchTimeout: fetchTimeout, metrics: metrics}
}

// Reconcile produces the unified ledger. Remote sources are fetched
// concurrently; a failing or timed-out source contributes an empty list and
// a warning rather than aborting the join. When the suppression flag is set
// remote data is skipped entirely and only local records are merged, so a
// locally-cleared view is not repopulated by a routine refresh. Inputs are
// never mutated and identical inputs yield identical output.
func (s *Service) Reconcile(ctx context.Context, opts ReconcileOptions) ([]Record, []Warning, error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveReconcile(time.Since(started))
	}()

	var warnings []Warning
	remote := make([][]Record, len(s.sources))

	if !opts.Suppressed {
		g, gctx := errgroup.WithContext(ctx)
		warnCh := make(chan Warning, len(s.sources))
		for i, src := range s.sources {
			g.Go(func() error {
				fetchCtx, cancel := context.WithTimeout(gctx, s.fetchTimeout)
				defer cancel()
				raws, err := src.Fetch(fetchCtx)
				if err != nil {
					s.logger.Warn("ledger source fetch failed",
						slog.String("source", string(src.Kind())),
						slog.Any("error", err))
					s.metrics.CountSourceFailure(string(src.Kind()))
					warnCh <- Warning{Source: src.Kind(), Message: err.Error()}
					return nil
				}
				records := make([]Record, 0, len(raws))
				for _, raw := range raws {
					records = append(records, Normalize(src.Kind(), raw))
				}
				remote[i] = records
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
		close(warnCh)
		for w := range warnCh {
			warnings = append(warnings, w)
		}
	}

	merged := merge(opts.Local, remote)
	labelMergedPayments(merged)
	enrichPatientLinks(merged)
	for i := range merged {
		if merged[i].PatientName == "" {
			merged[i].PatientName = UnknownPatient
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		if !merged[a].Timestamp.Equal(merged[b].Timestamp) {
			return merged[a].Timestamp.After(merged[b].Timestamp)
		}
		return merged[a].Number < merged[b].Number
	})
	return merged, warnings, nil
}

// merge folds local and remote records into a map keyed by dedupe identity.
// First-seen wins, and local records are inserted first so optimistic local
// state takes precedence over slower remote duplicates of the same key.
func merge(local []Record, remote [][]Record) []Record {
	seen := make(map[string]struct{})
	var out []Record

	add := func(rec Record) {
		key := dedupeKey(rec)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if rec.Display == "" {
			rec.Display = FormatAmount(rec.Amount)
		}
		out = append(out, rec)
	}

	for _, rec := range local {
		rec.Local = true
		add(rec)
	}
	for _, records := range remote {
		for _, rec := range records {
			add(rec)
		}
	}
	return out
}
