package backstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// fetchState is the raw payload shared by every query set of one lineage.
// The mutex is held across the fetch, so predicates never see a partial
// result and concurrent evaluations of the lineage fetch once.
type fetchState struct {
	mu      sync.Mutex
	scope   int64
	fetched bool
	data    *payload
}

// QuerySet is a lazy, chainable query over one entity kind. Filter and Exclude
// only accumulate predicates; the remote listing is fetched on the first
// evaluation (List, Get, Count, Exists) and reused by every clone.
type QuerySet[T Record] struct {
	entity entity[T]
	src    Source
	logger *zap.Logger

	preds []predicate
	state *fetchState
	err   error
}

func newQuerySet[T Record](e entity[T], src Source, logger *zap.Logger) *QuerySet[T] {
	return &QuerySet[T]{entity: e, src: src, logger: logger, state: &fetchState{}}
}

func (q *QuerySet[T]) clone() *QuerySet[T] {
	return &QuerySet[T]{
		entity: q.entity,
		src:    q.src,
		logger: q.logger,
		preds:  append([]predicate(nil), q.preds...),
		state:  q.state,
		err:    q.err,
	}
}

// Filter returns a query set restricted to records matching every lookup.
func (q *QuerySet[T]) Filter(lookups ...Lookup) *QuerySet[T] {
	return q.filterOrExclude(false, lookups)
}

// Exclude returns a query set without the records matching the lookups.
func (q *QuerySet[T]) Exclude(lookups ...Lookup) *QuerySet[T] {
	return q.filterOrExclude(true, lookups)
}

func (q *QuerySet[T]) filterOrExclude(negate bool, lookups []Lookup) *QuerySet[T] {
	c := q.clone()
	if c.err != nil {
		return c
	}
	for _, l := range lookups {
		p, err := compile(c.entity.meta(), l, negate)
		if err != nil {
			c.err = err
			return c
		}
		c.preds = append(c.preds, p)
	}
	c.rescope(q.state)
	return c
}

// rescope keeps the parent's payload unless the clone needs a narrower
// listing the parent has not fetched yet.
func (q *QuerySet[T]) rescope(parent *fetchState) {
	scope := q.scope()
	parent.mu.Lock()
	defer parent.mu.Unlock()
	if parent.fetched || parent.scope == scope {
		return
	}
	q.state = &fetchState{scope: scope}
}

// scope is the thread of the first exact thread predicate, or zero.
func (q *QuerySet[T]) scope() int64 {
	for _, p := range q.preds {
		if p.kind != predThread {
			continue
		}
		if id, ok := p.single(); ok {
			return id
		}
	}
	return 0
}

// All returns a copy of the query set.
func (q *QuerySet[T]) All() *QuerySet[T] {
	return q.clone()
}

// OrderBy is accepted for compatibility; the remote side orders results.
func (q *QuerySet[T]) OrderBy(...string) *QuerySet[T] {
	return q.clone()
}

// SelectRelated is accepted for compatibility; relations are always resolved.
func (q *QuerySet[T]) SelectRelated(...string) *QuerySet[T] {
	return q.clone()
}

// Using is accepted for compatibility; there is a single remote source.
func (q *QuerySet[T]) Using(string) *QuerySet[T] {
	return q.clone()
}

// Err returns the first lookup error accumulated by Filter or Exclude.
func (q *QuerySet[T]) Err() error {
	return q.err
}

// List evaluates the query set.
func (q *QuerySet[T]) List(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}

	data, err := q.load(ctx)
	if err != nil {
		return nil, err
	}

	records, err := q.entity.assemble(data)
	if err != nil {
		return nil, err
	}
	return q.apply(records), nil
}

// Count returns the number of matching records.
func (q *QuerySet[T]) Count(ctx context.Context) (int, error) {
	records, err := q.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Exists reports whether any record matches.
func (q *QuerySet[T]) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	return n > 0, err
}

// Get narrows the query set by lookups and collapses it to at most one
// record. The bool is false when nothing matched; more than one match is a
// MultipleObjectsReturned error.
func (q *QuerySet[T]) Get(ctx context.Context, lookups ...Lookup) (T, bool, error) {
	var zero T

	c := q.Filter(lookups...)
	if c.err != nil {
		return zero, false, c.err
	}

	var (
		records []T
		err     error
	)
	if id, ok := c.exactID(); ok && c.entity.useDetailForGet() {
		records, err = c.viaDetail(ctx, id)
	} else {
		records, err = c.List(ctx)
	}
	if err != nil {
		return zero, false, err
	}

	switch len(records) {
	case 0:
		return zero, false, nil
	case 1:
		return records[0], true, nil
	default:
		return zero, false, errMultipleObjects(c.entity.meta().Entity(), len(records))
	}
}

func (q *QuerySet[T]) viaDetail(ctx context.Context, id int64) ([]T, error) {
	rec, found, err := q.entity.detail(ctx, q.src, id)
	if err != nil || !found {
		return nil, err
	}
	return q.apply([]T{rec}), nil
}

func (q *QuerySet[T]) exactID() (int64, bool) {
	for _, p := range q.preds {
		if p.kind != predID {
			continue
		}
		if id, ok := p.single(); ok {
			return id, true
		}
	}
	return 0, false
}

func (q *QuerySet[T]) load(ctx context.Context) (*payload, error) {
	s := q.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetched {
		return s.data, nil
	}

	data, err := q.entity.fetch(ctx, q.src, s.scope)
	if err != nil {
		return nil, err
	}
	s.data = data
	s.fetched = true

	q.logger.Debug("query set fetched",
		zap.String("entity", q.entity.meta().Entity()),
		zap.Int64("scope", s.scope),
	)
	return data, nil
}

func (q *QuerySet[T]) apply(records []T) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if q.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (q *QuerySet[T]) matches(rec T) bool {
	for _, p := range q.preds {
		var hit bool
		switch p.kind {
		case predID:
			hit = p.contains(rec.PrimaryKey())
		case predThread:
			thread, ok := q.entity.threadOf(rec)
			hit = ok && p.contains(thread)
		}
		if hit == p.negate {
			return false
		}
	}
	return true
}
