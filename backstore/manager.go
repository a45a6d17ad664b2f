package backstore

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/model"
)

// Manager is the entry point for one entity kind: it hands out query sets and
// performs updates and deletes.
type Manager[T Record] struct {
	entity    entity[T]
	src       Source
	logger    *zap.Logger
	mutations MutationTable
}

// ThreadManager manages threads.
type ThreadManager = Manager[model.Thread]

// PostManager manages posts.
type PostManager = Manager[model.Post]

type managerOptions struct {
	logger    *zap.Logger
	mutations *MutationTable
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMutations replaces the default mutation table.
func WithMutations(table MutationTable) ManagerOption {
	return func(o *managerOptions) {
		o.mutations = &table
	}
}

// NewThreadManager builds a thread manager over src.
func NewThreadManager(src Source, opts ...ManagerOption) (*ThreadManager, error) {
	return newManager[model.Thread](threadEntity{}, src, ThreadMutations(), opts)
}

// NewPostManager builds a post manager over src.
func NewPostManager(src Source, opts ...ManagerOption) (*PostManager, error) {
	return newManager[model.Post](postEntity{}, src, PostMutations(), opts)
}

func newManager[T Record](e entity[T], src Source, defaults MutationTable, opts []ManagerOption) (*Manager[T], error) {
	o := managerOptions{logger: zap.NewNop(), mutations: &defaults}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.mutations.validate(e.meta()); err != nil {
		return nil, err
	}
	return &Manager[T]{
		entity:    e,
		src:       src,
		logger:    o.logger.With(zap.String("entity", e.meta().Entity())),
		mutations: *o.mutations,
	}, nil
}

// Meta returns the entity field metadata.
func (m *Manager[T]) Meta() *model.Meta {
	return m.entity.meta()
}

// Query returns a fresh, unevaluated query set.
func (m *Manager[T]) Query() *QuerySet[T] {
	return newQuerySet(m.entity, m.src, m.logger)
}

// All is Query().All().
func (m *Manager[T]) All() *QuerySet[T] {
	return m.Query()
}

// Filter is Query().Filter(lookups...).
func (m *Manager[T]) Filter(lookups ...Lookup) *QuerySet[T] {
	return m.Query().Filter(lookups...)
}

// Exclude is Query().Exclude(lookups...).
func (m *Manager[T]) Exclude(lookups ...Lookup) *QuerySet[T] {
	return m.Query().Exclude(lookups...)
}

// Get is Query().Get(ctx, lookups...).
func (m *Manager[T]) Get(ctx context.Context, lookups ...Lookup) (T, bool, error) {
	return m.Query().Get(ctx, lookups...)
}

// Count is Query().Count(ctx).
func (m *Manager[T]) Count(ctx context.Context) (int, error) {
	return m.Query().Count(ctx)
}

// Update reads the stored record with the same id through its detail
// endpoint, diffs it against record and dispatches one mutation per changed
// field. Every change is checked against the mutation table before the first
// remote call, so an unsupported change aborts without side effects. It
// returns the names of the fields that were changed.
func (m *Manager[T]) Update(ctx context.Context, record T) ([]string, error) {
	id := record.PrimaryKey()
	entityName := m.entity.meta().Entity()

	current, found, err := m.entity.detail(ctx, m.src, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errDoesNotExist(entityName, id)
	}

	type change struct {
		field    string
		old, new any
		mutation Mutation
	}

	var changes []change
	for _, f := range m.entity.meta().Fields() {
		if f.PrimaryKey {
			continue
		}
		oldVal, _ := current.FieldValue(f.Name)
		newVal, _ := record.FieldValue(f.Name)
		if oldVal == newVal {
			continue
		}

		mutation, ok := m.mutations.Mutations[f.Name]
		if !ok || !mutation.allows(oldVal, newVal) {
			return nil, errUnsupportedMutation(entityName, f.Name, oldVal, newVal)
		}
		changes = append(changes, change{field: f.Name, old: oldVal, new: newVal, mutation: mutation})
	}

	slices.SortStableFunc(changes, func(a, b change) int {
		switch {
		case a.mutation.Final == b.mutation.Final:
			return 0
		case b.mutation.Final:
			return -1
		default:
			return 1
		}
	})

	applied := make([]string, 0, len(changes))
	for _, c := range changes {
		m.logger.Info("dispatching mutation",
			zap.Int64("id", id),
			zap.String("field", c.field),
			zap.String("operation", c.mutation.Operation),
			zap.Any("old", c.old),
			zap.Any("new", c.new),
		)
		if err := c.mutation.Apply(ctx, m.src, id, c.old, c.new); err != nil {
			return applied, err
		}
		applied = append(applied, c.field)
	}
	return applied, nil
}

// Delete removes one record remotely.
func (m *Manager[T]) Delete(ctx context.Context, record T) error {
	m.logger.Info("deleting record", zap.Int64("id", record.PrimaryKey()))
	return m.entity.remove(ctx, m.src, record.PrimaryKey())
}

// DeleteMany removes several records in one bulk call. An empty slice makes
// no remote call.
func (m *Manager[T]) DeleteMany(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.PrimaryKey())
	}
	m.logger.Info("bulk deleting records", zap.Int64s("ids", ids))
	return m.entity.removeMany(ctx, m.src, ids)
}
