package backstore

import (
	"context"
	"fmt"

	"github.com/goliatone/go-disqus-backstore/model"
)

// Mutation changes one field remotely. Apply receives the stored and the
// requested value so it can pick a direction; Allowed, when set, rejects
// transitions the remote API cannot perform. Final mutations are dispatched
// after every other change of the same update.
type Mutation struct {
	Operation string
	Final     bool
	Allowed   func(old, new any) bool
	Apply     func(ctx context.Context, src Source, id int64, old, new any) error
}

func (m Mutation) allows(old, new any) bool {
	return m.Allowed == nil || m.Allowed(old, new)
}

// MutationTable maps a local field name to its mutation. Fields listed in
// Unsupported are known to have no remote mutation.
type MutationTable struct {
	Mutations   map[string]Mutation
	Unsupported []string
}

// validate checks that every field of meta is either mutable or explicitly
// unsupported, and that the table names no unknown field.
func (t MutationTable) validate(meta *model.Meta) error {
	entity := meta.Entity()
	seen := make(map[string]bool)

	for name, m := range t.Mutations {
		if _, err := meta.GetField(name); err != nil {
			return errMutationTable(entity, name, "does not exist")
		}
		if m.Apply == nil {
			return errMutationTable(entity, name, "has no Apply")
		}
		seen[name] = true
	}
	for _, name := range t.Unsupported {
		if _, err := meta.GetField(name); err != nil {
			return errMutationTable(entity, name, "does not exist")
		}
		if seen[name] {
			return errMutationTable(entity, name, "is both mutable and unsupported")
		}
		seen[name] = true
	}
	for _, f := range meta.Fields() {
		if f.PrimaryKey {
			continue
		}
		if !seen[f.Name] {
			return errMutationTable(entity, f.Name, "is not covered")
		}
	}
	return nil
}

func toggle(onTrue, onFalse func(ctx context.Context, src Source, id int64) error) func(context.Context, Source, int64, any, any) error {
	return func(ctx context.Context, src Source, id int64, _, new any) error {
		if b, _ := new.(bool); b {
			return onTrue(ctx, src, id)
		}
		return onFalse(ctx, src, id)
	}
}

func onlyTrue(op func(ctx context.Context, src Source, id int64) error) func(context.Context, Source, int64, any, any) error {
	return func(ctx context.Context, src Source, id int64, _, _ any) error {
		return op(ctx, src, id)
	}
}

func becomesTrue(_, new any) bool {
	b, _ := new.(bool)
	return b
}

// ThreadMutations is the default thread mutation table.
func ThreadMutations() MutationTable {
	return MutationTable{
		Mutations: map[string]Mutation{
			model.FieldIsClosed: {
				Operation: "threads/close|threads/open",
				Apply: toggle(
					func(ctx context.Context, src Source, id int64) error { return src.CloseThread(ctx, id) },
					func(ctx context.Context, src Source, id int64) error { return src.OpenThread(ctx, id) },
				),
			},
			model.FieldIsDeleted: {
				Operation: "threads/remove|threads/restore",
				Final:     true,
				Apply: toggle(
					func(ctx context.Context, src Source, id int64) error { return src.RemoveThread(ctx, id) },
					func(ctx context.Context, src Source, id int64) error { return src.RestoreThread(ctx, id) },
				),
			},
		},
		Unsupported: []string{model.FieldForum, model.FieldTitle, model.FieldLink, model.FieldIsSpam},
	}
}

// PostMutations is the default post mutation table. Approval, spam and
// removal can only be switched on. A message edit reaches the post before it
// is flagged as spam or removed.
func PostMutations() MutationTable {
	return MutationTable{
		Mutations: map[string]Mutation{
			model.FieldIsApproved: {
				Operation: "posts/approve",
				Allowed:   becomesTrue,
				Apply:     onlyTrue(func(ctx context.Context, src Source, id int64) error { return src.ApprovePost(ctx, id) }),
			},
			model.FieldIsSpam: {
				Operation: "posts/spam",
				Final:     true,
				Allowed:   becomesTrue,
				Apply:     onlyTrue(func(ctx context.Context, src Source, id int64) error { return src.SpamPost(ctx, id) }),
			},
			model.FieldIsDeleted: {
				Operation: "posts/remove",
				Final:     true,
				Allowed:   becomesTrue,
				Apply:     onlyTrue(func(ctx context.Context, src Source, id int64) error { return src.RemovePost(ctx, id) }),
			},
			model.FieldMessage: {
				Operation: "posts/update",
				Apply: func(ctx context.Context, src Source, id int64, _, new any) error {
					msg, ok := new.(string)
					if !ok {
						return fmt.Errorf("message must be a string, got %T", new)
					}
					return src.UpdatePostMessage(ctx, id, msg)
				},
			},
		},
		Unsupported: []string{model.FieldForum, model.FieldThread},
	}
}
