package backstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/goliatone/go-disqus-backstore/model"
)

// Lookup keys understood by Filter and Exclude.
const (
	LookupPK       = "pk"
	LookupID       = "id"
	LookupThread   = "thread"
	LookupThreadIn = "thread__in"
)

// Lookup is one key/value filter argument.
type Lookup struct {
	Key   string
	Value any
}

// L builds a lookup from a raw key, e.g. L("thread__in", ids).
func L(key string, value any) Lookup {
	return Lookup{Key: key, Value: value}
}

// ID matches the primary key.
func ID(id int64) Lookup {
	return Lookup{Key: LookupID, Value: id}
}

// PK is an alias of ID.
func PK(id int64) Lookup {
	return Lookup{Key: LookupPK, Value: id}
}

// ThreadIs matches posts of one thread. On a fresh post query it also selects
// the thread scoped listing endpoint.
func ThreadIs(id int64) Lookup {
	return Lookup{Key: LookupThread, Value: id}
}

// ThreadIn matches posts belonging to any of the given thread ids.
func ThreadIn(ids ...int64) Lookup {
	return Lookup{Key: LookupThreadIn, Value: ids}
}

// ThreadsIn matches posts belonging to any of the given threads.
func ThreadsIn(threads []model.Thread) Lookup {
	return Lookup{Key: LookupThreadIn, Value: threads}
}

type predicateKind int

const (
	predID predicateKind = iota
	predThread
)

type predicate struct {
	kind   predicateKind
	key    string
	ids    map[int64]struct{}
	negate bool
}

func (p predicate) contains(id int64) bool {
	_, ok := p.ids[id]
	return ok
}

// single returns the id of an exact, non negated predicate.
func (p predicate) single() (int64, bool) {
	if p.negate || len(p.ids) != 1 || p.key == LookupThreadIn {
		return 0, false
	}
	for id := range p.ids {
		return id, true
	}
	return 0, false
}

func compile(meta *model.Meta, l Lookup, negate bool) (predicate, error) {
	entity := meta.Entity()

	switch l.Key {
	case LookupPK, LookupID:
		id, err := toID(l.Value)
		if err != nil {
			return predicate{}, errUnsupportedLookup(entity, l.Key, err.Error())
		}
		return predicate{kind: predID, key: l.Key, ids: map[int64]struct{}{id: {}}, negate: negate}, nil

	case LookupThread, LookupThreadIn:
		f, err := meta.GetField(model.FieldThread)
		if err != nil || f.Kind != model.KindForeignKey {
			return predicate{}, errUnsupportedLookup(entity, l.Key, "no thread relation")
		}

		var ids map[int64]struct{}
		if l.Key == LookupThread {
			id, err := toID(l.Value)
			if err != nil {
				return predicate{}, errUnsupportedLookup(entity, l.Key, err.Error())
			}
			ids = map[int64]struct{}{id: {}}
		} else {
			ids, err = toIDSet(l.Value)
			if err != nil {
				return predicate{}, errUnsupportedLookup(entity, l.Key, err.Error())
			}
		}
		return predicate{kind: predThread, key: l.Key, ids: ids, negate: negate}, nil
	}

	if _, err := meta.GetField(l.Key); err == nil {
		return predicate{}, errUnsupportedLookup(entity, l.Key, "field cannot be filtered")
	}
	return predicate{}, errUnsupportedLookup(entity, l.Key, "unknown field")
}

func toID(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer id", x)
		}
		return id, nil
	case json.Number:
		return x.Int64()
	case model.Thread:
		return x.ID, nil
	case *model.Thread:
		if x == nil {
			return 0, fmt.Errorf("nil thread")
		}
		return x.ID, nil
	case model.Post:
		return x.ID, nil
	}
	return 0, fmt.Errorf("%T is not an id", v)
}

func toIDSet(v any) (map[int64]struct{}, error) {
	out := make(map[int64]struct{})
	add := func(id int64) { out[id] = struct{}{} }

	switch x := v.(type) {
	case []int64:
		for _, id := range x {
			add(id)
		}
	case []int:
		for _, id := range x {
			add(int64(id))
		}
	case []string:
		for _, s := range x {
			id, err := toID(s)
			if err != nil {
				return nil, err
			}
			add(id)
		}
	case []model.Thread:
		for _, t := range x {
			add(t.ID)
		}
	case []any:
		for _, item := range x {
			id, err := toID(item)
			if err != nil {
				return nil, err
			}
			add(id)
		}
	default:
		return nil, fmt.Errorf("%T is not a list of ids", v)
	}
	return out, nil
}
