package backstore

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMultipleObjects     = "MULTIPLE_OBJECTS_RETURNED"
	TextCodeDoesNotExist        = "RECORD_NOT_FOUND"
	TextCodeUnsupportedMutation = "UNSUPPORTED_MUTATION"
	TextCodeUnsupportedLookup   = "UNSUPPORTED_LOOKUP"
	TextCodeMutationTable       = "INVALID_MUTATION_TABLE"
)

func errMultipleObjects(entity string, count int) error {
	return goerrors.New(fmt.Sprintf("get() returned more than one %s -- it returned %d!", entity, count), goerrors.CategoryConflict).
		WithTextCode(TextCodeMultipleObjects).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{"entity": entity, "count": count})
}

func errDoesNotExist(entity string, id int64) error {
	return goerrors.New(fmt.Sprintf("%s %d does not exist", entity, id), goerrors.CategoryNotFound).
		WithTextCode(TextCodeDoesNotExist).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{"entity": entity, "id": id})
}

func errUnsupportedMutation(entity, field string, old, new any) error {
	return goerrors.New(fmt.Sprintf("no remote mutation changes %s.%s from %v to %v", entity, field, old, new), goerrors.CategoryBadInput).
		WithTextCode(TextCodeUnsupportedMutation).
		WithMetadata(map[string]any{"entity": entity, "field": field, "old": old, "new": new})
}

func errUnsupportedLookup(entity, key, reason string) error {
	return goerrors.New(fmt.Sprintf("unsupported lookup %q on %s: %s", key, entity, reason), goerrors.CategoryBadInput).
		WithTextCode(TextCodeUnsupportedLookup).
		WithMetadata(map[string]any{"entity": entity, "lookup": key})
}

func errMutationTable(entity, field, reason string) error {
	return goerrors.New(fmt.Sprintf("%s mutation table: field %q %s", entity, field, reason), goerrors.CategoryInternal).
		WithTextCode(TextCodeMutationTable).
		WithMetadata(map[string]any{"entity": entity, "field": field})
}

// IsMultipleObjectsReturned reports whether a Get matched more than one record.
func IsMultipleObjectsReturned(err error) bool {
	return hasTextCode(err, TextCodeMultipleObjects)
}

// IsDoesNotExist reports whether an update targeted a missing record.
func IsDoesNotExist(err error) bool {
	return hasTextCode(err, TextCodeDoesNotExist)
}

// IsUnsupportedMutation reports whether an update changed a field no remote
// operation can change.
func IsUnsupportedMutation(err error) bool {
	return hasTextCode(err, TextCodeUnsupportedMutation)
}

// IsUnsupportedLookup reports whether a query used a lookup key or value the
// engine cannot evaluate.
func IsUnsupportedLookup(err error) bool {
	return hasTextCode(err, TextCodeUnsupportedLookup)
}

// IsInvalidMutationTable reports whether a manager was built with an
// inconsistent mutation table.
func IsInvalidMutationTable(err error) bool {
	return hasTextCode(err, TextCodeMutationTable)
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
