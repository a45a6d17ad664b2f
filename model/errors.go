package model

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeFieldDoesNotExist marks metadata lookups of unknown field names.
	TextCodeFieldDoesNotExist = "FIELD_DOES_NOT_EXIST"
	// TextCodeMalformedRecord marks remote objects that cannot be assembled.
	TextCodeMalformedRecord = "MALFORMED_RECORD"
)

func errFieldDoesNotExist(entity, name string) error {
	return goerrors.New(entity+" has no field named "+name, goerrors.CategoryBadInput).
		WithTextCode(TextCodeFieldDoesNotExist).
		WithMetadata(map[string]any{"entity": entity, "field": name})
}

func errMalformed(entity, field string, err error) error {
	msg := "cannot assemble " + entity
	if field != "" {
		msg += " field " + field
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, msg).
		WithTextCode(TextCodeMalformedRecord).
		WithMetadata(map[string]any{"entity": entity, "field": field})
}

// IsFieldDoesNotExist reports whether err came from an unknown field lookup.
func IsFieldDoesNotExist(err error) bool {
	return hasTextCode(err, TextCodeFieldDoesNotExist)
}

// IsMalformedRecord reports whether err came from assembling a bad remote object.
func IsMalformedRecord(err error) bool {
	return hasTextCode(err, TextCodeMalformedRecord)
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
