package cache

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeQueryNotRegistered marks a Clear call for a category no function was registered under.
	TextCodeQueryNotRegistered = "QUERY_NOT_REGISTERED"
	// TextCodeAlreadyRegistered marks a second registration of the same function name.
	TextCodeAlreadyRegistered = "QUERY_ALREADY_REGISTERED"
)

func errQueryNotRegistered(category Category) error {
	return goerrors.New("category "+category.String()+" isn't registered", goerrors.CategoryNotFound).
		WithTextCode(TextCodeQueryNotRegistered).
		WithMetadata(map[string]any{"category": category.String()})
}

func errAlreadyRegistered(name string, category Category) error {
	return goerrors.New("query "+name+" is already registered under "+category.String(), goerrors.CategoryConflict).
		WithTextCode(TextCodeAlreadyRegistered).
		WithMetadata(map[string]any{"query": name, "category": category.String()})
}

// IsQueryNotRegistered reports whether err was raised for an unknown category.
func IsQueryNotRegistered(err error) bool {
	return hasTextCode(err, TextCodeQueryNotRegistered)
}

// IsAlreadyRegistered reports whether err was raised for a duplicate registration.
func IsAlreadyRegistered(err error) bool {
	return hasTextCode(err, TextCodeAlreadyRegistered)
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
