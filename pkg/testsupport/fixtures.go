package testsupport

import (
	"embed"
	"encoding/json"
	"path"
	"testing"
)

//go:embed testdata/*.json
var fixtures embed.FS

// Fixture file names shipped with the package.
const (
	ThreadsFixture = "threads.json"
	PostsFixture   = "posts.json"
)

// Fixture returns the raw bytes of an embedded fixture.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fixtures.ReadFile(path.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load embedded fixture %s: %v", name, err)
	}
	return data
}

// FixtureJSON unmarshals an embedded fixture into dest.
func FixtureJSON(t testing.TB, name string, dest any) {
	t.Helper()

	if err := json.Unmarshal(Fixture(t, name), dest); err != nil {
		t.Fatalf("failed to unmarshal embedded fixture %s: %v", name, err)
	}
}

// RawRecords splits an embedded array fixture into its elements.
func RawRecords(t testing.TB, name string) []json.RawMessage {
	t.Helper()

	var records []json.RawMessage
	FixtureJSON(t, name, &records)
	return records
}
