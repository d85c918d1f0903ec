package keywords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_DefaultWhenMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "keywords.json"))

	set, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Set{"UBER", "99"}, set)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(Set{"UBER", "99", "Táxi & Cia"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"keywords": [`)
	assert.Contains(t, string(data), "Táxi & Cia", "non-ASCII and & must be written literally")

	set, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Set{"UBER", "99", "Táxi & Cia"}, set)
}

func TestFileStore_LoadCleansEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.json")
	doc := `{"keywords": [" UBER ", "", "   ", "uber", "99"]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	set, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Set{"UBER", "uber", "99"}, set, "case variants survive a load")
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err := NewFileStore(bad).Load()
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)

	err = NewFileStore(filepath.Join(dir, "missing", "keywords.json")).Save(Set{"UBER"})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
}

func TestBoltStore(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "keywords.db"))
	require.NoError(t, err)
	defer store.Close()

	set, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSet(), set)

	require.NoError(t, store.Save(Set{"99", "Cabify"}))

	set, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, Set{"99", "Cabify"}, set)
}

type countingStore struct {
	set   Set
	saves int
	fail  error
}

func (s *countingStore) Load() (Set, error) { return s.set, nil }

func (s *countingStore) Save(set Set) error {
	if s.fail != nil {
		return s.fail
	}
	s.saves++
	s.set = set
	return nil
}

func TestService(t *testing.T) {
	store := &countingStore{set: DefaultSet()}
	svc := NewService(store, zerolog.Nop())

	set, err := svc.Add("Cabify")
	require.NoError(t, err)
	assert.Equal(t, Set{"UBER", "99", "Cabify"}, set)
	assert.Equal(t, 1, store.saves)

	_, err = svc.Add("CABIFY")
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves, "duplicate add must not write")

	_, err = svc.Remove("lyft")
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves, "removing an absent term must not write")

	set, err = svc.Remove("uber")
	require.NoError(t, err)
	assert.Equal(t, Set{"99", "Cabify"}, set)
	assert.Equal(t, 2, store.saves)

	_, err = svc.Add("  ")
	assert.ErrorIs(t, err, ErrEmptyTerm)
	assert.Equal(t, 2, store.saves)

	list, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, Set{"99", "Cabify"}, list)
}

func TestService_SaveFailureKeepsSet(t *testing.T) {
	boom := errors.New("disk full")
	store := &countingStore{set: DefaultSet(), fail: boom}
	svc := NewService(store, zerolog.Nop())

	set, err := svc.Add("Cabify")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultSet(), set)
	assert.Equal(t, DefaultSet(), store.set)
}
