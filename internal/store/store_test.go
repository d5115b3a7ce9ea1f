package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timerRecord struct {
	Name       string `json:"name"`
	CalendarID string `json:"calendarId"`
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", DefaultFileName))
	require.NoError(t, err)

	timers := []timerRecord{}
	found, err := s.Get(KeyTimers, &timers)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, timers)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyTimers, []timerRecord{{Name: "deep-work", CalendarID: "primary"}}))
	require.NoError(t, s.Set(KeyActiveTimers, map[string]string{"deep-work": "2026-10-14T09:30:00.000Z"}))

	reopened, err := Open(path)
	require.NoError(t, err)

	var timers []timerRecord
	found, err := reopened.Get(KeyTimers, &timers)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []timerRecord{{Name: "deep-work", CalendarID: "primary"}}, timers)

	active := map[string]string{}
	_, err = reopened.Get(KeyActiveTimers, &active)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14T09:30:00.000Z", active["deep-work"])
}

func TestFileStoreWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyToken, "sealed"))
	require.NoError(t, s.Delete(KeyToken))
	require.NoError(t, s.Delete("never-set"))

	reopened, err := Open(path)
	require.NoError(t, err)
	var token string
	found, err := reopened.Get(KeyToken, &token)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestFileStoreDecodeMismatch(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyTimers, "not-a-list"))

	var timers []timerRecord
	found, err := s.Get(KeyTimers, &timers)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestFileStoreFlush(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	assert.NoError(t, s.Flush())
}

func TestFileStoreSharedFileKeepsOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	first, err := Open(path)
	require.NoError(t, err)
	second, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, first.Set(KeyTimers, []timerRecord{{Name: "deep-work", CalendarID: "primary"}}))
	require.NoError(t, second.Set(KeyActiveTimers, map[string]string{"deep-work": "2026-10-14T09:30:00.000Z"}))
	require.NoError(t, first.Set(KeyToken, "sealed"))

	var timers []timerRecord
	found, err := second.Get(KeyTimers, &timers)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "deep-work", timers[0].Name)

	active := map[string]string{}
	found, err = first.Get(KeyActiveTimers, &active)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2026-10-14T09:30:00.000Z", active["deep-work"])
}

func TestFileStoreUpdateIsAtomicAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	stores := make([]*FileStore, 2)
	for i := range stores {
		s, err := Open(path)
		require.NoError(t, err)
		stores[i] = s
	}

	const rounds = 25
	var wg sync.WaitGroup
	for _, s := range stores {
		wg.Add(1)
		go func(s *FileStore) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				err := s.Update(func(tx Tx) error {
					var n int
					if _, err := tx.Get("counter", &n); err != nil {
						return err
					}
					return tx.Set("counter", n+1)
				})
				assert.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	var n int
	_, err := stores[0].Get("counter", &n)
	require.NoError(t, err)
	assert.Equal(t, len(stores)*rounds, n)
}

func TestFileStoreUpdateErrorDiscardsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "before"))

	failure := errors.New("boom")
	err = s.Update(func(tx Tx) error {
		require.NoError(t, tx.Set("k", "after"))
		require.NoError(t, tx.Set("other", 1))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	var v string
	_, err = s.Get("k", &v)
	require.NoError(t, err)
	assert.Equal(t, "before", v)
	found, err := s.Get("other", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryUpdateErrorDiscardsWrites(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("k", "before"))

	err := m.Update(func(tx Tx) error {
		require.NoError(t, tx.Set("k", "after"))
		return errors.New("boom")
	})
	assert.Error(t, err)

	var v string
	_, err = m.Get("k", &v)
	require.NoError(t, err)
	assert.Equal(t, "before", v)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	original := []timerRecord{{Name: "a", CalendarID: "c"}}
	require.NoError(t, m.Set(KeyTimers, original))
	original[0].Name = "mutated"

	var got []timerRecord
	found, err := m.Get(KeyTimers, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", got[0].Name)

	raw, ok := m.Raw(KeyTimers)
	require.True(t, ok)
	assert.JSONEq(t, `[{"name":"a","calendarId":"c"}]`, string(raw))
}
