package entitlement

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "budget.json"))

	_, found, err := store.Load()

	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_RoundTrip(t *testing.T) {
	end := time.Date(2026, 11, 17, 12, 30, 15, 123456789, time.UTC)
	local := time.Now().In(time.FixedZone("MSK", 3*3600))

	statuses := []Status{
		None(),
		Lifetime(),
		{Kind: KindLifetime, HasExternalSubscription: true},
		Trial(local),
		Monthly(end),
		{Kind: KindMonthly, EndDate: &end, HasExternalSubscription: true},
	}

	store := NewFileStore(filepath.Join(t.TempDir(), "budget.json"))
	for _, status := range statuses {
		t.Run(string(status.Kind), func(t *testing.T) {
			require.NoError(t, store.Save(status))

			got, found, err := store.Load()

			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, status.Kind, got.Kind)
			assert.Equal(t, status.HasExternalSubscription, got.HasExternalSubscription)
			if status.EndDate == nil {
				assert.Nil(t, got.EndDate)
				return
			}
			require.NotNil(t, got.EndDate)
			assert.True(t, status.EndDate.Equal(*got.EndDate))
			assert.Equal(t, status.normalize(), got)
		})
	}
}

func TestFileStore_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"budgets": [{"month":"2026-10","limit":1500.5}],
		"expenses": [],
		"premiumStatus": {"kind":"trial","endDate":"2026-11-01T00:00:00Z","hasExternalSubscription":false}
	}`), 0o600))

	store := NewFileStore(path)
	require.NoError(t, store.Save(Lifetime()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var blob map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &blob))

	assert.JSONEq(t, `[{"month":"2026-10","limit":1500.5}]`, string(blob["budgets"]))
	assert.JSONEq(t, `[]`, string(blob["expenses"]))
	assert.JSONEq(t, `{"kind":"lifetime","endDate":null,"hasExternalSubscription":false}`, string(blob[StatusKey]))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed")
}

func TestFileStore_RejectsInvalidStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	store := NewFileStore(path)

	err := store.Save(Status{Kind: KindLifetime, EndDate: new(time.Time)})
	require.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, os.WriteFile(path, []byte(`{"premiumStatus":{"kind":"monthly","endDate":null}}`), 0o600))
	_, _, err = store.Load()
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, _, err := NewFileStore(path).Load()

	require.Error(t, err)
}
