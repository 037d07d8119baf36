package quartermaster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory"+InventoryExt)
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rice(purchased string) Item {
	it := Item{
		Condition:   "Dry",
		Description: "Rice",
		Amount:      NewMeasurement(20, UnitPound),
		Life:        NewMeasurement(2, UnitYear),
	}
	if purchased != "" {
		d, _ := ParseDate(purchased)
		it.PurchaseDate = &d
	}
	return it
}

func TestOpenInitializesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "inventory.qm")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Equal(t, []string{"inventory", "goal"}, s.Lookup(LookupRecordType))
	assert.Equal(t, []string{"Dry", "Canned", "Bottled", "Frozen", "Fresh"}, s.Lookup(LookupCondition))
	assert.Equal(t, []string{"pound", "ounce", "gallon", "quart", "each"}, s.Lookup(LookupAmountUnit))
	assert.Equal(t, []string{"day", "month", "year"}, s.Lookup(LookupTimeUnit))

	it := rice("2023-01-10")
	require.NoError(t, s.Add(context.Background(), &it, RecordInventory))
	require.NoError(t, s.Close())

	// reopening keeps the data and does not reseed
	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.List(context.Background(), RecordInventory)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].Description)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.qm")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	assert.NotEmpty(t, s.Lookup(LookupCondition))
}

func TestLookupReturnsCopy(t *testing.T) {
	s := openTestStore(t)
	names := s.Lookup(LookupCondition)
	names[0] = "Mutated"
	assert.Equal(t, "Dry", s.Lookup(LookupCondition)[0])
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it := rice("2023-01-10")
	require.NoError(t, s.Add(ctx, &it, RecordInventory))
	require.NotNil(t, it.ID)
	assert.NotEmpty(t, it.UUID)
	assert.Equal(t, RecordInventory, it.RecordType)

	got, err := s.Get(ctx, *it.ID)
	require.NoError(t, err)
	assert.Equal(t, it, got)

	var stored string
	require.NoError(t, s.DB().Get(&stored, `SELECT expiration_date FROM item WHERE id = ?`, *it.ID))
	assert.Equal(t, "2025-01-10", stored)
}

func TestAddRejects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("persisted item", func(t *testing.T) {
		it := rice("2023-01-10")
		require.NoError(t, s.Add(ctx, &it, RecordInventory))
		assert.ErrorIs(t, s.Add(ctx, &it, RecordInventory), ErrAlreadyPersisted)
	})

	t.Run("unknown values", func(t *testing.T) {
		cases := map[string]func(*Item) string{
			"condition":   func(it *Item) string { it.Condition = "Pickled"; return RecordInventory },
			"amount unit": func(it *Item) string { it.Amount.Unit = "bushel"; return RecordInventory },
			"time unit":   func(it *Item) string { it.Life.Unit = "week"; return RecordInventory },
			"record type": func(it *Item) string { return "wishlist" },
		}
		for kind, mutate := range cases {
			t.Run(kind, func(t *testing.T) {
				it := rice("2023-01-10")
				rt := mutate(&it)
				err := s.Add(ctx, &it, rt)
				require.ErrorIs(t, err, ErrInvalidValue)
				var uv *UnknownValueError
				require.ErrorAs(t, err, &uv)
				assert.Equal(t, kind, uv.Kind)
				assert.Nil(t, it.ID)
			})
		}
	})

	t.Run("impossible expiration", func(t *testing.T) {
		it := rice("2023-01-31")
		it.Life = NewMeasurement(1, UnitMonth)
		require.ErrorIs(t, s.Add(ctx, &it, RecordInventory), ErrInvalidDate)
		assert.Nil(t, it.ID)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it := rice("2023-01-10")
	require.NoError(t, s.Add(ctx, &it, RecordInventory))

	it.Amount = NewMeasurement(35, UnitPound)
	it.Life = NewMeasurement(18, UnitMonth)
	it.Condition = "Canned"
	require.NoError(t, s.Update(ctx, it))

	got, err := s.Get(ctx, *it.ID)
	require.NoError(t, err)
	assert.Equal(t, it, got)
	var stored string
	require.NoError(t, s.DB().Get(&stored, `SELECT expiration_date FROM item WHERE id = ?`, *it.ID))
	assert.Equal(t, "2024-07-10", stored)

	// the record type is not changed by an update
	it.RecordType = RecordGoal
	require.NoError(t, s.Update(ctx, it))
	got, err = s.Get(ctx, *it.ID)
	require.NoError(t, err)
	assert.Equal(t, RecordInventory, got.RecordType)

	missing := int64(9999)
	it.ID = &missing
	assert.ErrorIs(t, s.Update(ctx, it), ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, rice("")), ErrNotFound)
}

func TestDeleteAndGetMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it := rice("2023-01-10")
	require.NoError(t, s.Add(ctx, &it, RecordInventory))
	require.NoError(t, s.Delete(ctx, *it.ID))

	_, err := s.Get(ctx, *it.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, *it.ID), ErrNotFound)
}

func TestListOrderAndType(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	older := rice("2021-03-01")
	newer := rice("2023-03-01")
	same := rice("2023-03-01")
	goal := rice("")
	for _, it := range []*Item{&older, &newer, &same} {
		require.NoError(t, s.Add(ctx, it, RecordInventory))
	}
	require.NoError(t, s.Add(ctx, &goal, RecordGoal))

	items, err := s.List(ctx, RecordInventory)
	require.NoError(t, err)
	assert.Equal(t, []int64{*same.ID, *newer.ID, *older.ID}, ids(items))

	goals, err := s.List(ctx, RecordGoal)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Nil(t, goals[0].PurchaseDate)

	_, err = s.List(ctx, "wishlist")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestImportUpsertsByUUID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	existing := rice("2023-01-10")
	require.NoError(t, s.Add(ctx, &existing, RecordInventory))

	changed := existing
	changed.ID = nil
	changed.Amount = NewMeasurement(50, UnitPound)
	fresh := rice("2022-05-05")
	fresh.Description = "Oats"
	fresh.RecordType = ""

	batch := []Item{changed, fresh}
	require.NoError(t, s.Import(ctx, batch))
	assert.Equal(t, *existing.ID, *batch[0].ID)
	require.NotNil(t, batch[1].ID)
	assert.Equal(t, RecordInventory, batch[1].RecordType)

	items, err := s.List(ctx, RecordInventory)
	require.NoError(t, err)
	require.Len(t, items, 2)
	got, err := s.Get(ctx, *existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Amount.Number)
}

func TestImportIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	bad := rice("2023-01-10")
	bad.Condition = "Pickled"
	err := s.Import(ctx, []Item{rice("2023-01-10"), bad})
	require.ErrorIs(t, err, ErrInvalidValue)

	items, err := s.List(ctx, RecordInventory)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQueryIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it := rice("2023-01-10")
	require.NoError(t, s.Add(ctx, &it, RecordInventory))

	rs, err := s.Query(ctx, `SELECT item, weight FROM item WHERE id = ?`, *it.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "weight"}, rs.Columns)
	assert.Equal(t, [][]string{{"Rice", "20"}}, rs.Rows)

	_, err = s.Query(ctx, `DELETE FROM item`)
	require.ErrorIs(t, err, ErrStorage)

	items, err := s.List(ctx, RecordInventory)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// writes still work after a report
	other := rice("2023-02-10")
	require.NoError(t, s.Add(ctx, &other, RecordInventory))
}
