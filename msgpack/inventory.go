package qmmsgpack

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"quartermaster"
)

const SnapshotVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

type Item struct {
	UUID         string `msgpack:"uuid,omitempty"`
	RecordType   string `msgpack:"record_type,omitempty"`
	Condition    string `msgpack:"condition,omitempty"`
	Description  string `msgpack:"description,omitempty"`
	Amount       int    `msgpack:"amount"`
	AmountUnit   string `msgpack:"amount_unit,omitempty"`
	Life         int    `msgpack:"life"`
	LifeUnit     string `msgpack:"life_unit,omitempty"`
	PurchaseDate string `msgpack:"purchase_date,omitempty"`
}

type Snapshot struct {
	Version    int    `msgpack:"version"`
	DatetimeMs int64  `msgpack:"date,omitempty"`
	Items      []Item `msgpack:"items,omitempty"`
}

func NewItem(it *quartermaster.Item) Item {
	out := Item{
		UUID:        it.UUID,
		RecordType:  it.RecordType,
		Condition:   it.Condition,
		Description: it.Description,
		Amount:      it.Amount.Number,
		AmountUnit:  it.Amount.Unit,
		Life:        it.Life.Number,
		LifeUnit:    it.Life.Unit,
	}
	if it.PurchaseDate != nil {
		out.PurchaseDate = it.PurchaseDate.Format("2006-01-02")
	}
	return out
}

// ToInvItem converts back to an unpersisted item; ids belong to the file
// the item was exported from.
func ToInvItem(it *Item) (quartermaster.Item, error) {
	out := quartermaster.Item{
		UUID:        it.UUID,
		RecordType:  it.RecordType,
		Condition:   it.Condition,
		Description: it.Description,
		Amount:      quartermaster.NewMeasurement(it.Amount, it.AmountUnit),
		Life:        quartermaster.NewMeasurement(it.Life, it.LifeUnit),
	}
	if it.PurchaseDate != "" {
		d, err := quartermaster.ParseDate(it.PurchaseDate)
		if err != nil {
			return quartermaster.Item{}, fmt.Errorf("item %s purchase date: %w", it.UUID, err)
		}
		out.PurchaseDate = &d
	}
	return out, nil
}

// Export writes items as one msgpack snapshot.
func Export(w io.Writer, items []quartermaster.Item, exportedAt time.Time) error {
	snap := Snapshot{
		Version:    SnapshotVersion,
		DatetimeMs: exportedAt.UnixMilli(),
		Items:      make([]Item, 0, len(items)),
	}
	for i := range items {
		snap.Items = append(snap.Items, NewItem(&items[i]))
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Import reads a snapshot written by Export.
func Import(r io.Reader) ([]quartermaster.Item, time.Time, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, time.Time{}, fmt.Errorf("version %d: %w", snap.Version, ErrUnsupportedVersion)
	}
	items := make([]quartermaster.Item, 0, len(snap.Items))
	for i := range snap.Items {
		it, err := ToInvItem(&snap.Items[i])
		if err != nil {
			return nil, time.Time{}, err
		}
		items = append(items, it)
	}
	return items, time.UnixMilli(snap.DatetimeMs), nil
}
