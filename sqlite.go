package quartermaster

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Store is an inventory file: a SQLite database holding the lookup
// enumerations, the item table and the goal rules.
type Store struct {
	db      *sqlx.DB
	path    string
	logger  *zap.Logger
	metrics *Metrics
	rules   GoalRuleSource
	lookups map[LookupKind]lookupTable
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithGoalRules swaps the rule source ReplaceGoals reads. The default is
// the goal_rule table of the inventory file.
func WithGoalRules(src GoalRuleSource) Option {
	return func(s *Store) {
		if src != nil {
			s.rules = src
		}
	}
}

// Open opens the inventory file at path. A missing or empty file is created
// and initialized from the schema script first.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: zap.NewNop(),
		rules:  TableRules{},
	}
	for _, opt := range opts {
		opt(s)
	}

	fresh, err := needsSchema(path)
	if err != nil {
		return nil, storageErr("stat inventory file", err)
	}
	if fresh {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, storageErr("create dirs", err)
		}
	}

	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("open sqlite", err)
	}
	if fresh {
		if err := s.initSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.loadLookups(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info("opened inventory file", zap.String("path", path), zap.Bool("initialized", fresh))
	return s, nil
}

func needsSchema(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

func (s *Store) initSchema(ctx context.Context) (retErr error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("init schema", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return storageErr("init schema", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("init schema", err)
	}
	s.logger.Debug("initialized schema", zap.String("path", s.path))
	return nil
}

func (s *Store) loadLookups(ctx context.Context) error {
	s.lookups = make(map[LookupKind]lookupTable, len(lookupKinds))
	for _, kind := range lookupKinds {
		var rows []lookupRow
		if err := s.db.SelectContext(ctx, &rows, kind.query()); err != nil {
			return storageErr("load "+kind.String()+"s", err)
		}
		s.lookups[kind] = newLookupTable(rows)
	}
	return nil
}

// Lookup lists the valid values of an enumeration in table order. The
// result is read once at Open and does not change for the session.
func (s *Store) Lookup(kind LookupKind) []string {
	return append([]string(nil), s.lookups[kind].names...)
}

func (s *Store) resolve(kind LookupKind, value string) (int64, error) {
	id, ok := s.lookups[kind].ids[value]
	if !ok {
		return 0, &UnknownValueError{Kind: kind.String(), Value: value}
	}
	return id, nil
}

type itemRow struct {
	ID             int64          `db:"id"`
	UUID           string         `db:"uuid"`
	ConditionID    int64          `db:"condition_id"`
	Item           string         `db:"item"`
	Weight         int            `db:"weight"`
	WeightUnitID   int64          `db:"weight_unit_id"`
	Life           int            `db:"life"`
	LifeUnitID     int64          `db:"life_unit_id"`
	RecordTypeID   int64          `db:"record_type_id"`
	PurchaseDate   sql.NullString `db:"purchase_date"`
	ExpirationDate sql.NullString `db:"expiration_date"`
}

type itemView struct {
	ID           int64          `db:"id"`
	UUID         string         `db:"uuid"`
	Condition    string         `db:"condition"`
	Description  string         `db:"description"`
	Weight       int            `db:"weight"`
	WeightUnit   string         `db:"weight_unit"`
	Life         int            `db:"life"`
	LifeUnit     string         `db:"life_unit"`
	RecordType   string         `db:"record_type"`
	PurchaseDate sql.NullString `db:"purchase_date"`
}

const insertItemSQL = `INSERT INTO item (
	uuid, condition_id, item, weight, weight_unit_id, life, life_unit_id,
	record_type_id, purchase_date, expiration_date)
VALUES (
	:uuid, :condition_id, :item, :weight, :weight_unit_id, :life, :life_unit_id,
	:record_type_id, :purchase_date, :expiration_date)`

const upsertItemSQL = insertItemSQL + `
ON CONFLICT (uuid) DO UPDATE SET
	condition_id = excluded.condition_id,
	item = excluded.item,
	weight = excluded.weight,
	weight_unit_id = excluded.weight_unit_id,
	life = excluded.life,
	life_unit_id = excluded.life_unit_id,
	record_type_id = excluded.record_type_id,
	purchase_date = excluded.purchase_date,
	expiration_date = excluded.expiration_date`

const updateItemSQL = `UPDATE item SET
	condition_id = :condition_id,
	item = :item,
	weight = :weight,
	weight_unit_id = :weight_unit_id,
	life = :life,
	life_unit_id = :life_unit_id,
	purchase_date = :purchase_date,
	expiration_date = :expiration_date
WHERE id = :id`

const selectItemSQL = `SELECT i.id AS id,
	i.uuid AS uuid,
	c.description AS condition,
	i.item AS description,
	i.weight AS weight,
	wu.unit AS weight_unit,
	i.life AS life,
	lu.unit AS life_unit,
	rt.description AS record_type,
	i.purchase_date AS purchase_date
FROM item i
INNER JOIN condition c ON i.condition_id = c.id
INNER JOIN unit wu ON i.weight_unit_id = wu.id
INNER JOIN unit lu ON i.life_unit_id = lu.id
INNER JOIN recordtype rt ON i.record_type_id = rt.id`

// toRow resolves the item's enumerations to their ids and snapshots the
// expiration date. Unknown values and impossible dates are rejected here.
func (s *Store) toRow(it Item, recordType string) (itemRow, error) {
	var row itemRow
	var err error
	if row.ConditionID, err = s.resolve(LookupCondition, it.Condition); err != nil {
		return row, err
	}
	if row.WeightUnitID, err = s.resolve(LookupAmountUnit, it.Amount.Unit); err != nil {
		return row, err
	}
	if row.LifeUnitID, err = s.resolve(LookupTimeUnit, it.Life.Unit); err != nil {
		return row, err
	}
	if row.RecordTypeID, err = s.resolve(LookupRecordType, recordType); err != nil {
		return row, err
	}
	exp, err := it.ExpirationDate()
	if err != nil {
		return row, fmt.Errorf("expiration of %q: %w", it.Description, err)
	}
	if it.ID != nil {
		row.ID = *it.ID
	}
	row.UUID = it.UUID
	row.Item = it.Description
	row.Weight = it.Amount.Number
	row.Life = it.Life.Number
	row.PurchaseDate = nullDate(it.PurchaseDate)
	row.ExpirationDate = nullDate(exp)
	return row, nil
}

func (v itemView) toItem() (Item, error) {
	id := v.ID
	it := Item{
		ID:          &id,
		UUID:        v.UUID,
		RecordType:  v.RecordType,
		Condition:   v.Condition,
		Description: v.Description,
		Amount:      NewMeasurement(v.Weight, v.WeightUnit),
		Life:        NewMeasurement(v.Life, v.LifeUnit),
	}
	if v.PurchaseDate.Valid && v.PurchaseDate.String != "" {
		d, err := ParseDate(v.PurchaseDate.String)
		if err != nil {
			return Item{}, fmt.Errorf("item %d purchase date: %w", v.ID, err)
		}
		it.PurchaseDate = &d
	}
	return it, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

// Add inserts it as a new record of recordType and assigns its ID.
func (s *Store) Add(ctx context.Context, it *Item, recordType string) (retErr error) {
	defer func() { s.metrics.observe("add", retErr) }()
	if it.Persisted() {
		return fmt.Errorf("add item %d: %w", *it.ID, ErrAlreadyPersisted)
	}
	if it.UUID == "" {
		it.UUID = uuid.NewString()
	}
	row, err := s.toRow(*it, recordType)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, insertItemSQL, row)
	if err != nil {
		return storageErr("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("insert item", err)
	}
	it.ID = &id
	it.RecordType = recordType
	return nil
}

// Update overwrites the stored record with its fields, by ID. The record
// type of a stored item never changes.
func (s *Store) Update(ctx context.Context, it Item) (retErr error) {
	defer func() { s.metrics.observe("update", retErr) }()
	if !it.Persisted() {
		return fmt.Errorf("update unsaved item %q: %w", it.Description, ErrNotFound)
	}
	// record type is not written by the UPDATE; any known value passes toRow
	row, err := s.toRow(it, RecordInventory)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, updateItemSQL, row)
	if err != nil {
		return storageErr("update item", err)
	}
	return expectOneRow(res, "update item", *it.ID)
}

func (s *Store) Delete(ctx context.Context, id int64) (retErr error) {
	defer func() { s.metrics.observe("delete", retErr) }()
	res, err := s.db.ExecContext(ctx, `DELETE FROM item WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete item", err)
	}
	return expectOneRow(res, "delete item", id)
}

func expectOneRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (Item, error) {
	var v itemView
	err := s.db.GetContext(ctx, &v, selectItemSQL+` WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Item{}, storageErr("get item", err)
	}
	return v.toItem()
}

// List returns every record of recordType, newest purchase first.
func (s *Store) List(ctx context.Context, recordType string) (items []Item, retErr error) {
	defer func() { s.metrics.observe("list", retErr) }()
	rtID, err := s.resolve(LookupRecordType, recordType)
	if err != nil {
		return nil, err
	}
	var views []itemView
	query := selectItemSQL + ` WHERE i.record_type_id = ? ORDER BY i.purchase_date DESC, i.id DESC`
	if err := s.db.SelectContext(ctx, &views, query, rtID); err != nil {
		return nil, storageErr("list items", err)
	}
	items = make([]Item, 0, len(views))
	for _, v := range views {
		it, err := v.toItem()
		if err != nil {
			return nil, storageErr("list items", err)
		}
		items = append(items, it)
	}
	return items, nil
}

// ReplaceGoals deletes every goal record and inserts the rows the goal rule
// source yields for multiplier, in one transaction. On any failure the
// previous goals are left as they were.
func (s *Store) ReplaceGoals(ctx context.Context, multiplier float64) (n int, retErr error) {
	defer func() { s.metrics.observe("replace_goals", retErr) }()
	if !(multiplier > 0) {
		return 0, fmt.Errorf("replace goals with %v: %w", multiplier, ErrInvalidMultiplier)
	}
	goalTypeID, err := s.resolve(LookupRecordType, RecordGoal)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin goal replacement", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM item WHERE record_type_id = ?`, goalTypeID); err != nil {
		return 0, storageErr("delete goals", err)
	}
	goals, err := s.rules.GoalRows(ctx, tx, multiplier)
	if err != nil {
		return 0, storageErr("read goal rules", err)
	}
	for i := range goals {
		goals[i].ID = nil
		goals[i].UUID = uuid.NewString()
		row, err := s.toRow(goals[i], RecordGoal)
		if err != nil {
			return 0, err
		}
		if _, err := tx.NamedExecContext(ctx, insertItemSQL, row); err != nil {
			return 0, storageErr("insert goal", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit goal replacement", err)
	}
	s.metrics.goalsReplaced(len(goals))
	s.logger.Info("replaced goals", zap.Float64("multiplier", multiplier), zap.Int("goals", len(goals)))
	return len(goals), nil
}

// Import upserts items by UUID in one transaction, keeping each item's
// record type (inventory when empty). IDs are assigned to new rows.
func (s *Store) Import(ctx context.Context, items []Item) (retErr error) {
	defer func() { s.metrics.observe("import", retErr) }()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin import", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for i := range items {
		it := &items[i]
		if it.RecordType == "" {
			it.RecordType = RecordInventory
		}
		if it.UUID == "" {
			it.UUID = uuid.NewString()
		}
		row, err := s.toRow(*it, it.RecordType)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertItemSQL, row); err != nil {
			return storageErr("import item", err)
		}
		var id int64
		if err := tx.GetContext(ctx, &id, `SELECT id FROM item WHERE uuid = ?`, it.UUID); err != nil {
			return storageErr("import item", err)
		}
		it.ID = &id
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit import", err)
	}
	s.logger.Info("imported items", zap.Int("items", len(items)))
	return nil
}

// ResultSet is the tabular output of a read-only query.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// Query runs a read-only statement for reports. The connection is switched
// to query_only and the transaction is always rolled back, so nothing the
// statement does is kept.
func (s *Store) Query(ctx context.Context, query string, args ...any) (rs *ResultSet, retErr error) {
	defer func() { s.metrics.observe("query", retErr) }()
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, `PRAGMA query_only = ON`); err != nil {
		return nil, storageErr("query", err)
	}
	defer func() { _, _ = conn.ExecContext(context.Background(), `PRAGMA query_only = OFF`) }()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, storageErr("query", err)
	}
	rs = &ResultSet{Columns: cols}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, storageErr("query", err)
		}
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = cellString(v)
		}
		rs.Rows = append(rs.Rows, out)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query", err)
	}
	return rs, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprint(x)
	}
}

func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}
