package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	qm "quartermaster"
	qmmsgpack "quartermaster/msgpack"
)

const (
	defaultAmount = 40
	defaultLife   = 2
)

type app struct {
	store  *qm.Store
	engine *qm.GoalEngine
	out    io.Writer
	logger *zap.Logger
	now    func() time.Time
}

func (a *app) today() time.Time {
	if a.now != nil {
		return qm.DateOf(a.now())
	}
	return qm.DateOf(time.Now())
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "init":
		fmt.Fprintf(a.out, "Initialized %s\n", a.store.Path())
		return nil
	case "lookups":
		return a.lookups()
	case "list":
		return a.list(ctx, args)
	case "add":
		return a.add(ctx, qm.RecordInventory, args)
	case "add-goal":
		return a.add(ctx, qm.RecordGoal, args)
	case "edit":
		return a.edit(ctx, args)
	case "fulfil", "fulfill":
		return a.fulfil(ctx, args)
	case "delete":
		return a.remove(ctx, args)
	case "goals":
		return a.goals(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "import":
		return a.importFile(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) lookups() error {
	kinds := []qm.LookupKind{qm.LookupRecordType, qm.LookupCondition, qm.LookupAmountUnit, qm.LookupTimeUnit}
	for _, k := range kinds {
		fmt.Fprintf(a.out, "%s: %s\n", headerStyle.Render(k.String()+"s"), strings.Join(a.store.Lookup(k), ", "))
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	recordType := qm.RecordInventory
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		recordType, args = args[0], args[1:]
	}
	fs := a.flags("list")
	filter := fs.String("filter", "", "only rows whose condition or description contain every word")
	sortBy := fs.String("sort", "", "column to sort by")
	desc := fs.Bool("desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := a.store.List(ctx, recordType)
	if err != nil {
		return err
	}
	items = qm.Filter(items, *filter)
	switch {
	case *sortBy != "":
		col, err := parseColumn(*sortBy)
		if err != nil {
			return err
		}
		qm.SortItems(items, col, *desc)
	case recordType == qm.RecordGoal:
		qm.SortGoals(items)
	}
	a.renderItems(items)
	return nil
}

func parseColumn(name string) (qm.Column, error) {
	name = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	for _, c := range qm.Columns {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column %q", name)
}

func (a *app) renderItems(items []qm.Item) {
	headers := make([]string, len(qm.Columns))
	for i, c := range qm.Columns {
		headers[i] = c.Title()
	}
	rows := make([][]string, 0, len(items))
	var expired []string
	today := a.today()
	for _, it := range items {
		row := make([]string, len(qm.Columns))
		for i, c := range qm.Columns {
			row[i] = it.Field(c).FormatForDisplay()
		}
		rows = append(rows, row)
		if it.RecordType != qm.RecordInventory {
			continue
		}
		if exp, err := it.ExpirationDate(); err == nil && exp != nil && exp.Before(today) {
			expired = append(expired, it.Field(qm.ColumnID).FormatForDisplay())
		}
	}
	renderTable(a.out, headers, rows)
	if len(expired) > 0 {
		fmt.Fprintln(a.out, expiredStyle.Render("Expired: "+strings.Join(expired, ", ")))
	}
}

// itemFlags binds the editable fields of an item to fs.
type itemFlags struct {
	condition   *string
	description *string
	amount      *int
	unit        *string
	life        *int
	lifeUnit    *string
	purchased   *string
}

func bindItemFlags(fs *flag.FlagSet, it qm.Item) itemFlags {
	purchased := ""
	if it.PurchaseDate != nil {
		purchased = it.PurchaseDate.Format("2006-01-02")
	}
	return itemFlags{
		condition:   fs.String("condition", it.Condition, "storage condition"),
		description: fs.String("description", it.Description, "what the item is"),
		amount:      fs.Int("amount", it.Amount.Number, "quantity"),
		unit:        fs.String("unit", it.Amount.Unit, "amount unit"),
		life:        fs.Int("life", it.Life.Number, "shelf life"),
		lifeUnit:    fs.String("life-unit", it.Life.Unit, "shelf life unit"),
		purchased:   fs.String("purchased", purchased, "purchase date (YYYY-MM-DD, empty for none)"),
	}
}

func (f itemFlags) apply(it *qm.Item) error {
	it.Condition = *f.condition
	it.Description = *f.description
	it.Amount = qm.NewMeasurement(*f.amount, *f.unit)
	it.Life = qm.NewMeasurement(*f.life, *f.lifeUnit)
	it.PurchaseDate = nil
	if *f.purchased != "" {
		d, err := qm.ParseDate(*f.purchased)
		if err != nil {
			return fmt.Errorf("purchase date: %w", err)
		}
		it.PurchaseDate = &d
	}
	return nil
}

// newItem is the form a fresh record starts from.
func (a *app) newItem(recordType string) qm.Item {
	conditions := a.store.Lookup(qm.LookupCondition)
	it := qm.Item{
		RecordType: recordType,
		Amount:     qm.NewMeasurement(defaultAmount, qm.UnitPound),
		Life:       qm.NewMeasurement(defaultLife, qm.UnitYear),
	}
	if len(conditions) > 0 {
		it.Condition = conditions[0]
	}
	if recordType == qm.RecordInventory {
		today := a.today()
		it.PurchaseDate = &today
	}
	return it
}

func (a *app) add(ctx context.Context, recordType string, args []string) error {
	it := a.newItem(recordType)
	fs := a.flags(recordType)
	f := bindItemFlags(fs, it)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := f.apply(&it); err != nil {
		return err
	}
	if strings.TrimSpace(it.Description) == "" {
		return fmt.Errorf("a description is required")
	}
	if err := a.store.Add(ctx, &it, recordType); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s %d: %s\n", recordType, *it.ID, it)
	return nil
}

func parseID(args []string, what string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("%s needs an id", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: bad id %q", what, args[0])
	}
	return id, args[1:], nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	id, args, err := parseID(args, "edit")
	if err != nil {
		return err
	}
	it, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	fs := a.flags("edit")
	f := bindItemFlags(fs, it)
	if err := fs.Parse(args); err != nil {
		return err
	}
	changed := 0
	fs.Visit(func(*flag.Flag) { changed++ })
	if changed == 0 {
		fmt.Fprintf(a.out, "Nothing to change for %d\n", id)
		return nil
	}
	if err := f.apply(&it); err != nil {
		return err
	}
	if err := a.store.Update(ctx, it); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %d: %s\n", id, it)
	return nil
}

// fulfil records a purchase against a goal: the goal is cloned into a new
// inventory row bought today. Flags override the cloned fields.
func (a *app) fulfil(ctx context.Context, args []string) error {
	id, args, err := parseID(args, "fulfil")
	if err != nil {
		return err
	}
	goal, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if goal.RecordType != qm.RecordGoal {
		return fmt.Errorf("item %d is a %s record, not a goal", id, goal.RecordType)
	}
	it := goal.Clone()
	if a.now != nil {
		today := a.today()
		it.PurchaseDate = &today
	}
	fs := a.flags("fulfil")
	f := bindItemFlags(fs, it)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := f.apply(&it); err != nil {
		return err
	}
	if err := a.store.Add(ctx, &it, qm.RecordInventory); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Fulfilled %s with inventory %d\n", goal.GoalLabel(), *it.ID)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, _, err := parseID(args, "delete")
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d\n", id)
	return nil
}

func (a *app) goals(ctx context.Context, args []string) error {
	var h qm.Household
	fs := a.flags("goals")
	fs.IntVar(&h.AdultMales, "adult-males", 0, "adult males")
	fs.IntVar(&h.AdultFemales, "adult-females", 0, "adult females")
	fs.IntVar(&h.Children1to3, "children-1-3", 0, "children aged 1 to 3")
	fs.IntVar(&h.Children4to6, "children-4-6", 0, "children aged 4 to 6")
	fs.IntVar(&h.Children7to9, "children-7-9", 0, "children aged 7 to 9")
	fs.IntVar(&h.Months, "months", 1, "months of supply")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set, err := a.engine.SetHouseholdGoals(ctx, h)
	if err != nil {
		return err
	}
	if !set {
		fmt.Fprintln(a.out, "Goals not set.")
		return nil
	}
	fmt.Fprintf(a.out, "Goals set for a ration multiplier of %s.\n", strconv.FormatFloat(h.Multiplier(), 'f', -1, 64))
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	builtins, err := qm.BuiltinReports()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		for _, r := range builtins {
			fmt.Fprintf(a.out, "%s  %s\n", headerStyle.Render(r.Name), r.Description)
		}
		return nil
	}

	var rep *qm.Report
	for i := range builtins {
		if builtins[i].Name == args[0] {
			rep = &builtins[i]
			break
		}
	}
	if rep == nil {
		loaded, err := qm.LoadReport(qm.EnsureExtension(args[0], qm.ReportExt))
		if err != nil {
			return err
		}
		rep = &loaded
	}

	rs, err := rep.Run(ctx, a.store)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, headerStyle.Render(rep.Title))
	renderTable(a.out, rs.Columns, rs.Rows)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("export needs a file name")
	}
	var all []qm.Item
	for _, rt := range a.store.Lookup(qm.LookupRecordType) {
		items, err := a.store.List(ctx, rt)
		if err != nil {
			return err
		}
		all = append(all, items...)
	}

	name := qm.EnsureExtension(args[0], qm.SnapshotExt)
	if err := os.MkdirAll(filepath.Dir(name), 0o750); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := qmmsgpack.Export(f, all, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	a.logger.Info("exported snapshot", zap.String("file", name), zap.Int("items", len(all)))
	fmt.Fprintf(a.out, "Exported %d records to %s\n", len(all), name)
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import needs a file name")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()
	items, exportedAt, err := qmmsgpack.Import(f)
	if err != nil {
		return err
	}
	if err := a.store.Import(ctx, items); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d records exported %s\n", len(items), exportedAt.Format("January 02, 2006"))
	return nil
}
