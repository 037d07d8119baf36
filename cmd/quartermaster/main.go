package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	qm "quartermaster"
	"quartermaster/config"
	"quartermaster/logging"
)

const usage = `usage: quartermaster [-file inventory.qm] [-metrics] <command> [args]

commands:
  init <file>          create an inventory file
  lookups              list conditions, units and record types
  list                 list inventory (-type goal for goals, -filter, -sort, -desc)
  add                  add stock (-condition -description -amount -unit -life -life-unit -purchased)
  add-goal             add a goal by hand
  edit <id>            change a record
  fulfil <goal id>     record stock bought against a goal
  delete <id>          delete a record
  goals                regenerate goals (-adult-males -adult-females -children-1-3 ... -months)
  report [name|file]   run a report; no argument lists the built-in ones
  export <file>        write inventory and goals to a snapshot
  import <file>        read a snapshot into the inventory file
`

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.LoadEnv()

	logger, err := logging.New(logging.Config{
		Development: cfg.Development(),
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("quartermaster", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }
	file := fs.String("file", "", "inventory file ("+qm.InventoryExt+")")
	showMetrics := fs.Bool("metrics", false, "print store metrics after the command")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}
	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		logger.Warn("ignoring unreadable settings", zap.Error(err))
	}

	path := *file
	if cmd == "init" {
		if len(cmdArgs) != 1 {
			return fmt.Errorf("init needs a file name")
		}
		path = qm.EnsureExtension(cmdArgs[0], qm.InventoryExt)
		cmdArgs = nil
	}
	if path == "" {
		path = cfg.DataFile
	}
	if path == "" {
		path = settings.LastFile
	}
	if path == "" {
		return fmt.Errorf("no inventory file: pass -file or run init")
	}

	reg := prometheus.NewRegistry()
	store, err := qm.Open(ctx, path, qm.WithLogger(logger), qm.WithMetrics(qm.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer store.Close()

	a := &app{
		store:  store,
		engine: qm.NewGoalEngine(store, logger),
		out:    out,
		logger: logger,
	}
	if err := a.dispatch(ctx, cmd, cmdArgs); err != nil {
		return err
	}

	settings.Remember(path)
	if err := settings.Save(cfg.SettingsPath); err != nil {
		logger.Warn("could not save settings", zap.Error(err))
	}
	if *showMetrics {
		return printMetrics(out, reg)
	}
	return nil
}

func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			fmt.Fprintf(out, "%s%s %v\n", mf.GetName(), labels, v)
		}
	}
	return nil
}
