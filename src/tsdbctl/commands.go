package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/amendment"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/decode"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/resolver"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

// openStore is replaced in tests.
var openStore = func(ctx context.Context) (data.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	return data.NewDataClient(db, utils.GetLogger().Named("data")), db.Close, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tsdbctl",
		Usage: "inspect feed records and the timetable store",
		Commands: []*cli.Command{
			{
				Name:  "decode",
				Usage: "decode raw feed records, one per argument or per line of stdin",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "print Go values instead of JSON"},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "trust",
						Usage:  "decode TRUST train activity records",
						Action: decodeAction(decode.TrustRaw),
					},
					{
						Name:   "td",
						Usage:  "decode train describer records",
						Action: decodeAction(decode.TDRaw),
					},
				},
			},
			{
				Name:      "resolve",
				Usage:     "show the schedule variant that applies to a train on a date",
				ArgsUsage: "UID DATE",
				Action:    resolveAction,
			},
			{
				Name:  "window",
				Usage: "list schedules calling in a time window",
				Flags: []cli.Flag{
					&cli.TimestampFlag{Name: "from", Layout: "2006-01-02T15:04", Timezone: types.London, Required: true},
					&cli.TimestampFlag{Name: "to", Layout: "2006-01-02T15:04", Timezone: types.London, Required: true},
					&cli.StringFlag{Name: "mode", Value: "calls", Usage: "calls or passes"},
					&cli.StringSliceFlag{Name: "tiploc", Usage: "restrict to calls at these TIPLOCs"},
					&cli.BoolFlag{Name: "passenger", Usage: "passenger trains only"},
				},
				Action: windowAction,
			},
			{
				Name:      "vstp",
				Usage:     "apply a VSTP XML document to the store",
				ArgsUsage: "FILE",
				Action:    vstpAction,
			},
		},
	}
}

func records(c *cli.Context) ([]string, error) {
	if c.NArg() > 0 {
		return c.Args().Slice(), nil
	}
	var out []string
	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}

func decodeAction(fn func(string) (decode.Fields, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		recs, err := records(c)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.App.Writer)
		for _, rec := range recs {
			f, err := fn(rec)
			if err != nil {
				return err
			}
			if c.Bool("pretty") {
				if _, err := pretty.Fprintf(c.App.Writer, "%# v\n", f); err != nil {
					return err
				}
				continue
			}
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
		return nil
	}
}

func resolveAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("resolve needs a UID and a date", 2)
	}
	date, err := time.Parse("2006-01-02", c.Args().Get(1))
	if err != nil {
		return cli.Exit("date must be yyyy-mm-dd", 2)
	}

	store, closeStore, err := openStore(c.Context)
	if err != nil {
		return err
	}
	defer closeStore()

	bs, err := resolver.New(store).Resolve(c.Context, strings.ToUpper(c.Args().Get(0)), date)
	if err != nil {
		return err
	}
	if bs == nil {
		return cli.Exit(fmt.Sprintf("no schedule applies to %s on %s", c.Args().Get(0), c.Args().Get(1)), 1)
	}
	printSchedule(c.App.Writer, bs)
	return nil
}

func printSchedule(w io.Writer, bs *types.BasicSchedule) {
	fmt.Fprintf(w, "%s %s %s %s-%s %s\n",
		bs.TrainUID, bs.TrainIdentity, bs.STPIndicator.Label(),
		types.RunDateKey(bs.RunsFrom), types.RunDateKey(bs.RunsTo), bs.DaysRun)
	for _, l := range bs.Locations {
		fmt.Fprintf(w, "  %-7s arr %-5s pass %-5s dep %-5s plat %s\n",
			l.TiplocCode, l.Arrival, l.Pass, l.Departure, l.Platform)
	}
}

func windowAction(c *cli.Context) error {
	mode, err := resolver.ParseMode(c.String("mode"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	store, closeStore, err := openStore(c.Context)
	if err != nil {
		return err
	}
	defer closeStore()

	var tiplocs []string
	for _, t := range c.StringSlice("tiploc") {
		tiplocs = append(tiplocs, strings.ToUpper(t))
	}
	groups, err := resolver.New(store).Window(c.Context, resolver.WindowQuery{
		From:          *c.Timestamp("from"),
		To:            *c.Timestamp("to"),
		Mode:          mode,
		Tiplocs:       tiplocs,
		OnlyPassenger: c.Bool("passenger"),
	})
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Fprintf(c.App.Writer, "%s\n", types.RunDateKey(g.RunsOn))
		for _, bs := range g.Schedules {
			fmt.Fprintf(c.App.Writer, "  %s %s %s\n", bs.TrainUID, bs.TrainIdentity, bs.STPIndicator.Label())
		}
	}
	return nil
}

func vstpAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("vstp needs a file", 2)
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	store, closeStore, err := openStore(c.Context)
	if err != nil {
		return err
	}
	defer closeStore()

	res := amendment.NewInjector(store, utils.GetLogger().Named("injector")).ApplyXML(c.Context, f)
	fmt.Fprintln(c.App.Writer, res)
	if res.Status == types.StatusError {
		return cli.Exit("", 1)
	}
	return nil
}
