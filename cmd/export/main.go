// Command export writes the filtered lab entry log to an .xlsx workbook.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"labentry/internal/config"
	"labentry/internal/export"
	"labentry/internal/labentry"
	"labentry/internal/store"
)

type options struct {
	Query labentry.Query
	Out   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Query.Class, "class", "", "Only entries for this class")
	fs.StringVar(&opts.Query.Section, "section", "", "Only entries for this section")
	fs.StringVar(&opts.Query.Date, "date", "", "Only entries on this day (YYYY-MM-DD)")
	fs.StringVar(&opts.Out, "o", "", "Output file (default lab-entries-<timestamp>.xlsx)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, errors.New("unexpected arguments: use -class, -section, -date and -o")
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("export: %v", err)
	}

	if err := run(config.Load(), opts); err != nil {
		log.Fatalf("export: %v", err)
	}
}

func run(cfg config.App, opts options) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	loc := cfg.Location()
	svc := labentry.NewService(labentry.NewRepository(db.Client), loc)
	entries, err := svc.ListEntries(ctx, opts.Query)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == "" {
		out = export.Filename(time.Now())
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, entries, loc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %d entries to %s\n", len(entries), out)
	return nil
}
