// Command checkin drives the attendance form from a terminal against a local
// SQLite file. The position comes from flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/config"
	"github.com/example/geo-attendance/internal/location"
	"github.com/example/geo-attendance/internal/logging"
	"github.com/example/geo-attendance/internal/persistence/sqlite"
	"github.com/example/geo-attendance/internal/report"
)

const usage = `usage: checkin [--db DSN] <command> [flags]

commands:
  submit --name NAME --result TEXT --lat LAT --lon LON [--accuracy M] [--deny]
  list
  export --out FILE.xlsx
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfg     config.Config
	service *application.CheckInService
	stdout  io.Writer
	stderr  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	global := flag.NewFlagSet("checkin", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	dsn := global.String("db", cfg.SQLiteDSN, "SQLite DSN")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := logging.New(stderr, level)

	storage, err := sqlite.Open(*dsn, sqlite.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer storage.Close()
	if err := storage.Migrate(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	store := attendance.NewStore(storage, attendance.WithKey(cfg.StoreKey), attendance.WithLogger(logger))
	a := &app{
		cfg:     cfg,
		service: application.NewCheckInServiceWithLogger(store, cfg.Zone, newRecordID, time.Now, logger),
		stdout:  stdout,
		stderr:  stderr,
	}

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "submit":
		err = a.submit(ctx, rest)
	case "list":
		err = a.list(ctx)
	case "export":
		err = a.export(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		global.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	name := fs.String("name", "", "your name")
	result := fs.String("result", "", "attendance result or note")
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lon := fs.Float64("lon", 0, "longitude in degrees")
	accuracy := fs.Float64("accuracy", 10, "reported accuracy in meters")
	deny := fs.Bool("deny", false, "simulate a refused location permission")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var provider location.Provider
	switch {
	case *deny:
		provider = location.FailingProvider{Err: location.ErrPermissionDenied}
	case set["lat"] && set["lon"]:
		provider = location.NewStaticProvider(*lat, *lon, *accuracy, time.Now)
	default:
		provider = location.FailingProvider{Err: location.ErrUnsupported}
	}

	form := application.NewForm(a.service, newProvider(provider, time.Now), a.cfg.Location)
	form.SetName(*name)
	form.SetNote(*result)

	if notice := form.RefreshLocation(ctx); !notice.IsZero() {
		printNotice(a.stderr, notice)
	}
	if eval, ok := form.Evaluation(); ok {
		fmt.Fprintf(a.stdout, "%s (%.0fm from center)\n", form.Badge(), eval.DistanceMeters)
	} else {
		fmt.Fprintln(a.stdout, form.Badge())
	}

	// Confirm the position before submitting. A fix younger than the
	// configured max cached age is reused.
	if form.LocationStatus() == application.LocationReady {
		if notice := form.RefreshLocation(ctx); form.LocationStatus() == application.LocationError {
			printNotice(a.stderr, notice)
		}
	}

	outcome := form.Submit(ctx)
	if outcome.State != application.StateStored {
		printNotice(a.stderr, outcome.Notice)
		return outcome.Err
	}
	printNotice(a.stdout, outcome.Notice)
	fmt.Fprintf(a.stdout, "record %s at %s\n", outcome.Record.ID, outcome.Record.SubmittedAt)
	return nil
}

// newProvider wraps next so repeated refreshes within the request's max
// cached age reuse the last fix.
func newProvider(next location.Provider, now func() time.Time) *location.CachingProvider {
	return location.NewCachingProvider(next, now)
}

func (a *app) list(ctx context.Context) error {
	records, err := a.service.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "no attendance records")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED AT\tNAME\tRESULT\tIN ZONE\tLAT\tLON")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%.6f\t%.6f\n", r.SubmittedAt, r.Name, r.Note, r.InZone, r.Latitude, r.Longitude)
	}
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	out := fs.String("out", "attendance.xlsx", "output file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	records, err := a.service.ListRecords(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := report.WriteXLSX(f, records); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "exported %d records to %s\n", len(records), *out)
	return nil
}

func printNotice(w io.Writer, n application.Notice) {
	fmt.Fprintf(w, "%s: %s\n", n.Title, n.Description)
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
