// Command breeder-import loads a legacy breeder workbook from document
// storage, shows its consistency report and imports its animals, owners and
// litters into the configured store.
package main

import (
	"breederbook/internal/blob"
	"breederbook/internal/config"
	"breederbook/internal/core"
	"breederbook/internal/importer"
	"breederbook/internal/logging"
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitDeclined = 3
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	exitFunc(code)
}

type options struct {
	configPath  string
	envFile     string
	doc         string
	upload      string
	dryRun      bool
	yes         bool
	listReports bool
}

func cli(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("breeder-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file overriding the environment (skipped when absent)")
	fs.StringVar(&opts.doc, "doc", "", "blob key of the workbook to import")
	fs.StringVar(&opts.upload, "upload", "", "local .xlsx file to store under -doc before importing")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "extract, check and map without writing")
	fs.BoolVar(&opts.yes, "yes", false, "accept the consistency report without prompting")
	fs.BoolVar(&opts.listReports, "list-reports", false, "list archived run reports and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if opts.doc == "" && !opts.listReports {
		_, _ = fmt.Fprintln(stderr, "breeder-import: -doc is required")
		fs.Usage()
		return exitUsage
	}

	getenv, err := withDotenv(opts.envFile, getenv)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "breeder-import: %v\n", err)
		return exitFailure
	}
	cfg, err := config.Load(opts.configPath, getenv)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "breeder-import: %v\n", err)
		return exitFailure
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "breeder-import: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, opts, logger, stdin, stdout); err != nil {
		if errors.Is(err, importer.ErrImportDeclined) {
			_, _ = fmt.Fprintln(stdout, "Import cancelled; nothing was written.")
			return exitDeclined
		}
		logger.Error("import failed", zap.Error(err))
		_, _ = fmt.Fprintf(stderr, "breeder-import: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// withDotenv layers the variables in path over getenv, matching
// godotenv.Overload without mutating the process environment.
func withDotenv(path string, getenv func(string) string) (func(string) string, error) {
	if path == "" {
		return getenv, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return getenv, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return getenv(key)
	}, nil
}

func run(ctx context.Context, cfg config.Config, opts options, logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	docs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	store, closeStore, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = closeStore() }()

	reg := prometheus.NewRegistry()
	metrics := importer.NewMetrics(reg)
	pusher := core.NewMetricsPusher(cfg.Metrics.PushGateway, cfg.Metrics.Job, reg)
	svc := core.NewImportService(store, docs, cfg, core.WithLogger(logger), core.WithMetrics(metrics, pusher))

	if opts.listReports {
		return listReports(ctx, svc, stdout)
	}
	if opts.upload != "" {
		if err := upload(ctx, docs, opts.upload, opts.doc); err != nil {
			return err
		}
		logger.Info("workbook uploaded", zap.String("key", opts.doc), zap.String("file", opts.upload))
	}

	var ack importer.Acknowledger = promptAcknowledger{in: bufio.NewReader(stdin), out: stdout}
	if opts.yes {
		ack = importer.AcceptAll
	}
	res, err := svc.Import(ctx, core.ImportRequest{DocumentKey: opts.doc, DryRun: opts.dryRun, Ack: ack})
	printSummary(stdout, res)
	return err
}

func upload(ctx context.Context, docs blob.Store, path, key string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	_, err = docs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: blob.ContentTypeXLSX,
		Metadata:    map[string]string{"source-file": path},
	})
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

func listReports(ctx context.Context, svc *core.ImportService, out io.Writer) error {
	infos, err := svc.Reports(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		_, _ = fmt.Fprintf(out, "%s\t%d bytes\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// promptAcknowledger prints the consistency report and asks for a yes/no
// answer on stdin.
type promptAcknowledger struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptAcknowledger) Acknowledge(_ context.Context, report importer.Report) (bool, error) {
	printReport(p.out, report)
	_, _ = fmt.Fprint(p.out, "Proceed with import? [y/N] ")
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printReport(out io.Writer, report importer.Report) {
	c := report.Counts
	_, _ = fmt.Fprintf(out, "Found %d litters, %d animals and %d owners.\n", c.Litters, c.Animals, c.Owners)
	if c.InferredLitters > 0 || c.InferredAnimals > 0 {
		_, _ = fmt.Fprintf(out, "%d litters and %d parents are referenced but not listed.\n", c.InferredLitters, c.InferredAnimals)
	}
	if len(report.Warnings) == 0 {
		_, _ = fmt.Fprintln(out, "No problems found.")
		return
	}
	_, _ = fmt.Fprintf(out, "%d warnings:\n", len(report.Warnings))
	for _, w := range report.Warnings {
		_, _ = fmt.Fprintf(out, "  - %s\n", w)
	}
}

func printSummary(out io.Writer, res core.ImportResult) {
	r := res.Report
	if r.RunID == "" {
		return
	}
	switch {
	case r.Ingest != nil:
		in := r.Ingest
		_, _ = fmt.Fprintf(out, "Created %d animals, %d owners and %d litters (%d dam, %d sire, %d offspring links).\n",
			in.Animals, in.Owners, in.Litters, in.DamLinks, in.SireLinks, in.OffspringLinks)
	case r.DryRun && r.Error == "":
		_, _ = fmt.Fprintf(out, "Dry run: would create %d animals, %d owners and %d litters.\n", r.Plan.Animals, r.Plan.Owners, r.Plan.Litters)
	}
	if res.ReportKey != "" {
		_, _ = fmt.Fprintf(out, "Report: %s\n", res.ReportKey)
	}
}
