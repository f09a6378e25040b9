// Command brewery-warm loads the leading pages of the configured brewery
// types into the store once and prints a per-type summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/app"
	"github.com/Sternrassler/brewery-pager/internal/config"
	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/logging"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"go.uber.org/multierr"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (overrides CONFIG_PATH)")
	types := flag.String("types", "", "comma separated brewery types (default: warm.types or all)")
	pages := flag.Int("pages", 0, "pages per type (default: warm.pages)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, *types, *pages); err != nil {
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(2)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Setup(logging.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Service: "brewery-warm",
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "warm: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides the warm section with command line values.
func applyFlags(cfg *config.Config, types string, pages int) error {
	if types != "" {
		var list []string
		for _, t := range strings.Split(types, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if !brewery.IsKnownType(t) {
				return fmt.Errorf("unknown brewery type %q", t)
			}
			list = append(list, t)
		}
		cfg.Warm.Types = list
	}
	if pages < 0 {
		return fmt.Errorf("pages must be >= 0")
	}
	if pages > 0 {
		cfg.Warm.Pages = pages
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	deps, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, deps.Close()) }()

	report, warmErr := deps.Warm(ctx)
	printReport(out, report)
	return warmErr
}

func printReport(out io.Writer, report pagination.WarmReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPAGES\tFROM STORE\tBREWERIES\tERROR")
	for _, res := range report.Results {
		errText := "-"
		if res.Err != nil {
			errText = res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", res.Type, res.Pages, res.FromStore, res.Breweries, errText)
	}
	fmt.Fprintf(tw, "total\t\t\t%d\t%s\n", report.Breweries(), report.Duration.Round(time.Millisecond))
	_ = tw.Flush()
}
