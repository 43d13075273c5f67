package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"lpforge/internal/app"
	"lpforge/internal/block"
	"lpforge/internal/config"
	"lpforge/internal/dialect"
	"lpforge/internal/fetch"
	"lpforge/internal/mutate"
)

type options struct {
	URL        string
	Input      string
	ConfigPath string
	WaitFor    string
	TimeoutSec int
	UseCache   bool
	Headless   bool
	JSON       bool
}

// Report is what analyze prints with --json.
type Report struct {
	Blocks   []blockRow      `json:"blocks"`
	Sections []block.Section `json:"sections"`
	Analysis mutate.Analysis `json:"analysis"`
}

type blockRow struct {
	Index      int        `json:"index"`
	Type       block.Type `json:"type"`
	WidgetType string     `json:"widgetType,omitempty"`
	Lead       string     `json:"lead,omitempty"`
	Assets     int        `json:"assets,omitempty"`
}

func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, w io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if (strings.TrimSpace(opts.URL) == "") == (strings.TrimSpace(opts.Input) == "") {
		return errors.New("exactly one of --url or --input is required")
	}

	var cfg config.Config
	if opts.ConfigPath != "" {
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.TimeoutSec)*time.Second)
	defer cancel()

	html, err := loadHTML(ctx, opts)
	if err != nil {
		return err
	}

	report, err := analyze(html, cfg.Heuristics, cfg.Dialect)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(w, report)
	return nil
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := options{}
	fs.StringVar(&opts.URL, "url", "", "Landing page URL to analyze")
	fs.StringVar(&opts.Input, "input", "", "Local HTML file to analyze")
	fs.StringVar(&opts.ConfigPath, "config", "", "Config file supplying heuristics and dialect")
	fs.StringVar(&opts.WaitFor, "wait-for", "body", "CSS selector to wait for")
	fs.IntVar(&opts.TimeoutSec, "timeout", app.DefaultTimeoutSeconds, "Timeout seconds")
	fs.BoolVar(&opts.UseCache, "cache", false, "Use disk cache for HTML content")
	fs.BoolVar(&opts.Headless, "headless", true, "Run browser headless")
	fs.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.TimeoutSec <= 0 {
		return options{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func loadHTML(ctx context.Context, opts options) (string, error) {
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}

	var cache *fetch.PageCache
	if opts.UseCache {
		cache = fetch.NewPageCache("")
		if res, ok := cache.Load(opts.URL); ok {
			fmt.Fprintf(os.Stderr, "Loaded from cache: %s\n", cache.Path(opts.URL))
			return res.HTML, nil
		}
	}

	result, err := fetch.Fetch(ctx, fetch.Options{
		URL:             opts.URL,
		Mode:            fetch.ModeAuto,
		Timeout:         time.Duration(opts.TimeoutSec) * time.Second,
		WaitForSelector: opts.WaitFor,
		Headless:        opts.Headless,
		UserAgent:       fetch.DefaultUserAgent,
	})
	if err != nil {
		return "", err
	}

	if cache != nil {
		_ = cache.Store(opts.URL, result)
	}
	return result.HTML, nil
}

func analyze(html string, h dialect.Heuristics, d dialect.Dialect) (Report, error) {
	compiled, err := d.Compile()
	if err != nil {
		return Report{}, err
	}
	h = h.WithDefaults()
	blocks, err := block.NewClassifier(h, compiled, zap.NewNop()).ClassifyDocument(html)
	if err != nil {
		return Report{}, err
	}
	analysis, err := mutate.Analyze(html, h)
	if err != nil {
		return Report{}, err
	}

	rows := make([]blockRow, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, blockRow{
			Index:      b.Index,
			Type:       b.Type,
			WidgetType: b.WidgetType,
			Lead:       lead(b.Text, 40),
			Assets:     len(b.Assets),
		})
	}
	return Report{
		Blocks:   rows,
		Sections: block.DetectSections(blocks, h),
		Analysis: analysis,
	}, nil
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintf(w, "Blocks (%d):\n", len(r.Blocks))
	for _, b := range r.Blocks {
		kind := string(b.Type)
		if b.WidgetType != "" {
			kind += "/" + b.WidgetType
		}
		fmt.Fprintf(w, "- %3d %-18s %s\n", b.Index, kind, b.Lead)
	}

	fmt.Fprintf(w, "\nSections (%d):\n", len(r.Sections))
	for i, s := range r.Sections {
		label := s.Label
		if label == "" {
			label = "(untitled)"
		}
		fmt.Fprintf(w, "- %d: %s (blocks=%d)\n", i+1, label, len(s.BlockIndices))
	}

	fmt.Fprintln(w, "\nReplacement candidates:")
	for _, c := range r.Analysis.Candidates {
		fmt.Fprintf(w, "- %q x%d\n", c.Text, c.Count)
	}

	fmt.Fprintln(w, "\nCTA links:")
	for _, l := range r.Analysis.CTALinks {
		fmt.Fprintf(w, "- %s %s\n", l.Href, l.Text)
	}

	if len(r.Analysis.Prices) > 0 {
		fmt.Fprintf(w, "\nPrices: %s\n", strings.Join(r.Analysis.Prices, ", "))
	}
}

func lead(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
