package cli

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"lpforge/internal/app"
	"lpforge/internal/config"
	"lpforge/internal/fetch"
	"lpforge/internal/mutate"
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e ExitError) Unwrap() error { return e.Err }

func ParseArgs(args []string) (app.Options, bool, error) {
	parsed, err := parseFlags(args)
	if err != nil {
		return app.Options{}, false, ExitError{Code: 2, Err: err}
	}
	if parsed.initConfig {
		return app.Options{}, true, nil
	}

	if parsed.stdout.Value {
		parsed.yes = true
	}

	cfg, err := loadConfig(parsed.configStr)
	if err != nil {
		return app.Options{}, false, err
	}

	applyConfigDefaults(&parsed, cfg)
	return buildOptions(parsed, cfg)
}

type parsedFlags struct {
	urlStr         string
	inputStr       stringFlag
	configStr      string
	initConfig     bool
	dryRun         bool
	modeStr        stringFlag
	outputDir      stringFlag
	timeout        intFlag
	userAgent      stringFlag
	waitFor        stringFlag
	headless       boolFlag
	yes            bool
	strict         boolFlag
	stdout         boolFlag
	useCache       boolFlag
	downloadAssets boolFlag
	excludeSel     stringFlag
	stripSel       stringFlag
	maxChars       intFlag
	maxTokens      intFlag
	replace        pairListFlag
	ctaURL         stringFlag
	images         stringMapFlag
	regenerateIDs  boolFlag
	noIndex        boolFlag
	logLevel       stringFlag
	logFile        stringFlag
}

func parseFlags(args []string) (parsedFlags, error) {
	fs := flag.NewFlagSet("lpforge", flag.ContinueOnError)
	parsed := parsedFlags{}

	fs.StringVar(&parsed.urlStr, "url", "", "Landing page URL to fetch")
	fs.Var(&parsed.inputStr, "input", "Local HTML file to process instead of --url")
	fs.StringVar(&parsed.configStr, "config", "", "Path to JSON or YAML config file")
	fs.BoolVar(&parsed.initConfig, "init-config", false, "Interactive config wizard")
	fs.BoolVar(&parsed.dryRun, "dry-run", false, "Classify, build and validate only; do not write outputs")
	parsed.modeStr.Value = "auto"
	fs.Var(&parsed.modeStr, "mode", "Fetch mode: auto|static|dynamic")
	fs.Var(&parsed.outputDir, "output-dir", "Output directory (default: output/<page slug>)")
	parsed.timeout.Value = 45
	fs.Var(&parsed.timeout, "timeout", "Timeout seconds")
	fs.Var(&parsed.userAgent, "user-agent", "User-Agent header")
	fs.Var(&parsed.waitFor, "wait-for", "CSS selector to wait for (dynamic mode)")
	parsed.headless.Value = true
	fs.Var(&parsed.headless, "headless", "Run browser headless (dynamic mode)")
	fs.BoolVar(&parsed.yes, "yes", false, "Skip confirmation prompt")
	fs.Var(&parsed.strict, "strict", "Fail when the dialect validator reports errors")
	fs.Var(&parsed.stdout, "stdout", "Print the built HTML to stdout (implies --yes, suppresses logs)")
	fs.Var(&parsed.useCache, "cache", "Use disk cache for fetched HTML")
	fs.Var(&parsed.downloadAssets, "download-assets", "Download referenced images and videos and point the build at them")
	fs.Var(&parsed.excludeSel, "exclude-selector", "CSS selector whose text is never replaced")
	fs.Var(&parsed.stripSel, "strip-selector", "CSS selector removed from the page before classification")
	fs.Var(&parsed.maxChars, "max-chars", "Split content.md into parts of at most this many characters (0 = off)")
	fs.Var(&parsed.maxTokens, "max-tokens", "Split content.md into parts of at most this many estimated tokens (0 = off)")
	fs.Var(&parsed.replace, "replace", "Direct replacement old=new (repeatable, applied in order)")
	fs.Var(&parsed.ctaURL, "cta-url", "Retarget purchase links to this URL at build time")
	fs.Var(&parsed.images, "image", "Image substitution old=new (repeatable)")
	fs.Var(&parsed.regenerateIDs, "regenerate-ids", "Give custom parts fresh identifiers")
	fs.Var(&parsed.noIndex, "no-index", "Inject a robots noindex meta tag")
	fs.Var(&parsed.logLevel, "log-level", "Log level: none|normal|debug")
	fs.Var(&parsed.logFile, "log-file", "Also write log entries to this file")

	if err := fs.Parse(args); err != nil {
		return parsed, err
	}

	return parsed, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	found, ok := config.Find(path, fileExists)
	if !ok {
		return config.Config{}, ExitError{Code: 2, Err: errors.New("config file not found: " + path)}
	}
	return config.Load(found)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func applyConfigDefaults(parsed *parsedFlags, cfg config.Config) {
	applyURL(parsed, cfg)
	applyInput(parsed, cfg)
	applyMode(parsed, cfg)
	applyOutputDir(parsed, cfg)
	applyTimeout(parsed, cfg)
	applyUserAgent(parsed, cfg)
	applyWaitFor(parsed, cfg)
	applyHeadless(parsed, cfg)
	applyStrict(parsed, cfg)
	applyCache(parsed, cfg)
	applyDownloadAssets(parsed, cfg)
	applyStripSelector(parsed, cfg)
	applyChunkLimits(parsed, cfg)
	applyLogging(parsed, cfg)
}

func applyStripSelector(parsed *parsedFlags, cfg config.Config) {
	if !parsed.stripSel.WasSet && cfg.StripSelector != "" {
		parsed.stripSel.Value = cfg.StripSelector
	}
}

func applyChunkLimits(parsed *parsedFlags, cfg config.Config) {
	if !parsed.maxChars.WasSet && cfg.MaxChars > 0 {
		parsed.maxChars.Value = cfg.MaxChars
	}
	if !parsed.maxTokens.WasSet && cfg.MaxTokens > 0 {
		parsed.maxTokens.Value = cfg.MaxTokens
	}
}

func applyURL(parsed *parsedFlags, cfg config.Config) {
	if parsed.urlStr == "" && !parsed.inputStr.WasSet && cfg.URL != "" {
		parsed.urlStr = cfg.URL
	}
}

func applyInput(parsed *parsedFlags, cfg config.Config) {
	if !parsed.inputStr.WasSet && parsed.urlStr == "" && cfg.Input != "" {
		parsed.inputStr.Value = cfg.Input
	}
}

func applyMode(parsed *parsedFlags, cfg config.Config) {
	if !parsed.modeStr.WasSet && cfg.Mode != "" {
		parsed.modeStr.Value = cfg.Mode
	}
}

func applyOutputDir(parsed *parsedFlags, cfg config.Config) {
	if !parsed.outputDir.WasSet && cfg.OutputDir != "" {
		parsed.outputDir.Value = cfg.OutputDir
	}
}

func applyTimeout(parsed *parsedFlags, cfg config.Config) {
	if !parsed.timeout.WasSet && cfg.TimeoutSeconds > 0 {
		parsed.timeout.Value = cfg.TimeoutSeconds
	}
}

func applyUserAgent(parsed *parsedFlags, cfg config.Config) {
	if !parsed.userAgent.WasSet && cfg.UserAgent != "" {
		parsed.userAgent.Value = cfg.UserAgent
	}
}

func applyWaitFor(parsed *parsedFlags, cfg config.Config) {
	if !parsed.waitFor.WasSet && cfg.WaitForSelector != "" {
		parsed.waitFor.Value = cfg.WaitForSelector
	}
}

func applyHeadless(parsed *parsedFlags, cfg config.Config) {
	if !parsed.headless.WasSet && cfg.Headless != nil {
		parsed.headless.Value = *cfg.Headless
	}
}

func applyStrict(parsed *parsedFlags, cfg config.Config) {
	if !parsed.strict.WasSet && cfg.Strict {
		parsed.strict.Value = true
	}
}

func applyCache(parsed *parsedFlags, cfg config.Config) {
	if !parsed.useCache.WasSet && cfg.UseCache {
		parsed.useCache.Value = true
	}
}

func applyDownloadAssets(parsed *parsedFlags, cfg config.Config) {
	if !parsed.downloadAssets.WasSet && cfg.DownloadAssets {
		parsed.downloadAssets.Value = true
	}
}

func applyLogging(parsed *parsedFlags, cfg config.Config) {
	if !parsed.logLevel.WasSet && cfg.Logging.Level != "" {
		parsed.logLevel.Value = cfg.Logging.Level
	}
	if !parsed.logFile.WasSet && cfg.Logging.File != "" {
		parsed.logFile.Value = cfg.Logging.File
	}
}

// applyMutationFlags layers command-line mutation and build settings over
// the config file sections.
func applyMutationFlags(parsed parsedFlags, opts *app.Options) {
	if parsed.replace.WasSet {
		repl := make(mutate.Replacements, 0, len(parsed.replace.Pairs))
		for _, p := range parsed.replace.Pairs {
			repl = append(repl, mutate.Replacement{Old: p[0], New: p[1]})
		}
		opts.Mutation.DirectReplacements = repl
	}
	if parsed.excludeSel.WasSet && strings.TrimSpace(parsed.excludeSel.Value) != "" {
		opts.Mutation.ExcludeSelectors = append(opts.Mutation.ExcludeSelectors, parsed.excludeSel.Value)
	}
	if parsed.ctaURL.WasSet {
		opts.Build.CTAURL = strings.TrimSpace(parsed.ctaURL.Value)
	}
	if parsed.images.WasSet {
		if opts.Build.ImageMap == nil {
			opts.Build.ImageMap = map[string]string{}
		}
		for k, v := range parsed.images.Values {
			opts.Build.ImageMap[k] = v
		}
	}
	if parsed.regenerateIDs.WasSet {
		opts.Build.RegenerateIDs = parsed.regenerateIDs.Value
	}
	if parsed.noIndex.WasSet {
		opts.Build.Inject.NoIndex = parsed.noIndex.Value
	}
}

func buildOptions(parsed parsedFlags, cfg config.Config) (app.Options, bool, error) {
	if parsed.urlStr == "" && parsed.inputStr.Value == "" {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("--url or --input is required")}
	}
	if parsed.urlStr != "" && parsed.inputStr.Value != "" {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("--url and --input are mutually exclusive")}
	}
	logCfg := cfg.Logging
	logCfg.Level = parsed.logLevel.Value
	logCfg.File = parsed.logFile.Value
	if err := logCfg.Validate(); err != nil {
		return app.Options{}, false, ExitError{Code: 2, Err: err}
	}
	opts := app.Options{
		URL:            parsed.urlStr,
		Input:          parsed.inputStr.Value,
		Mode:           fetch.Mode(strings.ToLower(strings.TrimSpace(parsed.modeStr.Value))),
		OutputDir:      parsed.outputDir.Value,
		Timeout:        time.Duration(parsed.timeout.Value) * time.Second,
		UserAgent:      parsed.userAgent.Value,
		WaitFor:        parsed.waitFor.Value,
		Headless:       parsed.headless.Value,
		Yes:            parsed.yes,
		Strict:         parsed.strict.Value,
		DryRun:         parsed.dryRun,
		Stdout:         parsed.stdout.Value,
		UseCache:       parsed.useCache.Value,
		DownloadAssets: parsed.downloadAssets.Value,
		StripSelector:  parsed.stripSel.Value,
		MaxChars:       parsed.maxChars.Value,
		MaxTokens:      parsed.maxTokens.Value,
		Logging:        logCfg,
		Heuristics:     cfg.Heuristics,
		Dialect:        cfg.Dialect,
		Mutation:       cfg.Mutation,
		Build:          cfg.Build,
		PipelineHooks:  cfg.PipelineHooks,
		PostCommands:   cfg.PostCommands,
	}
	applyMutationFlags(parsed, &opts)
	if err := opts.Mutation.Validate(); err != nil {
		return app.Options{}, false, ExitError{Code: 2, Err: err}
	}
	return opts, false, nil
}
