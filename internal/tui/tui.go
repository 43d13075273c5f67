package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"lpforge/internal/app"
	"lpforge/internal/builder"
	"lpforge/internal/config"
	"lpforge/internal/fetch"
	"lpforge/internal/mutate"
)

type Result struct {
	Options    app.Options
	SaveConfig bool
	ConfigPath string
	Config     config.Config
	RunNow     bool
}

func Run() (Result, error) {
	printBanner()
	state := newFormState()

	if err := manageConfigs(state); err != nil {
		return Result{}, err
	}

	form := buildForm(state).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return Result{}, err
	}

	return buildResult(state)
}

func printBanner() {
	fmt.Print(`
  _        __                    
 | |_ __  / _| ___  _ __ __ _  ___
 | | '_ \| |_ / _ \| '__/ _` + "`" + ` |/ _ \
 | | |_) |  _| (_) | | | (_| |  __/
 |_| .__/|_|  \___/|_|  \__, |\___|
   |_|                  |___/
`)
}

func manageConfigs(state *formState) error {
	for {
		files, err := listConfigFiles()
		if err != nil {
			return fmt.Errorf("failed to list configs: %w", err)
		}

		if len(files) == 0 {
			return nil
		}

		var selectedFile string
		opts := []huh.Option[string]{
			huh.NewOption("Start fresh (no config)", ""),
		}
		for _, f := range files {
			opts = append(opts, huh.NewOption(fmt.Sprintf("Manage %s", f), f))
		}

		selectForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Manage Configurations").
					Description("Select a config to load or manage, or start fresh.").
					Options(opts...).
					Value(&selectedFile),
			),
		).WithTheme(huh.ThemeDracula())

		if err := selectForm.Run(); err != nil {
			return err
		}

		if selectedFile == "" {
			return nil
		}

		var action string
		actionForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Action for %s", selectedFile)).
					Options(
						huh.NewOption("Load this config", "load"),
						huh.NewOption("Rename this config", "rename"),
						huh.NewOption("Clone this config", "clone"),
						huh.NewOption("Delete this config", "delete"),
						huh.NewOption("Back to list", "back"),
					).
					Value(&action),
			),
		).WithTheme(huh.ThemeDracula())

		if err := actionForm.Run(); err != nil {
			return err
		}

		shouldExit, err := executeConfigAction(action, selectedFile, state)
		if err != nil {
			return err
		}
		if shouldExit {
			return nil
		}
	}
}

// listConfigFiles returns JSON and YAML files from every config search dir.
func listConfigFiles() ([]string, error) {
	var out []string
	for _, dir := range config.SearchDirs() {
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
			files, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
	}
	sort.Strings(out)
	return out, nil
}

func executeConfigAction(action, selectedFile string, state *formState) (bool, error) {
	switch action {
	case "load":
		cfg, err := config.Load(selectedFile)
		if err != nil {
			return false, fmt.Errorf("failed to load %s: %w", selectedFile, err)
		}
		state.fromConfig(cfg)
		state.configPath = selectedFile
		return true, nil

	case "rename":
		var newName string
		if err := huh.NewInput().Title("New filename").Value(&newName).Validate(validateNewFilename).Run(); err != nil {
			return false, err
		}
		newName = ensureConfigExtension(newName)
		if err := os.Rename(selectedFile, newName); err != nil {
			return false, fmt.Errorf("failed to rename: %w", err)
		}

	case "clone":
		var newName string
		if err := huh.NewInput().Title("Clone as").Value(&newName).Validate(validateNewFilename).Run(); err != nil {
			return false, err
		}
		newName = ensureConfigExtension(newName)
		data, err := os.ReadFile(selectedFile)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", selectedFile, err)
		}
		if err := os.WriteFile(newName, data, 0600); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", newName, err)
		}

	case "delete":
		var confirmDelete bool
		if err := huh.NewConfirm().Title(fmt.Sprintf("Really delete %s?", selectedFile)).Affirmative("Yes, delete it.").Negative("No, keep it.").Value(&confirmDelete).Run(); err != nil {
			return false, err
		}
		if confirmDelete {
			if err := os.Remove(selectedFile); err != nil {
				return false, fmt.Errorf("failed to delete %s: %w", selectedFile, err)
			}
		}
	}

	return false, nil
}

type formState struct {
	sourceKind      string
	urlStr          string
	inputPath       string
	mode            string
	timeoutSecStr   string
	userAgent       string
	waitFor         string
	headless        bool
	stripSel        string
	excludeSel      string
	replacementsStr string
	ctaURL          string
	imageMapStr     string
	regenerateIDs   bool
	noIndex         bool
	headingPxStr    string
	downloadAssets  bool
	outputDir       string
	maxCharsStr     string
	strict          bool
	dryRun          bool
	yes             bool
	configPath      string
	finalAction     string
}

func newFormState() *formState {
	return &formState{
		sourceKind:    "url",
		mode:          "auto",
		timeoutSecStr: strconv.Itoa(app.DefaultTimeoutSeconds),
		userAgent:     fetch.DefaultUserAgent,
		headless:      true,
		regenerateIDs: true,
		headingPxStr:  "0",
		maxCharsStr:   "0",
		yes:           true,
		configPath:    config.DefaultConfigFile,
		finalAction:   "run",
	}
}

func (s *formState) fromConfig(cfg config.Config) {
	if cfg.URL != "" {
		s.sourceKind = "url"
		s.urlStr = cfg.URL
	}
	if cfg.Input != "" {
		s.sourceKind = "file"
		s.inputPath = cfg.Input
	}
	if cfg.Mode != "" {
		s.mode = cfg.Mode
	}
	if cfg.TimeoutSeconds > 0 {
		s.timeoutSecStr = strconv.Itoa(cfg.TimeoutSeconds)
	}
	if cfg.UserAgent != "" {
		s.userAgent = cfg.UserAgent
	}
	if cfg.WaitForSelector != "" {
		s.waitFor = cfg.WaitForSelector
	}
	if cfg.Headless != nil {
		s.headless = *cfg.Headless
	}
	if cfg.OutputDir != "" {
		s.outputDir = cfg.OutputDir
	}
	if cfg.StripSelector != "" {
		s.stripSel = cfg.StripSelector
	}
	if len(cfg.Mutation.ExcludeSelectors) > 0 {
		s.excludeSel = strings.Join(cfg.Mutation.ExcludeSelectors, ", ")
	}
	if len(cfg.Mutation.DirectReplacements) > 0 {
		lines := make([]string, 0, len(cfg.Mutation.DirectReplacements))
		for _, r := range cfg.Mutation.DirectReplacements {
			lines = append(lines, r.Old+"="+r.New)
		}
		s.replacementsStr = strings.Join(lines, "\n")
	}
	if cfg.Build.CTAURL != "" {
		s.ctaURL = cfg.Build.CTAURL
	}
	if len(cfg.Build.ImageMap) > 0 {
		keys := make([]string, 0, len(cfg.Build.ImageMap))
		for k := range cfg.Build.ImageMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+"="+cfg.Build.ImageMap[k])
		}
		s.imageMapStr = strings.Join(lines, "\n")
	}
	s.regenerateIDs = cfg.Build.RegenerateIDs
	s.noIndex = cfg.Build.Inject.NoIndex
	if cfg.Heuristics.HeadingMinFontPx > 0 {
		s.headingPxStr = strconv.FormatFloat(cfg.Heuristics.HeadingMinFontPx, 'f', -1, 64)
	}
	s.downloadAssets = cfg.DownloadAssets
	if cfg.MaxChars > 0 {
		s.maxCharsStr = strconv.Itoa(cfg.MaxChars)
	}
	s.strict = cfg.Strict
}

func buildForm(state *formState) *huh.Form {
	return huh.NewForm(
		buildSourceGroup(state),
		buildURLGroup(state),
		buildFileGroup(state),
		buildNetworkGroup(state),
		buildMutationGroup(state),
		buildBuildGroup(state),
		buildOutputGroup(state),
		buildExecutionGroup(state),
		buildFinishGroup(state),
	)
}

func buildSourceGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Source").Description("Where the landing page comes from.").Value(&state.sourceKind).Options(
			huh.NewOption("Fetch a URL", "url"),
			huh.NewOption("Local HTML file", "file"),
		),
	).Title("Source")
}

func buildURLGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("URL").Placeholder("https://example.com/lp").Value(&state.urlStr).
			Description("Landing page to fetch.").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("url is required")
				}
				return nil
			}),
		huh.NewSelect[string]().Title("Mode").Description("Fetching strategy.").Value(&state.mode).Options(
			huh.NewOption("auto", "auto"),
			huh.NewOption("static", "static"),
			huh.NewOption("dynamic", "dynamic"),
		),
	).Title("Target").WithHideFunc(func() bool { return state.sourceKind != "url" })
}

func buildFileGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Input file").Placeholder("index.html").Value(&state.inputPath).
			Validate(validateInputFile),
	).Title("Target").WithHideFunc(func() bool { return state.sourceKind != "file" })
}

func buildNetworkGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Timeout (seconds)").Value(&state.timeoutSecStr).
			Validate(validateIntString(1, 3600)),
		huh.NewInput().Title("Wait-for selector").Description("Dynamic mode: wait for this element.").Value(&state.waitFor),
		huh.NewConfirm().Title("Headless").Description("Hide browser window (dynamic)?").Value(&state.headless),
		huh.NewInput().Title("User-Agent").Value(&state.userAgent),
		huh.NewInput().Title("Strip selector").Description("Elements removed before decomposition (nav, banners).").Placeholder("header, .cookie").Value(&state.stripSel),
	).Title("Network & Browser").WithHideFunc(func() bool { return state.sourceKind != "url" })
}

func buildMutationGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewText().Title("Replacements").Description("One old=new pair per line, applied in order.").Value(&state.replacementsStr).
			Validate(func(s string) error {
				_, err := parsePairs(s)
				return err
			}),
		huh.NewInput().Title("Exclude selectors").Description("Comma separated; matching blocks are never rewritten.").Placeholder(".legal").Value(&state.excludeSel),
		huh.NewInput().Title("Heading min font size (px, 0=default)").Value(&state.headingPxStr).
			Validate(validateFloatString(0, 200)),
	).Title("Text")
}

func buildBuildGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("CTA URL").Description("Retarget call-to-action links (empty keeps them).").Placeholder("https://shop.example.com/").Value(&state.ctaURL),
		huh.NewText().Title("Image substitutions").Description("One old=new source per line.").Value(&state.imageMapStr).
			Validate(func(s string) error {
				_, err := parsePairs(s)
				return err
			}),
		huh.NewConfirm().Title("Regenerate part ids").Description("Give every widget a fresh id/class pair?").Value(&state.regenerateIDs),
		huh.NewConfirm().Title("No-index").Description("Inject a robots noindex meta tag?").Value(&state.noIndex),
		huh.NewConfirm().Title("Download assets").Description("Save images and videos and point the build at them?").Value(&state.downloadAssets),
	).Title("Build")
}

func buildOutputGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Output dir").Description("Optional: defaults to output/<page>").Placeholder("output/<page>").Value(&state.outputDir),
		huh.NewInput().Title("Max characters per markdown part (0=no split)").Value(&state.maxCharsStr).
			Validate(validateIntString(0, 100000000)),
	).Title("Output")
}

func buildExecutionGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().Title("Dry run").Description("Analyze and build without writing files.").Value(&state.dryRun),
		huh.NewConfirm().Title("Strict").Description("Fail when the build is not dialect compliant.").Value(&state.strict),
		huh.NewConfirm().Title("Skip confirmation").Description("Don't ask before writing outputs.").Value(&state.yes),
	).Title("Execution")
}

func buildFinishGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Action").Value(&state.finalAction).Options(
			huh.NewOption("Run now", "run"),
			huh.NewOption("Save config and run", "save_and_run"),
			huh.NewOption("Only save config", "save_only"),
		),
		huh.NewInput().Title("Config path").
			Description("Path for 'Save' actions (.json, .yaml or .yml).").
			Value(&state.configPath).
			Validate(func(s string) error {
				isSaveAction := state.finalAction == "save_and_run" || state.finalAction == "save_only"
				if !isSaveAction {
					return nil
				}
				return validateNewFilename(s)
			}),
	).Title("Finish")
}

func buildResult(state *formState) (Result, error) {
	timeoutSec, err := parsePositiveInt(state.timeoutSecStr, "timeout must be a positive integer")
	if err != nil {
		return Result{}, err
	}
	maxChars, err := parseNonNegativeInt(state.maxCharsStr, "max characters must be an integer >= 0")
	if err != nil {
		return Result{}, err
	}
	headingPx, err := parseNonNegativeFloat(state.headingPxStr, "heading font size must be a number >= 0")
	if err != nil {
		return Result{}, err
	}
	replacements, err := parsePairs(state.replacementsStr)
	if err != nil {
		return Result{}, err
	}
	imagePairs, err := parsePairs(state.imageMapStr)
	if err != nil {
		return Result{}, err
	}

	var urlStr, input string
	if state.sourceKind == "file" {
		input = strings.TrimSpace(state.inputPath)
	} else {
		urlStr = strings.TrimSpace(state.urlStr)
	}

	mutation := mutate.Config{ExcludeSelectors: splitList(state.excludeSel)}
	for _, p := range replacements {
		mutation.DirectReplacements = append(mutation.DirectReplacements, mutate.Replacement{Old: p[0], New: p[1]})
	}
	if err := mutation.Validate(); err != nil {
		return Result{}, err
	}

	build := builder.Config{
		CTAURL:        strings.TrimSpace(state.ctaURL),
		RegenerateIDs: state.regenerateIDs,
		Inject:        builder.Inject{NoIndex: state.noIndex},
	}
	if len(imagePairs) > 0 {
		build.ImageMap = make(map[string]string, len(imagePairs))
		for _, p := range imagePairs {
			build.ImageMap[p[0]] = p[1]
		}
	}

	cfg := config.Config{
		URL:             urlStr,
		Input:           input,
		Mode:            state.mode,
		OutputDir:       strings.TrimSpace(state.outputDir),
		TimeoutSeconds:  timeoutSec,
		UserAgent:       strings.TrimSpace(state.userAgent),
		WaitForSelector: strings.TrimSpace(state.waitFor),
		Headless:        &state.headless,
		Strict:          state.strict,
		DownloadAssets:  state.downloadAssets,
		StripSelector:   strings.TrimSpace(state.stripSel),
		MaxChars:        maxChars,
		Mutation:        mutation,
		Build:           build,
	}
	cfg.Heuristics.HeadingMinFontPx = headingPx

	opts := app.Options{
		URL:            urlStr,
		Input:          input,
		Mode:           fetch.Mode(strings.ToLower(strings.TrimSpace(state.mode))),
		OutputDir:      cfg.OutputDir,
		Timeout:        time.Duration(timeoutSec) * time.Second,
		UserAgent:      cfg.UserAgent,
		WaitFor:        cfg.WaitForSelector,
		Headless:       state.headless,
		Yes:            state.yes,
		Strict:         state.strict,
		DryRun:         state.dryRun,
		DownloadAssets: state.downloadAssets,
		StripSelector:  cfg.StripSelector,
		MaxChars:       maxChars,
		Heuristics:     cfg.Heuristics,
		Mutation:       mutation,
		Build:          build,
	}

	res := Result{
		Options:    opts,
		ConfigPath: state.configPath,
		Config:     cfg,
	}

	switch state.finalAction {
	case "run":
		res.RunNow = true
	case "save_and_run":
		res.RunNow = true
		res.SaveConfig = true
	case "save_only":
		res.SaveConfig = true
	}

	if res.SaveConfig {
		if err := writeConfig(state.configPath, cfg); err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

func writeConfig(path string, cfg config.Config) error {
	data, err := config.MarshalFor(path, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// parsePairs reads one old=new pair per non-empty line.
func parsePairs(s string) ([][2]string, error) {
	var out [][2]string
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("line %d: expected old=new", i+1)
		}
		out = append(out, [2]string{k, strings.TrimSpace(v)})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val <= 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseNonNegativeInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val < 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseNonNegativeFloat(s, errMsg string) (float64, error) {
	val, err := parseFloat(s)
	if err != nil || val < 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := parseInt(s)
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func validateFloatString(minVal, maxVal float64) func(string) error {
	return func(s string) error {
		v, err := parseFloat(s)
		if err != nil {
			return errors.New("must be a number")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %.2f and %.2f", minVal, maxVal)
		}
		return nil
	}
}

func validateInputFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("input file is required")
	}
	info, err := os.Stat(s)
	if err != nil {
		return errors.New("file not found")
	}
	if info.IsDir() {
		return errors.New("input is a directory")
	}
	return nil
}

func validateNewFilename(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("filename cannot be empty")
	}
	if strings.ContainsAny(s, `/\:*?"<>|`) {
		return errors.New("invalid characters")
	}
	target := ensureConfigExtension(s)
	if _, err := os.Stat(target); err == nil {
		return errors.New("file already exists")
	}
	return nil
}

func ensureConfigExtension(s string) string {
	if strings.HasSuffix(s, ".json") || config.IsYAML(s) {
		return s
	}
	return s + ".json"
}
