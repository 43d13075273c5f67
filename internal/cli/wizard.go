package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"lpforge/internal/builder"
	"lpforge/internal/config"
	"lpforge/internal/mutate"
)

// RunConfigWizard asks for the common settings on stdin and writes them as
// a JSON or YAML config, depending on the chosen file name.
func RunConfigWizard() error {
	in := bufio.NewReader(os.Stdin)
	fmt.Println("Config wizard (press Enter to accept defaults)")

	path := promptString(in, "Config file path (.json or .yaml)", config.DefaultConfigFile)
	cfg := config.Config{URL: promptString(in, "Landing page URL (optional)", "")}
	if cfg.URL == "" {
		cfg.Input = promptString(in, "Local HTML file", "index.html")
	}
	cfg.Mode = promptString(in, "Mode (auto|static|dynamic)", "auto")
	cfg.OutputDir = promptString(in, "Output dir (optional)", "")
	cfg.TimeoutSeconds = promptInt(in, "Timeout seconds", 45)
	headless := promptBool(in, "Headless", true)
	cfg.Headless = &headless
	cfg.Build = builder.Config{
		CTAURL:        promptString(in, "CTA URL (optional)", ""),
		RegenerateIDs: promptBool(in, "Regenerate custom part ids", true),
		Inject:        builder.Inject{NoIndex: promptBool(in, "Add robots noindex", false)},
	}
	cfg.Strict = promptBool(in, "Strict validation", false)

	pairs := promptString(in, "Text replacements (old=new, comma separated)", "")
	reps, err := parseReplacements(pairs)
	if err != nil {
		return err
	}
	cfg.Mutation.DirectReplacements = reps

	data, err := config.MarshalFor(path, cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func parseReplacements(s string) (mutate.Replacements, error) {
	var out mutate.Replacements
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		old, repl, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(old) == "" {
			return nil, fmt.Errorf("expected old=new, got %q", item)
		}
		out = append(out, mutate.Replacement{Old: strings.TrimSpace(old), New: strings.TrimSpace(repl)})
	}
	return out, nil
}

// readAnswer prints the prompt and returns the trimmed reply; ok is false
// on an empty line or end of input.
func readAnswer(in *bufio.Reader, label, def string) (string, bool) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	return line, true
}

func promptString(in *bufio.Reader, label, def string) string {
	if v, ok := readAnswer(in, label, def); ok {
		return v
	}
	return def
}

func promptInt(in *bufio.Reader, label string, def int) int {
	v, ok := readAnswer(in, label, strconv.Itoa(def))
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func promptBool(in *bufio.Reader, label string, def bool) bool {
	v, ok := readAnswer(in, label+" (y/n)", strconv.FormatBool(def))
	if !ok {
		return def
	}
	b, err := parseBool(v)
	if err != nil {
		return def
	}
	return b
}
