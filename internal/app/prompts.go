package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func shouldWrite(opts Options) bool {
	if opts.DryRun {
		if !opts.Stdout {
			fmt.Println("\nDry run complete (no files written).")
		}
		return false
	}
	if opts.Yes {
		return true
	}
	if confirm("Continue and write outputs? [y/N]: ") {
		return true
	}
	fmt.Println("Aborted.")
	return false
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
