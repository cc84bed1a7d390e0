package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Preprocess scans the source code for `#include "filename"` directives and
// replaces them with file content. It handles nested includes and prevents
// circular dependencies (include loops). Files already included once are
// skipped, so shared shader libraries can be included from several places.
func Preprocess(src string, baseDir string) (string, error) {
	return preprocessRecursive(src, baseDir, make(map[string]bool), make(map[string]bool))
}

func preprocessRecursive(src string, baseDir string, visitedStack map[string]bool, alreadyProcessed map[string]bool) (string, error) {
	lines := strings.Split(src, "\n")
	var result strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "#include") {
			result.WriteString(line)
			result.WriteString("\n")
			continue
		}

		// Expected format: #include "filename"
		parts := strings.SplitN(trimmed, "\"", 3)
		if len(parts) < 3 {
			return "", fmt.Errorf("invalid include directive: %s", line)
		}
		filename := parts[1]

		absPath, err := filepath.Abs(filepath.Join(baseDir, filename))
		if err != nil {
			return "", err
		}

		if visitedStack[absPath] {
			return "", fmt.Errorf("circular include detected: %s", filename)
		}
		if alreadyProcessed[absPath] {
			result.WriteString("\n")
			continue
		}

		content, err := os.ReadFile(absPath)
		if err != nil {
			return "", fmt.Errorf("cannot include %q: %w", filename, err)
		}

		visitedStack[absPath] = true
		alreadyProcessed[absPath] = true
		expanded, err := preprocessRecursive(string(content), filepath.Dir(absPath), visitedStack, alreadyProcessed)
		if err != nil {
			return "", err
		}
		delete(visitedStack, absPath)

		result.WriteString(expanded)
	}

	// Drop the trailing newline added for the final source line.
	out := result.String()
	return strings.TrimSuffix(out, "\n"), nil
}
