package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
)

// LoadDirectory loads every .json and .txt file under baseDir/prompts.
// Files override built-in prompts with the same ID.
func (r *Registry) LoadDirectory(baseDir string) error {
	promptDir := filepath.Join(baseDir, "prompts")
	if err := loadPrompts(r, promptDir); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	log.Info().Str("dir", baseDir).Int("count", r.Count()).Msg("prompt library loaded")
	return nil
}

// loadPrompts recursively loads all prompt files from the prompts directory
func loadPrompts(r *Registry, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("prompts directory not found: %s", dir)
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		var pt *PromptTemplate
		switch filepath.Ext(path) {
		case ".json":
			pt, err = parseJSONPrompt(path)
		case ".txt":
			pt, err = parseTextPrompt(path)
		default:
			return nil
		}
		if err != nil {
			return err
		}

		// Auto-generate ID from path if not specified
		if pt.ID == "" {
			pt.ID = generateIDFromPath(path, dir)
		}
		// Auto-detect category from folder name if not specified
		if pt.Category == "" {
			pt.Category = detectCategory(path, dir)
		}
		if pt.Marker == "" {
			pt.Marker = detectMarker(pt.Text)
		}

		if err := r.Register(pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

func parseJSONPrompt(path string) (*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pt PromptTemplate
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &pt, nil
}

// parseTextPrompt reads a plain prompt file; the whole file is the prompt text.
func parseTextPrompt(path string) (*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), ".txt")
	return &PromptTemplate{
		Name: base,
		Text: string(data),
	}, nil
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "prompts/extraction/statement.json" -> "extraction.statement"
func generateIDFromPath(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	relPath = strings.ReplaceAll(relPath, string(filepath.Separator), ".")
	return relPath
}

// detectCategory extracts the category from the folder structure
func detectCategory(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	parts := strings.Split(relPath, string(filepath.Separator))
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

func detectMarker(text string) string {
	for _, m := range []string{MarkerDocuments, MarkerCalculations} {
		if strings.Contains(text, m) {
			return m
		}
	}
	return ""
}
