// report-viewer re-renders saved insights reports in another format without
// collecting again. Pair it with `cilens gitlab --format json --output
// insights.json` to keep a snapshot and view it later.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/report"
	"github.com/anhed0nic/cilens/internal/ui"
)

var version = "dev"

func main() {
	format := flag.String("f", "summary", "Report format: summary, json, csv, html")
	pretty := flag.Bool("p", false, "Indent JSON output")
	dir := flag.String("d", "", "Directory to search for insights files")
	flag.Parse()

	var files []string
	if *dir != "" {
		found, err := findInsightsFiles(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error searching directory: %v\n", err)
			os.Exit(1)
		}
		files = found
	} else if flag.NArg() > 0 {
		files = flag.Args()
	} else {
		defaultPath := "insights.json"
		if _, err := os.Stat(defaultPath); err == nil {
			files = []string{defaultPath}
		} else {
			fmt.Fprintf(os.Stderr, "Usage: %s [options] <insights.json> [<insights.json>...]\n", os.Args[0])
			fmt.Fprintf(os.Stderr, "   or: %s -d <directory>\n\n", os.Args[0])
			fmt.Fprintf(os.Stderr, "Options:\n")
			flag.PrintDefaults()
			fmt.Fprintf(os.Stderr, "\nIf no file is specified, looks for insights.json\n")
			os.Exit(1)
		}
	}

	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No insights files found\n")
		os.Exit(1)
	}

	renderFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := report.Options{
		Colors:  ui.NewColors(ui.IsColorEnabled()),
		Pretty:  *pretty,
		Version: version,
	}

	failed := false
	for _, file := range files {
		insights, err := loadInsights(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", file, err)
			failed = true
			continue
		}

		if len(files) > 1 {
			fmt.Printf("\n📄 %s:\n", filepath.Base(file))
		}

		if err := report.Render(os.Stdout, renderFormat, insights, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering %s: %v\n", file, err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func loadInsights(path string) (model.CIInsights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.CIInsights{}, err
	}

	var insights model.CIInsights
	if err := json.Unmarshal(data, &insights); err != nil {
		return model.CIInsights{}, fmt.Errorf("parsing insights: %w", err)
	}
	if insights.Provider == "" {
		return model.CIInsights{}, fmt.Errorf("not an insights report")
	}
	return insights, nil
}

// findInsightsFiles returns the JSON files directly under dir that parse as
// insights reports. Other JSON files are skipped.
func findInsightsFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := loadInsights(path); err != nil {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}
