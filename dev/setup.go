package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	devenv "edgar13f/dev/env"
	"edgar13f/internal/components/chrono"
	"edgar13f/internal/fetch"
	"edgar13f/internal/scrapers/edgar"
)

const pageCacheTtl = time.Hour * 24

func CreatePageCache() error {
	path, err := devenv.ResolvePath("<dev_state>/pages.db")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("page cache already created at", path)
		return nil
	}

	fmt.Println("creating page cache at", path)
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return err
	}
	cache, err := fetch.OpenPageCache(path, pageCacheTtl, clock)
	if err != nil {
		return err
	}
	return cache.Close()
}

// writeTemplate writes value as indented json unless something already
// exists at path, json is valid json5 so the loaders read it as is.
func writeTemplate(path string, value any) error {
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}
	contents, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("writing config template to", path)
	return os.WriteFile(path, contents, 0644)
}

func WriteConfigTemplates() error {
	livePath, err := devenv.ResolvePath("<dev_state>/edgar_live.json5.example")
	if err != nil {
		return err
	}
	err = writeTemplate(livePath, devenv.LiveCrawlConfig{
		UserAgent: "Your Name you@example.com",
		Entity:    "Bill & Melinda Gates Foundation Trust | 0001166559",
		Depth:     1,
	})
	if err != nil {
		return err
	}

	return writeTemplate("edgar13f.local.json5", map[string]any{
		"base_url":   edgar.DefaultBaseUrl,
		"user_agent": "Your Name you@example.com",
		"cache": map[string]any{
			"path":      "<dev_state>/pages.db",
			"ttl_hours": pageCacheTtl.Hours(),
		},
	})
}

func PrintConfigLocations() {
	slog.Info("the live crawl test only runs once dev/.state/edgar_live.json5 exists, copy the .example next to it and fill in your own user agent.")
}
