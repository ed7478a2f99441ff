package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/storefront/internal/config"
	"github.com/HerbHall/storefront/internal/menu"
	"github.com/HerbHall/storefront/internal/params"
)

func runMenu(args []string) {
	fs := flag.NewFlagSet("menu", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	slug := fs.String("slug", "", "location slug (required)")
	query := fs.String("query", "", "menu query string, e.g. category=cakes&sort_by=price")
	format := fs.String("format", "json", "output format: json or yaml")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *slug == "" {
		fmt.Fprintln(os.Stderr, "error: --slug is required")
		fs.Usage()
		os.Exit(1)
	}

	v, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	view, err := loadMenu(context.Background(), v, zap.NewNop(), *slug, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "menu failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeView(os.Stdout, view, *format); err != nil {
		fmt.Fprintf(os.Stderr, "menu failed: %v\n", err)
		os.Exit(1)
	}
	if view.Status.Failed() {
		os.Exit(2)
	}
}

// loadMenu runs a single menu load against the configured backend.
func loadMenu(ctx context.Context, v *viper.Viper, logger *zap.Logger, slug, query string) (menu.View, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return menu.View{}, fmt.Errorf("query: %w", err)
	}

	client := newBackendClient(v, logger, nil)
	opts := menu.DefaultOptions()
	opts.AssignmentLimit = config.New(v).IntOr("plugins.menu.assignment_limit", opts.AssignmentLimit)
	engine := menu.NewEngine(client, opts, logger)
	return engine.Load(ctx, slug, params.Decode(values)), nil
}

// writeView renders v as indented JSON or as YAML.
func writeView(w io.Writer, v menu.View, format string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	case "yaml":
		// Go through JSON so field names and decimal formatting match the API.
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
