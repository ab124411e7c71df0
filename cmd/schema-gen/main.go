// Schema Generator
//
// Generates JSON Schema files from Go types for the Node.js storefront,
// which derives its Zod schemas from them. Go is the source of truth for
// the catalog and reconcile API payloads.
//
// Usage:
//
//	go run cmd/schema-gen/main.go [output-dir]
//
// Output:
//
//	docs/schemas/catalog.json
//	docs/schemas/reconcile.json
//	docs/schemas/templates.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/handlers"
	"github.com/ferredist/catalog-service/internal/types"
	"github.com/ferredist/catalog-service/internal/workbook"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := "docs/schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	groups := []SchemaGroup{
		{
			Name: "catalog",
			Types: []any{
				catalog.Entry{},
				catalog.CuratedUpdate{},
				handlers.CatalogResponse{},
				handlers.SearchCatalogResponse{},
			},
			Output: "catalog.json",
		},
		{
			Name: "reconcile",
			Types: []any{
				handlers.ReconcileRequest{},
				handlers.UploadResponse{},
				handlers.ListRunsResponse{},
				types.RunResult{},
				types.RunRecord{},
				types.RowError{},
			},
			Output: "reconcile.json",
		},
		{
			Name: "templates",
			Types: []any{
				workbook.Layout{},
			},
			Output: "templates.json",
		},
	}

	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
	}

	for _, group := range groups {
		combined := map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"title":   group.Name,
		}
		defs := map[string]any{}

		for _, t := range group.Types {
			schema := reflector.Reflect(t)
			raw, err := json.Marshal(schema)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal schema for %T: %v\n", t, err)
				os.Exit(1)
			}

			var decoded map[string]any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to decode schema for %T: %v\n", t, err)
				os.Exit(1)
			}

			if nested, ok := decoded["$defs"].(map[string]any); ok {
				for name, def := range nested {
					defs[name] = def
				}
			}
		}

		combined["$defs"] = defs

		out, err := json.MarshalIndent(combined, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal %s schemas: %v\n", group.Name, err)
			os.Exit(1)
		}

		path := filepath.Join(outputDir, group.Output)
		if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}

		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		fmt.Printf("Wrote %s (%s)\n", path, strings.Join(names, ", "))
	}
}
