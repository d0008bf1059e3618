// Package main prints the OpenAPI document for the pricing-detective API.
// It registers the shared routes with stub handlers, so no LLM proxy or
// configuration is needed.
//
// Usage:
//
//	go run ./cmd/pricing-detective-openapi > openapi.json
//	go run ./cmd/pricing-detective-openapi -yaml > openapi.yaml
//	go run ./cmd/pricing-detective-openapi -output openapi.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/pricing-detective/internal/http/routes"
	"github.com/jmylchreest/pricing-detective/internal/version"
)

func main() {
	outputFile := flag.String("output", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "http://localhost:8080", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(*baseURL))
	routes.Register(api, routes.StubHandlers())

	data, err := render(api.OpenAPI(), *outputYAML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI document: %v\n", err)
		os.Exit(1)
	}

	if *outputFile == "" {
		fmt.Print(string(data))
		return
	}
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "OpenAPI document written to %s\n", *outputFile)
}

// render marshals doc as indented JSON, or YAML via its JSON form so the
// field names match.
func render(doc any, asYAML bool) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil || !asYAML {
		return data, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
