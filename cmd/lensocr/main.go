// lensocr is a command-line tool for extracting text and layout geometry
// from an image through the visual-search upload service.
//
// The tool submits one image per invocation, retries transient failures
// with backoff, and writes the result in one or more output formats:
// plain text, the full result as JSON, hOCR, or a searchable PDF with the
// recognized text overlaid invisibly on the source image.
//
// Configuration:
//
// The tool accepts an optional YAML configuration file:
//
//	endpoint: "https://lens.google.com/v3/upload"
//	user_agent: ""            # empty means the built-in browser string
//	language: "en"            # advisory language hint
//	timeout_seconds: 60
//	max_attempts: 4
//
// Usage:
//
//	lensocr -image input.png [options]
//
// Required flags:
//
//	-image string   Path to the input image (png, jpeg, or webp)
//
// Output options (at least one required):
//
//	-text string    Path to save the extracted text
//	-json string    Path to save the full result (segments, polygons) as JSON
//	-hocr string    Path to save hOCR output
//	-pdf string     Path to save a searchable PDF
//
// Other options:
//
//	-config string  Path to the YAML configuration file
//	-lang string    Language hint, overrides the config file value
//	-pdf-debug      Render the PDF text layer visibly for inspection
//
// Example:
//
//	lensocr -image receipt.jpg -text receipt.txt -hocr receipt.hocr
//	lensocr -config lensocr.yml -image scan.png -pdf scan_searchable.pdf
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gardar/lensocr/pkg/imgload"
	"github.com/gardar/lensocr/pkg/lens"
	"github.com/gardar/lensocr/pkg/pdfout"
)

type yamlConfig struct {
	Endpoint       string `yaml:"endpoint"`
	UserAgent      string `yaml:"user_agent"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts"`
}

// loadConfig reads the YAML file and fills in defaults for omitted fields
func loadConfig(path string) (*yamlConfig, error) {
	cfg := &yamlConfig{
		TimeoutSeconds: int(lens.DefaultTimeout / time.Second),
		MaxAttempts:    int(lens.DefaultPolicy().MaxAttempts),
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = int(lens.DefaultTimeout / time.Second)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = int(lens.DefaultPolicy().MaxAttempts)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file")
	imagePath := flag.String("image", "", "Path to the input image (required)")
	langHint := flag.String("lang", "", "Advisory language hint (overrides config)")

	// Output flags
	textPath := flag.String("text", "", "Path to save extracted text output")
	jsonPath := flag.String("json", "", "Path to save the full result as JSON")
	hocrPath := flag.String("hocr", "", "Path to save HOCR output")
	pdfPath := flag.String("pdf", "", "Path to save a searchable PDF")
	pdfDebug := flag.Bool("pdf-debug", false, "Render the PDF text layer visibly")

	flag.Parse()

	// Create a map of provided flags to validate
	providedFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		providedFlags[f.Name] = true
	})

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -image flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Validate that provided output flags have values
	hasError := false
	validateFlag := func(name string, value string) {
		if providedFlags[name] && value == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s flag requires a value\n", name)
			hasError = true
		}
	}
	validateFlag("text", *textPath)
	validateFlag("json", *jsonPath)
	validateFlag("hocr", *hocrPath)
	validateFlag("pdf", *pdfPath)
	if hasError {
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if at least one output flag is provided
	if !providedFlags["text"] && !providedFlags["json"] && !providedFlags["hocr"] && !providedFlags["pdf"] {
		fmt.Fprintln(os.Stderr, "Error: At least one output flag must be provided (-text, -json, -hocr, or -pdf)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	language := cfg.Language
	if *langHint != "" {
		language = *langHint
	}

	fmt.Println("Loading image:", *imagePath)
	payload, err := imgload.FromFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	fmt.Printf("Image ready: %dx%d %s (%d bytes)\n", payload.Width, payload.Height, payload.Mime, len(payload.Bytes))

	transport := &lens.HTTPTransport{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
	policy := lens.DefaultPolicy()
	policy.MaxAttempts = uint64(cfg.MaxAttempts)
	client := lens.NewClient(transport, policy)

	result, err := client.Submit(context.Background(), payload, language)
	if err != nil {
		var perr *lens.ProtocolError
		if errors.As(err, &perr) && perr.Kind == lens.FailureRateLimited {
			log.Fatalf("Service rate-limited the request, try again later: %v", err)
		}
		log.Fatalf("OCR failed: %v", err)
	}

	fmt.Printf("Found %d text segment(s)\n", len(result.Segments))
	if result.DroppedNodes > 0 {
		fmt.Printf("Warning: %d malformed response node(s) were dropped\n", result.DroppedNodes)
	}

	// Write text output if flag is provided.
	if *textPath != "" {
		if err := os.WriteFile(*textPath, []byte(result.FullText), 0644); err != nil {
			log.Fatalf("Failed to write text output: %v", err)
		}
		fmt.Println("Extracted text saved to:", *textPath)
	}

	// Write result JSON if flag is provided.
	if *jsonPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to convert result to JSON: %v", err)
		}
		if err := os.WriteFile(*jsonPath, data, 0644); err != nil {
			log.Fatalf("Failed to write result JSON: %v", err)
		}
		fmt.Println("Result JSON saved to:", *jsonPath)
	}

	// Write hOCR output if flag is provided.
	if *hocrPath != "" {
		hocrHTML, err := lens.GenerateHOCR(result, filepath.Base(*imagePath))
		if err != nil {
			log.Fatalf("Failed to generate HOCR: %v", err)
		}
		if err := os.WriteFile(*hocrPath, []byte(hocrHTML), 0644); err != nil {
			log.Fatalf("Failed to write HOCR output: %v", err)
		}
		fmt.Println("Rendered HOCR output saved to:", *hocrPath)
	}

	// Generate a searchable PDF if flag is provided.
	if *pdfPath != "" {
		doc, err := lens.HOCRFromResult(result, filepath.Base(*imagePath))
		if err != nil {
			log.Fatalf("Failed to build hOCR for PDF: %v", err)
		}
		pdfCfg := pdfout.DefaultConfig()
		pdfCfg.Debug = *pdfDebug
		pdfBytes, err := pdfout.AssembleWithOCR(doc, payload.Bytes, pdfCfg)
		if err != nil {
			log.Fatalf("Failed to create searchable PDF: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdfBytes, 0644); err != nil {
			log.Fatalf("Failed to write searchable PDF: %v", err)
		}
		fmt.Println("Searchable PDF saved to:", *pdfPath)
	}
}
