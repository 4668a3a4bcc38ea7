// Command recibos-parse reads OCR text from a file or stdin and prints the
// extracted receipt fields as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/recibos/internal/extraction"
	"github.com/zombor/recibos/internal/llm"
)

type output struct {
	*extraction.ParsedReceiptData
	Quality *extraction.QualityReport `json:"quality,omitempty"`
}

func main() {
	// Logs go to stderr so stdout stays valid JSON
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	fs := ff.NewFlagSet("recibos-parse")
	var (
		kind        = fs.StringLong("kind", "receipt", "Document kind: 'receipt' or 'invoice'")
		llmProvider = fs.StringLong("llm", "none", "Structured extractor: 'groq', 'gemini', 'ollama' or 'none'")
		llmKey      = fs.StringLong("llm-key", "", "Extractor API key")
		llmURL      = fs.StringLong("llm-url", "", "Extractor base URL")
		llmModel    = fs.StringLong("llm-model", "", "Extractor model name")
		llmTimeout  = fs.DurationLong("llm-timeout", extraction.DefaultTimeout, "Timeout for the structured extraction")
		quality     = fs.BoolLong("quality", "Include an OCR quality report")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECIBOS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	switch args := fs.GetArgs(); len(args) {
	case 0:
	case 1:
		f, err := os.Open(args[0])
		if err != nil {
			slog.Error("Failed to open input", "path", args[0], "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	default:
		fmt.Fprintln(os.Stderr, "usage: recibos-parse [flags] [file]")
		os.Exit(2)
	}

	text, err := io.ReadAll(in)
	if err != nil {
		slog.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	provider, err := llm.New(llm.Config{
		Provider: *llmProvider,
		APIKey:   *llmKey,
		BaseURL:  *llmURL,
		Model:    *llmModel,
	})
	if err != nil {
		slog.Error("Failed to initialize structured extractor", "error", err)
		os.Exit(1)
	}
	var extractor extraction.FieldExtractor
	if provider != nil {
		defer provider.Close()
		extractor = provider
	}

	parser := extraction.NewParser(extractor, extraction.WithTimeout(*llmTimeout))
	parsed, err := parser.ParseReceiptData(context.Background(), string(text), extraction.ParseDocumentKind(*kind))
	if err != nil {
		slog.Error("Failed to parse receipt", "error", err)
		os.Exit(1)
	}

	out := output{ParsedReceiptData: parsed}
	if *quality {
		q := extraction.AnalyzeQuality(parsed.ExtractedText)
		out.Quality = &q
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}
