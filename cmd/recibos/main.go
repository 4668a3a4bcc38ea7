package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffyaml"

	"github.com/zombor/recibos/internal/extraction"
	"github.com/zombor/recibos/internal/llm"
	"github.com/zombor/recibos/internal/ocr"
	"github.com/zombor/recibos/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("recibos")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "recibos.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./recibos", "Storage directory path")
		ocrKey          = fs.StringLong("ocr-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrURL          = fs.StringLong("ocr-url", ocr.DefaultOCRSpaceURL, "OCR.space endpoint")
		ocrLanguage     = fs.StringLong("ocr-language", "por", "OCR.space language code")
		ocrRPM          = fs.IntLong("ocr-rpm", 3, "OCR.space requests per minute, 0 to disable limiting")
		ocrBurst        = fs.IntLong("ocr-burst", 2, "OCR.space request burst")
		pdfPages        = fs.IntLong("pdf-pages", 3, "PDF pages read from the text layer")
		llmProvider     = fs.StringLong("llm", "none", "Structured extractor: 'groq', 'gemini', 'ollama' or 'none'")
		llmKey          = fs.StringLong("llm-key", "", "Extractor API key (or set GROQ_API_KEY / GEMINI_API_KEY env var)")
		llmURL          = fs.StringLong("llm-url", "", "Extractor base URL (Groq or Ollama)")
		llmModel        = fs.StringLong("llm-model", "", "Extractor model name")
		llmTimeout      = fs.DurationLong("llm-timeout", extraction.DefaultTimeout, "Timeout for one structured extraction")
		breakerFailures = fs.IntLong("breaker-failures", 5, "Consecutive extractor failures before the breaker opens")
		breakerCooldown = fs.DurationLong("breaker-cooldown", 30*time.Second, "How long the breaker stays open")
		metrics         = fs.BoolLong("metrics", "Expose Prometheus metrics on /metrics")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		_               = fs.StringLong("config", "", "YAML config file (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECIBOS"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parse),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// The PDF text layer is free, so it always goes first
	engines := ocr.Chain{ocr.NewPDFText(*pdfPages)}
	apiKey := firstNonEmpty(*ocrKey, os.Getenv("OCR_SPACE_API_KEY"))
	var ocrSpace *ocr.OCRSpace
	if apiKey == "" {
		slog.Warn("No OCR.space API key configured, only PDFs with a text layer can be read")
	} else {
		ocrSpace, err = ocr.NewOCRSpace(apiKey,
			ocr.WithEndpoint(*ocrURL),
			ocr.WithLanguage(*ocrLanguage),
			ocr.WithRateLimit(*ocrRPM, *ocrBurst),
		)
		if err != nil {
			slog.Error("Failed to initialize OCR.space", "error", err)
			os.Exit(1)
		}
		engines = append(engines, ocrSpace)
	}

	var extractor extraction.FieldExtractor
	provider, err := llm.New(llm.Config{
		Provider: *llmProvider,
		APIKey:   firstNonEmpty(*llmKey, providerKeyFromEnv(*llmProvider)),
		BaseURL:  *llmURL,
		Model:    *llmModel,
	})
	if err != nil {
		slog.Error("Failed to initialize structured extractor", "provider", *llmProvider, "error", err)
		os.Exit(1)
	}
	if provider != nil {
		slog.Info("Structured extraction enabled", "provider", *llmProvider, "model", *llmModel)
		breaker := llm.NewBreaker(provider, uint32(*breakerFailures), *breakerCooldown)
		defer breaker.Close()
		extractor = breaker
	} else {
		slog.Info("Structured extraction disabled, using rules only")
	}

	parser := extraction.NewParser(extractor, extraction.WithTimeout(*llmTimeout))
	receiptService := receipt.NewService(db, engines, parser, store)
	if ocrSpace != nil {
		receiptService.UseHealthChecker(ocrSpace)
	}
	if *metrics {
		receiptService.UseMetrics(receipt.NewMetrics())
	}

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "groq":
		return os.Getenv("GROQ_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}
