package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/scamlabs/scamwatch/pkg/config"
	"github.com/scamlabs/scamwatch/pkg/httputil"
	"github.com/scamlabs/scamwatch/pkg/ml"
	"github.com/scamlabs/scamwatch/pkg/rules"
	"github.com/scamlabs/scamwatch/pkg/storage"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := config.NewDefaultConfig()
		if len(os.Args) > 2 {
			cfg.Port = os.Args[2]
		}
		runHTTPServer(cfg)
	case "detect":
		if len(os.Args) < 3 {
			fmt.Println("Usage: scamwatch detect <text>")
			os.Exit(1)
		}
		runCLIDetect(strings.Join(os.Args[2:], " "))
	case "train":
		if len(os.Args) < 3 {
			fmt.Println("Usage: scamwatch train <dataset.csv>")
			os.Exit(1)
		}
		runTrain(os.Args[2])
	case "upload":
		runUpload()
	case "version":
		fmt.Printf("ScamWatch v%s\n", Version)
		fmt.Println("Scam message detection gateway")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("ScamWatch v%s - scam message detection gateway\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  scamwatch serve [port]           Start HTTP server (default: 8080)")
	fmt.Println("  scamwatch detect <text>          Classify one message and print the result")
	fmt.Println("  scamwatch train <dataset.csv>    Train model artifacts from a labelled CSV")
	fmt.Println("  scamwatch upload                 Upload local artifacts to the object store")
	fmt.Println("  scamwatch version                Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  SCAMWATCH_MODEL_VERSION    Artifact version id (default: v1)")
	fmt.Println("  SCAMWATCH_LOCAL_ART_DIR    Local artifact directory (preferred over S3)")
	fmt.Println("  SCAMWATCH_STORAGE_BUCKET   Artifact bucket (default: artifacts)")
	fmt.Println("  SCAMWATCH_S3_ENDPOINT      S3-compatible endpoint URL")
	fmt.Println("  SCAMWATCH_REDIS_ADDR       Optional redis cache for artifact fetches")
	fmt.Println("  SCAMWATCH_RULES_PATH       Optional YAML rule-set override")
	fmt.Println("  SCAMWATCH_MAX_INFLIGHT     Concurrent detection cap (default: 64)")
}

// newFetcher builds the artifact store chain from config: S3, optionally
// wrapped by the redis read-through cache. Returns nil when no store is
// configured (local-artifacts-only deployments).
func newFetcher(cfg *config.Config) (ml.Fetcher, func()) {
	if cfg.S3AccessKey == "" && cfg.S3SecretKey == "" {
		return nil, func() {}
	}

	store, err := storage.NewS3Store(storage.Connect(storage.Config{
		EndpointURL: cfg.S3EndpointURL,
		Region:      cfg.S3Region,
		AccessKey:   cfg.S3AccessKey,
		SecretKey:   cfg.S3SecretKey,
	}))
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: artifact store init failed: %v", err)
	}

	if cfg.RedisAddr == "" {
		return store, func() {}
	}

	cached := storage.NewCachedFetcher(cfg.RedisAddr, store, 0)
	log.Printf("✓ Artifact cache enabled (redis %s)", cfg.RedisAddr)
	return cached, func() { _ = cached.Close() }
}

// newEngine compiles the rule set, from the configured YAML file when set,
// otherwise the built-in rules.
func newEngine(cfg *config.Config) *rules.Engine {
	if cfg.RulesPath == "" {
		return rules.NewDefaultEngine()
	}
	specs, err := rules.LoadSpecs(cfg.RulesPath)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: rule set %s unusable: %v", cfg.RulesPath, err)
	}
	engine, err := rules.NewEngine(specs)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: rule set %s unusable: %v", cfg.RulesPath, err)
	}
	log.Printf("✓ Rule set loaded from %s", cfg.RulesPath)
	return engine
}

// newDetector wires the full pipeline and eagerly loads the model artifact.
// Artifact load failure is fatal: the process must not serve detection
// requests without a model.
func newDetector(cfg *config.Config) (*ml.Detector, func()) {
	fetcher, closeFetcher := newFetcher(cfg)

	resource := ml.NewResource(ml.PreferredLoader(
		cfg.LocalArtifactDir, fetcher, cfg.ArtifactBucket, cfg.ModelVersion))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	art, err := resource.Artifact(ctx)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: model artifacts unavailable: %v", err)
	}
	log.Printf("✓ Model artifacts loaded (version=%s vocab=%d mode=%s)",
		cfg.ModelVersion, len(art.Vocabulary), art.Mode)

	engine := newEngine(cfg)
	log.Printf("✓ Rule engine ready (%d categories, max score %d)",
		engine.RuleCount(), engine.MaxScore())

	thresholds := ml.Thresholds{
		MLLikely:    cfg.MLLikelyThreshold,
		MLUnclear:   cfg.MLUnclearThreshold,
		RuleLikely:  cfg.RuleLikelyThreshold,
		RuleUnclear: cfg.RuleUnclearThreshold,
	}
	return ml.NewDetector(resource, engine, thresholds), closeFetcher
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(cfg *config.Config) {
	cfg.MustValidate()

	detector, closeFetcher := newDetector(cfg)
	defer closeFetcher()

	limiter := httputil.NewLimiter(cfg.MaxInFlight)

	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"app":           cfg.AppName,
			"version":       Version,
			"model_version": cfg.ModelVersion,
			"load":          limiter.Stats(),
		})
	})

	// Detection endpoint. Malformed or missing text is treated as empty
	// input and answered with the fixed Unclear result, never rejected.
	// Only saturation turns a request away.
	app.Post("/detect", func(c fiber.Ctx) error {
		if !limiter.TryAcquire() {
			c.Set("Retry-After", "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "overloaded"})
		}
		defer limiter.Release()

		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			req.Text = ""
		}

		reqID := uuid.NewString()
		c.Set("X-Request-ID", reqID)

		result, err := detector.Detect(c.Context(), req.Text)
		if err != nil {
			log.Printf("[DETECT] id=%s internal error: %v", reqID, err)
			return c.Status(500).JSON(fiber.Map{"error": "internal error"})
		}

		log.Printf("[DETECT] id=%s verdict=%q ml=%.3f rules=%d",
			reqID, result.Verdict, result.ScoreML, result.ScoreRules)
		return c.JSON(result)
	})

	log.Printf("ScamWatch HTTP server starting on :%s", cfg.Port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health   - Health check")
	log.Printf("  POST /detect   - Scam detection")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIDetect(text string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	detector, closeFetcher := newDetector(cfg)
	defer closeFetcher()

	result, err := detector.Detect(context.Background(), text)
	if err != nil {
		log.Fatalf("detect failed: %v", err)
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

// ============================================================================
// Training Mode
// ============================================================================

func runTrain(datasetPath string) {
	cfg := config.NewDefaultConfig()

	log.Printf("Loading %s", datasetPath)
	texts, labels, err := loadDataset(datasetPath)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	log.Printf("Loaded %d labelled messages", len(texts))

	art, report, err := ml.Train(texts, labels, ml.DefaultTrainOptions())
	if err != nil {
		log.Fatalf("train: %v", err)
	}

	log.Printf("Trained on %d docs (test %d), vocab %d terms, %d iterations (converged=%v)",
		report.TrainDocs, report.TestDocs, report.VocabSize, report.Iterations, report.Converged)
	log.Printf("Held-out positive class: precision=%.3f recall=%.3f f1=%.3f",
		report.Precision, report.Recall, report.F1)

	vecBytes, modelBytes, err := ml.MarshalArtifact(art)
	if err != nil {
		log.Fatalf("serialize artifacts: %v", err)
	}

	outDir := cfg.LocalArtifactDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("create artifact dir %s: %v", outDir, err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ml.VectorizerFile), vecBytes, 0o644); err != nil {
		log.Fatalf("write vectorizer artifact: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ml.ModelFile), modelBytes, 0o644); err != nil {
		log.Fatalf("write classifier artifact: %v", err)
	}
	log.Printf("Saved artifacts to %s", outDir)
}

// ============================================================================
// Upload Mode
// ============================================================================

func runUpload() {
	cfg := config.NewDefaultConfig()

	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		log.Fatal("upload requires SCAMWATCH_S3_ACCESS_KEY and SCAMWATCH_S3_SECRET_KEY")
	}

	store, err := storage.NewS3Store(storage.Connect(storage.Config{
		EndpointURL: cfg.S3EndpointURL,
		Region:      cfg.S3Region,
		AccessKey:   cfg.S3AccessKey,
		SecretKey:   cfg.S3SecretKey,
	}))
	if err != nil {
		log.Fatalf("artifact store init failed: %v", err)
	}

	vecBytes, err := os.ReadFile(filepath.Join(cfg.LocalArtifactDir, ml.VectorizerFile))
	if err != nil {
		log.Fatalf("missing local artifact: %v", err)
	}
	modelBytes, err := os.ReadFile(filepath.Join(cfg.LocalArtifactDir, ml.ModelFile))
	if err != nil {
		log.Fatalf("missing local artifact: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	if err := store.EnsureBucket(ctx, cfg.ArtifactBucket); err != nil {
		log.Fatalf("ensure bucket: %v", err)
	}

	vecKey, modelKey := ml.ArtifactKeys(cfg.ModelVersion)
	if err := store.Upload(ctx, cfg.ArtifactBucket, vecKey, vecBytes); err != nil {
		log.Fatalf("upload: %v", err)
	}
	log.Printf("uploaded: %s", vecKey)
	if err := store.Upload(ctx, cfg.ArtifactBucket, modelKey, modelBytes); err != nil {
		log.Fatalf("upload: %v", err)
	}
	log.Printf("uploaded: %s", modelKey)
	log.Println("upload complete")
}
