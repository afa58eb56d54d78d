package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agrosense/agrosense/pkg/adapter"
	"github.com/agrosense/agrosense/pkg/advisor"
	"github.com/agrosense/agrosense/pkg/catalog"
	"github.com/agrosense/agrosense/pkg/config"
	"github.com/agrosense/agrosense/pkg/retrieval"
	"github.com/agrosense/agrosense/pkg/server"
	"github.com/agrosense/agrosense/pkg/transcript"
)

var debugFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "agrosense",
		Short: "Multi-turn crop advisory assistant",
		Long: `AgroSense collects soil and weather details over a conversation,
	asks for what is still missing, and recommends crops once enough
	is known, grounded in a local reference corpus.`,
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if debugFlag {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// buildAdapters creates every adapter with a configured key. The mock adapter
// is always available for offline runs.
func buildAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := map[string]adapter.Adapter{
		"mock": adapter.NewMockAdapter(),
	}

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		adapters[a.Name()] = a
	}
	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		adapters[a.Name()] = a
	}
	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		adapters[a.Name()] = a
	}
	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, err
		}
		adapters[a.Name()] = a
	}

	return adapters, nil
}

// buildAdvisor wires the catalog, adapters, and retrieval index into an
// Advisor per the loaded configuration.
func buildAdvisor(cfg *config.Config, logger *zap.Logger) (*advisor.Advisor, error) {
	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}

	nlu, ok := adapters[cfg.Advisor.ExtractorAdapter]
	if !ok {
		return nil, fmt.Errorf("extractor adapter %q not available (missing API key?)", cfg.Advisor.ExtractorAdapter)
	}
	nlg, ok := adapters[cfg.Advisor.ComposerAdapter]
	if !ok {
		return nil, fmt.Errorf("composer adapter %q not available (missing API key?)", cfg.Advisor.ComposerAdapter)
	}

	cat, err := catalog.Load(cfg.Advisor.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("crop catalog: %w", err)
	}

	var retriever retrieval.Retriever
	if _, err := os.Stat(cfg.Advisor.IndexPath); err == nil {
		embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Advisor.EmbeddingModel)
		if err != nil {
			logger.Warn("retrieval index present but embedder unavailable", zap.Error(err))
		} else {
			ix, err := retrieval.LoadIndex(cfg.Advisor.IndexPath, embedder)
			if err != nil {
				return nil, fmt.Errorf("retrieval index: %w", err)
			}
			retriever = ix
			logger.Info("retrieval index loaded",
				zap.String("path", cfg.Advisor.IndexPath),
				zap.Int("documents", ix.Len()))
		}
	} else {
		logger.Info("no retrieval index found, answers will skip references",
			zap.String("path", cfg.Advisor.IndexPath))
	}

	return advisor.New(advisor.Options{
		NLU:                 nlu,
		NLUModel:            cfg.Advisor.ExtractorModel,
		NLG:                 nlg,
		NLGModel:            cfg.Advisor.ComposerModel,
		Retriever:           retriever,
		Catalog:             cat,
		TopK:                cfg.Advisor.TopK,
		RetrievalK:          cfg.Advisor.RetrievalK,
		ExtraRefusalPhrases: cfg.Advisor.RefusalPhrases,
		Logger:              logger,
	})
}

func chatCmd() *cobra.Command {
	var showReasoning bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive multi-turn advisory session",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adv, err := buildAdvisor(cfg, logger)
			if err != nil {
				return err
			}

			sessionID, err := gonanoid.New()
			if err != nil {
				return err
			}
			recorder, err := transcript.NewRecorder(cfg.Advisor.TranscriptDir, sessionID)
			if err != nil {
				logger.Warn("transcripts disabled", zap.Error(err))
				recorder = nil
			}

			fmt.Println("AgroSense ready. Describe your field, or type 'exit' to quit.")

			var params advisor.Parameters
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				query := strings.TrimSpace(scanner.Text())
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					break
				}

				start := time.Now()
				state := adv.Advance(cmd.Context(), query, params)
				params = state.Parameters

				fmt.Println()
				fmt.Println(state.Answer)
				fmt.Println()

				if showReasoning {
					printReasoning(state)
				}
				if recorder != nil {
					if err := recorder.RecordTurn(transcript.FromState(state, time.Since(start))); err != nil {
						logger.Warn("failed to record turn", zap.Error(err))
					}
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&showReasoning, "reasoning", false, "print known parameters and candidate scores after each turn")
	return cmd
}

func printReasoning(state advisor.ConversationState) {
	data, err := json.MarshalIndent(state.Parameters, "", "  ")
	if err == nil {
		fmt.Printf("known parameters:\n%s\n", data)
	}
	if len(state.MissingFields) > 0 {
		labels := make([]string, 0, len(state.MissingFields))
		for _, key := range state.MissingFields {
			labels = append(labels, catalog.Label(key))
		}
		fmt.Printf("still missing: %s\n", strings.Join(labels, ", "))
	}
	for i, c := range state.CandidateResults {
		fmt.Printf("%d. %s (score = %.2f)\n", i+1, c.Name, c.Score)
	}
	fmt.Println()
}

func askCmd() *cobra.Command {
	var paramsFlag string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run a single advisory turn",
		Long: `Runs one turn against the advisor. Use --params to seed prior
	knowledge as JSON, e.g. '{"n": 80, "ph": 6.5}'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adv, err := buildAdvisor(cfg, logger)
			if err != nil {
				return err
			}

			var prior advisor.Parameters
			if paramsFlag != "" {
				if err := json.Unmarshal([]byte(paramsFlag), &prior); err != nil {
					return fmt.Errorf("invalid --params JSON: %w", err)
				}
			}

			state := adv.Advance(cmd.Context(), args[0], prior)
			fmt.Println(state.Answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsFlag, "params", "", "prior parameters as JSON")
	return cmd
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the crop profile catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			cat, err := catalog.Load(cfg.Advisor.CatalogPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CROP\tN\tP\tK\tTEMP\tHUMIDITY\tPH\tRAINFALL")
			for _, p := range cat.Profiles() {
				fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.2f\t%.1f\n",
					p.Name, p.N, p.P, p.K, p.Temperature, p.Humidity, p.PH, p.Rainfall)
			}
			return w.Flush()
		},
	}
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and query the reference index",
	}
	cmd.AddCommand(indexBuildCmd())
	cmd.AddCommand(indexSearchCmd())
	return cmd
}

func indexBuildCmd() *cobra.Command {
	var docsDir string
	var outPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed a document corpus into the reference index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if outPath == "" {
				outPath = cfg.Advisor.IndexPath
			}

			embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Advisor.EmbeddingModel)
			if err != nil {
				return err
			}

			ix, err := retrieval.BuildFromDir(cmd.Context(), docsDir, embedder, cfg.Advisor.EmbeddingModel)
			if err != nil {
				return err
			}
			if err := ix.Save(outPath); err != nil {
				return err
			}

			fmt.Printf("Indexed %d chunks into %s\n", ix.Len(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "data/docs", "directory of .txt/.md reference documents")
	cmd.Flags().StringVar(&outPath, "out", "", "index output path (default: configured index path)")
	return cmd
}

func indexSearchCmd() *cobra.Command {
	var k int
	var topic string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Query the reference index directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Advisor.EmbeddingModel)
			if err != nil {
				return err
			}
			ix, err := retrieval.LoadIndex(cfg.Advisor.IndexPath, embedder)
			if err != nil {
				return err
			}

			snippets, err := ix.Search(cmd.Context(), args[0], k, topic)
			if err != nil {
				return err
			}
			for _, s := range snippets {
				fmt.Printf("--- %s (topic: %s)\n%s\n\n", s.Source, s.Topic, s.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&k, "k", 5, "number of snippets to return")
	cmd.Flags().StringVar(&topic, "topic", "", "restrict results to one topic")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the advisory HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr == "" {
				addr = cfg.Advisor.ListenAddr
			}

			adv, err := buildAdvisor(cfg, logger)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Advisor:       adv,
				SessionTTL:    time.Duration(cfg.Advisor.SessionTTLMinutes) * time.Minute,
				TranscriptDir: cfg.Advisor.TranscriptDir,
				Logger:        logger,
			})

			logger.Info("listening", zap.String("addr", addr))
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return httpServer.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: configured listen address)")
	return cmd
}
