package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "docpilot/handler/http"
	"docpilot/src/core/rag"
	"docpilot/src/infrastructure/integrations/openai"
	"docpilot/src/log"
	"docpilot/src/storage/minioctrl"
	"docpilot/src/storage/qdrant"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question answering server",
	Long:  `The serve command starts the HTTP server that ingests documents and answers questions over them.`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	settingDefaultConfig()
}

func RunServer(cmd *cobra.Command, args []string) {
	upstreamTimeout, err := time.ParseDuration(viper.GetString("rag.upstream_timeout"))
	if err != nil {
		log.Error(err, "Invalid upstream timeout, using default 60s")
		upstreamTimeout = 60 * time.Second
	}

	// Initialize model provider client
	provider, err := openai.NewClient(openai.Config{
		APIKey:             viper.GetString("openai.api_key"),
		BaseURL:            viper.GetString("openai.base_url"),
		ChatModel:          viper.GetString("openai.chat_model"),
		EmbeddingModel:     viper.GetString("openai.embedding_model"),
		EmbeddingDimension: viper.GetInt("openai.embedding_dimension"),
		Timeout:            upstreamTimeout,
	})
	if err != nil {
		log.Error(err, "Failed to create model provider client")
		return
	}

	// Initialize vector store
	store, err := qdrant.NewSDK(qdrant.Config{
		Host:       viper.GetString("qdrant.host"),
		Port:       viper.GetInt("qdrant.port"),
		APIKey:     viper.GetString("qdrant.api_key"),
		Collection: viper.GetString("qdrant.collection"),
		Dimension:  viper.GetInt("openai.embedding_dimension"),
		Timeout:    upstreamTimeout,
	})
	if err != nil {
		log.Error(err, "Failed to create vector store client")
		return
	}
	defer store.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureCollection(startupCtx); err != nil {
		// Not fatal: the store may come up after us. Readiness reports it.
		log.Error(err, "Failed to ensure collection, store may not be up yet")
	}
	cancel()

	// Initialize optional raw document archive
	var archive rag.Archive
	if viper.GetBool("minio.enabled") {
		docArchive, err := minioctrl.NewDocumentArchive(
			viper.GetString("minio.endpoint"),
			viper.GetString("minio.access_key"),
			viper.GetString("minio.secret_key"),
			viper.GetString("minio.document_bucket"),
			false,
		)
		if err != nil {
			log.Error(err, "Failed to create document archive")
			return
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := docArchive.EnsureBucket(bucketCtx); err != nil {
			log.Error(err, "Failed to ensure archive bucket")
		}
		cancel()
		archive = docArchive
	}

	// Initialize core services
	chunker := rag.NewChunker(viper.GetInt("rag.chunk_size"), viper.GetInt("rag.chunk_overlap"))

	handler := httpHdlr.NewHandler(
		rag.NewSearchService(provider, store, viper.GetInt("rag.top_k")),
		rag.NewAnswerService(provider),
		rag.NewIngestService(chunker, provider, store, archive),
		rag.NewEvaluateService(provider),
		store,
		store,
		rag.NewSystemService(store, provider),
		viper.GetInt64("server.max_upload_bytes"),
	)

	// Setup gin router
	r := gin.Default()

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	ctx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
