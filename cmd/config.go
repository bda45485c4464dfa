package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for the model provider
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("openai.chat_model", "OPENAI_CHAT_MODEL")
	viper.BindEnv("openai.embedding_model", "OPENAI_EMBEDDING_MODEL")
	viper.BindEnv("openai.embedding_dimension", "OPENAI_EMBEDDING_DIMENSION")

	// Map environment variables to Viper keys for the vector store
	viper.BindEnv("qdrant.host", "QDRANT_HOST")
	viper.BindEnv("qdrant.port", "QDRANT_PORT")
	viper.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	viper.BindEnv("qdrant.collection", "QDRANT_COLLECTION")

	// Map environment variables to Viper keys for MinIO and Server
	viper.BindEnv("minio.enabled", "MINIO_ENABLED")
	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.document_bucket", "MINIO_DOCUMENT_BUCKET")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.BindEnv("server.max_upload_bytes", "SERVER_MAX_UPLOAD_BYTES")

	// Map environment variables to Viper keys for the pipelines
	viper.BindEnv("rag.chunk_size", "RAG_CHUNK_SIZE")
	viper.BindEnv("rag.chunk_overlap", "RAG_CHUNK_OVERLAP")
	viper.BindEnv("rag.top_k", "RAG_TOP_K")
	viper.BindEnv("rag.upstream_timeout", "RAG_UPSTREAM_TIMEOUT")

	viper.BindEnv("log.verbosity", "LOG_VERBOSITY")

	// Set default values for the model provider
	viper.SetDefault("openai.chat_model", "gpt-4o-mini")
	viper.SetDefault("openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("openai.embedding_dimension", 1536)

	// Set default values for the vector store
	viper.SetDefault("qdrant.host", "localhost")
	viper.SetDefault("qdrant.port", 6334)
	viper.SetDefault("qdrant.collection", "documents")

	// Set default values for MinIO and Server
	viper.SetDefault("minio.enabled", false)
	viper.SetDefault("minio.endpoint", "localhost:9000")
	viper.SetDefault("minio.access_key", "minioadmin")
	viper.SetDefault("minio.secret_key", "minioadmin")
	viper.SetDefault("minio.document_bucket", "documents")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.max_upload_bytes", 20<<20)

	// Set default values for the pipelines
	viper.SetDefault("rag.chunk_size", 1000)
	viper.SetDefault("rag.chunk_overlap", 200)
	viper.SetDefault("rag.top_k", 4)
	viper.SetDefault("rag.upstream_timeout", "60s")

	viper.SetDefault("log.verbosity", 0)
}
