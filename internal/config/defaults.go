package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 50051
	}
	if cfg.Server.EmbeddingDim == 0 {
		cfg.Server.EmbeddingDim = 4096
	}
	if cfg.Server.EmbeddingCache == 0 {
		cfg.Server.EmbeddingCache = 1024
	}
	if cfg.Client.DialTimeoutSeconds == 0 {
		cfg.Client.DialTimeoutSeconds = 2
	}
	if cfg.Client.RequestTimeoutSeconds == 0 {
		cfg.Client.RequestTimeoutSeconds = 30
	}
	if cfg.Ingest.ChunkTokens == 0 {
		cfg.Ingest.ChunkTokens = 1500
	}
	if cfg.Ingest.OverlapSentences == 0 {
		cfg.Ingest.OverlapSentences = 2
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".xlsx", ".pptx", ".odp", ".ods"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
