package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// PipelineConfig represents the triage pipeline configuration
type PipelineConfig struct {
	Collection    string
	StagingPrefix string
	ResultsPrefix string
}

// DocStoreConfig represents the document store configuration
type DocStoreConfig struct {
	Type          string
	MongoURI      string
	MongoDatabase string
}

// BlobStoreConfig represents the blob store configuration
type BlobStoreConfig struct {
	Type          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		Collection:    c.GetString("pipeline.collection"),
		StagingPrefix: c.GetString("pipeline.staging_prefix"),
		ResultsPrefix: c.GetString("pipeline.results_prefix"),
	}
}

// GetDocStore returns the document store configuration
func (c *Config) GetDocStore() DocStoreConfig {
	return DocStoreConfig{
		Type:          c.GetString("docstore.type"),
		MongoURI:      c.GetString("docstore.mongo_uri"),
		MongoDatabase: c.GetString("docstore.mongo_database"),
	}
}

// GetBlobStore returns the blob store configuration
func (c *Config) GetBlobStore() BlobStoreConfig {
	return BlobStoreConfig{
		Type:          c.GetString("blobstore.type"),
		RedisAddr:     c.GetString("blobstore.redis_addr"),
		RedisPassword: c.GetString("blobstore.redis_password"),
		RedisDB:       c.GetInt("blobstore.redis_db"),
	}
}
