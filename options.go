package kbsearch

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	// embedding provider
	openAIKey     string
	openAIBaseURL string
	model         string
	dimensions    int
	embedder      Embedder

	// cache
	redisAddrs    []string
	redisPassword string
	contentTTL    time.Duration

	// extraction
	userAgent    string
	fetchTimeout time.Duration

	// ranking
	defaultThreshold    float64
	prefilterMultiplier float64
	deepBatchSize       int
	batchSize           int

	logger *zap.Logger
}

// WithOpenAI configures the OpenAI-compatible embedding provider.
// baseURL may be empty for the default endpoint.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
		c.model = model
	})
}

// WithDimensions requests reduced-dimension embeddings from the provider.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithEmbedder sets a custom embedding provider instead of OpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithRedis stores extracted content and embedding vectors in Redis instead
// of the default in-process cache.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithContentTTL sets the freshness window for cached extracted content.
// Default: 10 minutes.
func WithContentTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.contentTTL = ttl
	})
}

// WithUserAgent sets the User-Agent header for content fetches.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithFetchTimeout caps each outbound content fetch. Default: 5 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = d
	})
}

// WithDefaultThreshold sets the similarity threshold used when Search is
// called with threshold 0. Default: 0.3.
func WithDefaultThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultThreshold = t
	})
}

// WithTuning overrides the ranking knobs: the stage-1 widening multiplier
// and the stage-2 batch size. Zero values keep the defaults (0.7 and 3).
func WithTuning(prefilterMultiplier float64, deepBatchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefilterMultiplier = prefilterMultiplier
		c.deepBatchSize = deepBatchSize
	})
}

// WithBatchSize sets how many texts are embedded per provider request.
// Default: 3.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
