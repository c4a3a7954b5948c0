package matchdex

import (
	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/domain"
)

type clientConfig struct {
	addrs         []string
	password      string
	dimensions    int
	embedder      domain.Embedder
	model         string
	taxonomyVer   string
	minSimilarity float64
	topK          int
	topN          int
	parallelism   int
	baseScale     float64
	logger        *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis connection.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithDimensions sets the embedding vector dimensionality.
func WithDimensions(dim int) Option {
	return func(c *clientConfig) { c.dimensions = dim }
}

// WithEmbedder supplies the embedding provider used by ingestion. Without
// one, upserts must carry precomputed vectors.
func WithEmbedder(e domain.Embedder, model string) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.model = model
	}
}

// WithTaxonomyVersion sets the taxonomy version tag stamped on results.
func WithTaxonomyVersion(v string) Option {
	return func(c *clientConfig) { c.taxonomyVer = v }
}

// WithMatchingDefaults overrides the default TopK/TopN for matching runs.
func WithMatchingDefaults(topK, topN int) Option {
	return func(c *clientConfig) {
		c.topK = topK
		c.topN = topN
	}
}

// WithMinSimilarity sets the retrieval similarity floor.
func WithMinSimilarity(min float64) Option {
	return func(c *clientConfig) { c.minSimilarity = min }
}

// WithParallelism bounds concurrent rule evaluation per run.
func WithParallelism(n int) Option {
	return func(c *clientConfig) { c.parallelism = n }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
