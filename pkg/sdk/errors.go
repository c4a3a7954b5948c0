package matchdex

import "github.com/hirelens/matchdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrJobNotFound            = domain.ErrJobNotFound
	ErrCandidateNotFound      = domain.ErrCandidateNotFound
	ErrEmbeddingNotFound      = domain.ErrEmbeddingNotFound
	ErrShortlistNotFound      = domain.ErrShortlistNotFound
	ErrRulesVersionNotFound   = domain.ErrRulesVersionNotFound
	ErrRulesVersionExists     = domain.ErrRulesVersionExists
	ErrRetrievalTimeout       = domain.ErrRetrievalTimeout
	ErrUnknownRuleType        = domain.ErrUnknownRuleType
	ErrInvalidRuleConfig      = domain.ErrInvalidRuleConfig
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
