// Package relate computes tag co-occurrence relatedness (NPMI) and combined
// TF-IDF/tag/recency similarity between documents.
package relate

// Config holds all thresholds and weights for the relatedness and
// similarity engines.
type Config struct {
	// Tag relatedness thresholds
	MinTagFrequency int     `yaml:"min_tag_frequency"` // default: 3
	MinCoOccurrence int     `yaml:"min_co_occurrence"` // default: 2
	NPMIThreshold   float64 `yaml:"npmi_threshold"`    // default: 0

	// Related-posts ranking
	MinSimilarityScore float64 `yaml:"min_similarity_score"` // default: 0.05
	MaxRelatedPosts    int     `yaml:"max_related_posts"`    // default: 6
	MaxCandidates      int     `yaml:"max_candidates"`       // default: 50

	// Text extraction
	BodyLimit   int `yaml:"body_limit"`   // default: 5000 runes
	TitleWeight int `yaml:"title_weight"` // default: 3 (title repeated N times)

	// Combined score weights
	TagWeight     float64 `yaml:"tag_weight"`     // default: 0.6
	ContentWeight float64 `yaml:"content_weight"` // default: 0.4

	// Tag similarity channel weights
	JaccardWeight float64 `yaml:"jaccard_weight"` // default: 0.4
	RelatedWeight float64 `yaml:"related_weight"` // default: 0.6

	// Recency bonus
	RecencyBonusMax   float64 `yaml:"recency_bonus_max"`   // default: 0.1
	RecencyWindowDays float64 `yaml:"recency_window_days"` // default: 30

	// Per-document tokenization bound
	TokenizeTimeoutSeconds int `yaml:"tokenize_timeout_seconds"` // default: 10

	// Memoization of relatedness results across runs in one process
	RelatedTagCacheSize int `yaml:"related_tag_cache_size"` // default: 20
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MinTagFrequency:        3,
		MinCoOccurrence:        2,
		NPMIThreshold:          0,
		MinSimilarityScore:     0.05,
		MaxRelatedPosts:        6,
		MaxCandidates:          50,
		BodyLimit:              5000,
		TitleWeight:            3,
		TagWeight:              0.6,
		ContentWeight:          0.4,
		JaccardWeight:          0.4,
		RelatedWeight:          0.6,
		RecencyBonusMax:        0.1,
		RecencyWindowDays:      30,
		TokenizeTimeoutSeconds: 10,
		RelatedTagCacheSize:    20,
	}
}

// ApplyDefaults fills in zero values with defaults. NPMIThreshold defaults
// to 0, so it needs no fill.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.MinTagFrequency == 0 {
		c.MinTagFrequency = defaults.MinTagFrequency
	}
	if c.MinCoOccurrence == 0 {
		c.MinCoOccurrence = defaults.MinCoOccurrence
	}
	if c.MinSimilarityScore == 0 {
		c.MinSimilarityScore = defaults.MinSimilarityScore
	}
	if c.MaxRelatedPosts == 0 {
		c.MaxRelatedPosts = defaults.MaxRelatedPosts
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = defaults.MaxCandidates
	}
	if c.BodyLimit == 0 {
		c.BodyLimit = defaults.BodyLimit
	}
	if c.TitleWeight == 0 {
		c.TitleWeight = defaults.TitleWeight
	}
	if c.TagWeight == 0 {
		c.TagWeight = defaults.TagWeight
	}
	if c.ContentWeight == 0 {
		c.ContentWeight = defaults.ContentWeight
	}
	if c.JaccardWeight == 0 {
		c.JaccardWeight = defaults.JaccardWeight
	}
	if c.RelatedWeight == 0 {
		c.RelatedWeight = defaults.RelatedWeight
	}
	if c.RecencyBonusMax == 0 {
		c.RecencyBonusMax = defaults.RecencyBonusMax
	}
	if c.RecencyWindowDays == 0 {
		c.RecencyWindowDays = defaults.RecencyWindowDays
	}
	if c.TokenizeTimeoutSeconds == 0 {
		c.TokenizeTimeoutSeconds = defaults.TokenizeTimeoutSeconds
	}
	if c.RelatedTagCacheSize == 0 {
		c.RelatedTagCacheSize = defaults.RelatedTagCacheSize
	}
}
