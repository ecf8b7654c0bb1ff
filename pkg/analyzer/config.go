package analyzer

// ImportanceWeights controls how the per-document importance score is
// blended. The three components each lie in [0, 1]; weights are relative,
// not required to sum to 1.
type ImportanceWeights struct {
	Connectivity float64 `json:"connectivity" mapstructure:"connectivity"`
	Attention    float64 `json:"attention" mapstructure:"attention"`
	Recency      float64 `json:"recency" mapstructure:"recency"`
}

// Config tunes the chunked analyzer. The carryover caps are the memory
// contract: whatever the corpus size, at most MaxCarryoverEvents events,
// MaxCarryoverEntities entities and MaxCarryoverChains chains cross a
// window boundary.
type Config struct {
	ChunkSizeDays        int               `json:"chunk_size_days" mapstructure:"chunk_size_days"`
	MaxCarryoverEvents   int               `json:"max_carryover_events" mapstructure:"max_carryover_events"`
	MaxCarryoverEntities int               `json:"max_carryover_entities" mapstructure:"max_carryover_entities"`
	MaxCarryoverChains   int               `json:"max_carryover_chains" mapstructure:"max_carryover_chains"`
	ImportanceThreshold  float64           `json:"importance_threshold" mapstructure:"importance_threshold"`
	Weights              ImportanceWeights `json:"weights" mapstructure:"weights"`
	Workers              int               `json:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the standard analyzer tuning.
func DefaultConfig() Config {
	return Config{
		ChunkSizeDays:        90,
		MaxCarryoverEvents:   10,
		MaxCarryoverEntities: 15,
		MaxCarryoverChains:   20,
		ImportanceThreshold:  0.6,
		Weights: ImportanceWeights{
			Connectivity: 0.4,
			Attention:    0.3,
			Recency:      0.3,
		},
		Workers: 4,
	}
}

// withDefaults fills zero fields so a partially populated Config behaves
// sensibly.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSizeDays <= 0 {
		c.ChunkSizeDays = def.ChunkSizeDays
	}
	if c.MaxCarryoverEvents <= 0 {
		c.MaxCarryoverEvents = def.MaxCarryoverEvents
	}
	if c.MaxCarryoverEntities <= 0 {
		c.MaxCarryoverEntities = def.MaxCarryoverEntities
	}
	if c.MaxCarryoverChains <= 0 {
		c.MaxCarryoverChains = def.MaxCarryoverChains
	}
	if c.ImportanceThreshold <= 0 {
		c.ImportanceThreshold = def.ImportanceThreshold
	}
	if c.Weights == (ImportanceWeights{}) {
		c.Weights = def.Weights
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	return c
}
