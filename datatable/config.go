package datatable

import "fmt"

const (
	// DefaultLargeThreshold is the row count above which SetFile loads nothing
	// eagerly.
	DefaultLargeThreshold = 10000

	// DefaultChunkSize is the number of rows fetched per incremental step.
	DefaultChunkSize = 10000
)

// Config controls how a TableModel loads and displays rows.
type Config struct {
	// LargeThreshold is the source length above which rows are paged in
	// on demand instead of being loaded by SetFile.
	LargeThreshold int `yaml:"large_threshold"`

	// ChunkSize is the maximum number of rows fetched in one step.
	ChunkSize int `yaml:"chunk_size"`

	// MaxCellLength truncates displayed cells. Zero disables truncation.
	MaxCellLength int `yaml:"max_cell_length"`
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{
		LargeThreshold: DefaultLargeThreshold,
		ChunkSize:      DefaultChunkSize,
		MaxCellLength:  DefaultMaxCellLength,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LargeThreshold < 0 {
		return fmt.Errorf("large_threshold must be >= 0, got %d", c.LargeThreshold)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be >= 1, got %d", c.ChunkSize)
	}
	if c.MaxCellLength < 0 {
		return fmt.Errorf("max_cell_length must be >= 0, got %d", c.MaxCellLength)
	}
	return nil
}
