package config

import (
	"fmt"

	indexerrors "github.com/codelantern/lci/internal/errs"
)

// Validator validates configuration and fills in smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return indexerrors.New(indexerrors.KindInput, "config.project", err)
	}
	if err := v.validateIndexConfig(&cfg.Index); err != nil {
		return indexerrors.New(indexerrors.KindInput, "config.index", err)
	}
	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return indexerrors.New(indexerrors.KindInput, "config.search", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return fmt.Errorf("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndexConfig(index *Index) error {
	if index.MaxConcurrency < 0 {
		return fmt.Errorf("MaxConcurrency cannot be negative, got %d", index.MaxConcurrency)
	}
	if index.PerFileTimeoutMs < 0 {
		return fmt.Errorf("PerFileTimeoutMs cannot be negative, got %d", index.PerFileTimeoutMs)
	}
	if index.DebounceMs < 0 {
		return fmt.Errorf("DebounceMs cannot be negative, got %d", index.DebounceMs)
	}
	return nil
}

func (v *Validator) validateSearchConfig(search *Search) error {
	if search.DefaultLimit < 0 {
		return fmt.Errorf("DefaultLimit cannot be negative, got %d", search.DefaultLimit)
	}
	return nil
}

// setSmartDefaults fills in zero-valued knobs with the §6 enumerated
// defaults.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Index.MaxConcurrency == 0 {
		cfg.Index.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Index.PerFileTimeoutMs == 0 {
		cfg.Index.PerFileTimeoutMs = DefaultPerFileTimeoutMs
	}
	if cfg.Index.DebounceMs == 0 {
		cfg.Index.DebounceMs = DefaultDebounceMs
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = DefaultSearchLimit
	}
	if cfg.Exclude == nil {
		cfg.Exclude = append([]string(nil), defaultExclusions...)
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
