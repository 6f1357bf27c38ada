package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/standardbeagle/textsearch/internal/encoding"
	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/glob"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates every section of the configuration and
// applies smart defaults. All invalid sections are reported together as a
// *tserrors.MultiError of *tserrors.ConfigError; defaults are only applied
// to a valid configuration.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	var errs tserrors.MultiError
	check := func(field string, err error) {
		if err != nil {
			errs.Append(tserrors.NewConfigError(field, "", err))
		}
	}

	check("project", v.validateProjectConfig(&cfg.Project))
	check("search", v.validateSearchConfig(&cfg.Search))
	check("batch", v.validateBatchConfig(&cfg.Batch))

	_, err := glob.Parse(cfg.Include)
	check("include", err)
	_, err = glob.Parse(cfg.Exclude)
	check("exclude", err)

	if err := errs.ErrOrNil(); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateSearchConfig(search *Search) error {
	if search.MaxResults < 0 {
		return fmt.Errorf("MaxResults cannot be negative, got %d", search.MaxResults)
	}

	if search.MaxFileSize < 0 {
		return fmt.Errorf("MaxFileSize cannot be negative, got %d", search.MaxFileSize)
	}

	if search.BeforeContext < 0 || search.AfterContext < 0 {
		return fmt.Errorf("context lines cannot be negative, got %d/%d", search.BeforeContext, search.AfterContext)
	}

	// Workers: 0 means auto-detect
	if search.Workers < 0 {
		return fmt.Errorf("Workers cannot be negative, got %d", search.Workers)
	}

	if search.Preview.MatchLines < 0 || search.Preview.CharsPerLine < 0 {
		return fmt.Errorf("preview bounds cannot be negative, got %d/%d", search.Preview.MatchLines, search.Preview.CharsPerLine)
	}

	if !encoding.IsUTF8(search.Encoding) {
		if _, err := encoding.Lookup(search.Encoding); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateBatchConfig(batch *Batch) error {
	if batch.MaxWeight < 0 {
		return fmt.Errorf("MaxWeight cannot be negative, got %d", batch.MaxWeight)
	}
	if batch.TimeoutMs < 0 {
		return fmt.Errorf("TimeoutMs cannot be negative, got %d", batch.TimeoutMs)
	}
	return nil
}

// setSmartDefaults fills in zero values that mean "pick for me"
func (v *Validator) setSmartDefaults(cfg *Config) {
	// cores-1 leaves headroom for the rest of the system
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = max(1, runtime.NumCPU()-1)
	}

	if cfg.Batch.MaxWeight == 0 {
		cfg.Batch.MaxWeight = DefaultBatchMaxWeight
	}

	if cfg.Batch.TimeoutMs == 0 {
		cfg.Batch.TimeoutMs = DefaultBatchTimeoutMs
	}

	if cfg.Search.Preview.MatchLines > 0 && cfg.Search.Preview.CharsPerLine == 0 {
		cfg.Search.Preview.CharsPerLine = DefaultCharsPerLine
	}

	if cfg.Search.Encoding == "" {
		cfg.Search.Encoding = "utf8"
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
