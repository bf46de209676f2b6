package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Struct-tag validation covers the declarative rules; custom validation
// handles the cross-field rules tags cannot express.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The S3 provider carries mandatory settings the map-shaped section
	// cannot express in tags; the factory validates the decoded values,
	// but an entirely missing section is caught early here.
	if cfg.Provider.Type == "s3" && len(cfg.Provider.S3) == 0 {
		return fmt.Errorf("provider: type is s3 but the s3 section is empty")
	}

	if cfg.Client.Cache.Enabled && cfg.Client.Cache.TTL <= 0 {
		return fmt.Errorf("client.cache: ttl must be positive when the cache is enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
