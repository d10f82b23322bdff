package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a configuration with every default applied.
func Default() (*AppConfig, error) {
	cfg := &AppConfig{
		Subgraph: EndpointConfig{URL: DefaultSubgraphURL},
		RPC:      EndpointConfig{URL: DefaultRPCURL},
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*AppConfig, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the final configuration, after flag overrides.
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatError(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "AppConfig.")
	switch fe.Tag() {
	case "required":
		return field + ": required field missing"
	case "url":
		return fmt.Sprintf("%s: invalid url %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: invalid value %v, must be one of %s", field, fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be <= %s", field, fe.Param())
	}
	return fe.Error()
}
