// Package yamlutil decodes wikipdf configuration files.
// It keeps goccy/go-yaml behind one strict entry point.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds a config file. Two maximal inline templates plus paths
// fit well below it.
var MaxInputSize = 256 << 10

var (
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// Decode strictly unmarshals data into v: unknown keys are errors. Empty or
// whitespace-only input leaves v untouched, so an empty config file means
// defaults. Syntax errors carry line and column.
func Decode(data []byte, v any) error {
	if v == nil {
		return ErrNilDestination
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return errors.New(yaml.FormatError(err, false, true))
	}
	return nil
}
