// Package project validates a local project before deployment.
// Framework-specific validators (Django settings rewriting, WordPress
// checks) are supplied by their own implementations of Validator; this
// package only defines the contract and a generic check.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Validator inspects the project root and reports problems a deployment
// would hit. A non-nil error means the project must not be deployed as-is.
type Validator interface {
	Validate(root string) error
}

// RequiredFiles fails validation when any of the named files is missing
// from the project root.
type RequiredFiles struct {
	Names []string
}

func (v RequiredFiles) Validate(root string) error {
	for _, name := range v.Names {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("project is missing required file %q: %w", name, err)
		}
	}
	return nil
}

// ValidateAll runs every validator in order and stops at the first
// failure.
func ValidateAll(root string, validators []Validator) error {
	for _, v := range validators {
		if err := v.Validate(root); err != nil {
			return err
		}
	}
	return nil
}
