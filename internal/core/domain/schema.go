package domain

import (
	"errors"
	"fmt"
)

// FeatureGroupAll is the schema group that feeds the transform.
const FeatureGroupAll = "all"

// ErrSchemaMismatch indicates a transform fitted on different columns than the schema lists.
var ErrSchemaMismatch = errors.New("domain: feature schema mismatch")

// FeatureSchema maps group names to ordered feature column names.
type FeatureSchema map[string][]string

// All returns the ordered columns of the "all" group.
func (s FeatureSchema) All() []string {
	return s[FeatureGroupAll]
}

// Validate checks the schema against the columns a transform was fitted on.
func (s FeatureSchema) Validate(fitted []string) error {
	all := s.All()
	if len(all) == 0 {
		return fmt.Errorf("%w: group %q is empty", ErrSchemaMismatch, FeatureGroupAll)
	}
	if len(all) != len(fitted) {
		return fmt.Errorf("%w: schema has %d columns, transform has %d", ErrSchemaMismatch, len(all), len(fitted))
	}
	for i := range all {
		if all[i] != fitted[i] {
			return fmt.Errorf("%w: column %d is %q in schema, %q in transform", ErrSchemaMismatch, i, all[i], fitted[i])
		}
	}
	return nil
}
