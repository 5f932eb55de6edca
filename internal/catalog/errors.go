package catalog

import (
	"errors"
	"fmt"
)

// ErrArtifactMissing indicates one of the recommendation artifacts could not be located.
var ErrArtifactMissing = errors.New("catalog: artifact missing")

// MissingArtifactError names the artifact that could not be located.
type MissingArtifactError struct {
	Artifact string // human name, e.g. "neighbor index"
	File     string
}

func (e MissingArtifactError) Error() string {
	return fmt.Sprintf("catalog: %s (%s) not found", e.Artifact, e.File)
}

func (e MissingArtifactError) Is(target error) bool {
	return target == ErrArtifactMissing
}

// Remediation tells the operator how to recover.
func (e MissingArtifactError) Remediation() string {
	return fmt.Sprintf("Regenerate %s with the model build pipeline, then reload this page.", e.File)
}
