package config

import (
	"github.com/hashicorp/go-version"
)

// docker stack deploy only understands the version 3 file format. Files without
// a version key follow the compose specification and are accepted as-is.
var stackDeployable = version.MustConstraints(version.NewConstraint(">= 3"))

func checkComposeVersion(filename string, v string) error {
	if v == "" {
		return nil
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return &ValidationError{Filename: filename, Field: "version", Value: v, Message: "is not a compose file version"}
	}
	if !stackDeployable.Check(parsed) {
		return &ValidationError{Filename: filename, Field: "version", Value: v, Message: "docker stack deploy needs compose file format 3 or later"}
	}
	return nil
}
