package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// TemplateCode is the unique identifier of a template
type TemplateCode string

var templateCodePattern = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

// Validate checks if the TemplateCode is valid
func (c TemplateCode) Validate() error {
	if c == "" {
		return goerr.New("template code cannot be empty")
	}
	if !templateCodePattern.MatchString(string(c)) {
		return goerr.New("template code must be lowercase alphanumeric with hyphens or underscores", goerr.V("code", c))
	}
	return nil
}

// String returns the string representation of TemplateCode
func (c TemplateCode) String() string {
	return string(c)
}
