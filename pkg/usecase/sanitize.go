package usecase

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// sanitizeText strips every tag from admin-entered text. The strict policy
// escapes what it keeps, so entities are decoded back to plain text.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textSanitizer().Sanitize(trimmed)))
}

func sanitizeDefinition(fd *model.FieldDefinition) {
	fd.Label = sanitizeText(fd.Label)
	fd.Group = sanitizeText(fd.Group)
	fd.Placeholder = sanitizeText(fd.Placeholder)
	fd.HelpText = sanitizeText(fd.HelpText)
	fd.Icon = sanitizeText(fd.Icon)
}

func sanitizeFieldConfig(fc *model.FieldConfig) {
	fc.Label = sanitizeText(fc.Label)
	fc.Group = sanitizeText(fc.Group)
	fc.Placeholder = sanitizeText(fc.Placeholder)
	fc.HelpText = sanitizeText(fc.HelpText)
	fc.Icon = sanitizeText(fc.Icon)
}

func sanitizeTemplate(t *model.Template) {
	t.Name = sanitizeText(t.Name)
	t.Description = sanitizeText(t.Description)
	t.Industry = sanitizeText(t.Industry)
	for i := range t.FieldConfigs {
		sanitizeFieldConfig(&t.FieldConfigs[i])
	}
}
