package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/usecase"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Expiry date", "Expiry date"},
		{"trims", "  Batch  ", "Batch"},
		{"strips tags", "<b>Bold</b> label", "Bold label"},
		{"drops script", `Name<script>alert(1)</script>`, "Name"},
		{"keeps ampersand", "R&D code", "R&D code"},
		{"keeps quotes", `Size "XL"`, `Size "XL"`},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, usecase.SanitizeText(tt.input)).Equal(tt.want)
		})
	}
}
