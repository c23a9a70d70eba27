package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	suffix := regexp.MustCompile(`\s*–\s*FitGirl Repacks\s*$`)
	prefix := regexp.MustCompile(`^\[NEW\]\s*`)

	tests := []struct {
		name   string
		title  string
		prefix *regexp.Regexp
		suffix *regexp.Regexp
		want   string
	}{
		{name: "suffix stripped", title: "Game Title – FitGirl Repacks", suffix: suffix, want: "Game Title"},
		{name: "prefix stripped", title: "[NEW] Game Title", prefix: prefix, want: "Game Title"},
		{name: "both stripped", title: "[NEW] Game Title – FitGirl Repacks", prefix: prefix, suffix: suffix, want: "Game Title"},
		{name: "whitespace collapsed", title: "Sample    Title\n\twith", want: "Sample Title with"},
		{name: "no patterns passthrough", title: "Plain Title", want: "Plain Title"},
		{name: "empty input", title: "", suffix: suffix, want: ""},
		{name: "whitespace only", title: " \n\t ", want: ""},
		{name: "pattern not matching leaves title", title: "Another Release", suffix: suffix, want: "Another Release"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanTitle(tt.title, tt.prefix, tt.suffix))
		})
	}
}
