package convert

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9\-]+`)

func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

func baseName(path string) string {
	return filepath.Base(path)
}

func loggerOrDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
