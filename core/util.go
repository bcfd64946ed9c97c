package core

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	spacesRegex   = regexp.MustCompile(`\s+`)
	nonPhoneRegex = regexp.MustCompile(`[^\d+]`)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanName trims `s` and collapses inner runs of whitespace.
func CleanName(s string) string {
	return spacesRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CleanPhone keeps digits and a single leading "+".
func CleanPhone(s string) string {
	s = nonPhoneRegex.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return s
	}
	plus := s[0] == '+'
	s = strings.ReplaceAll(s, "+", "")
	if plus {
		return "+" + s
	}
	return s
}

// NormalizeKenyanPhone turns "0716 402 525" or "+254716402525" into "254716402525".
func NormalizeKenyanPhone(s string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if strings.HasPrefix(digits, "0") {
		return "254" + digits[1:]
	}
	return digits
}

// Getwd finds the project root: the closest parent directory holding a go.mod.
// go test runs inside the package directory, so the current directory is not enough.
// Falls back to the current directory when no go.mod is found (e.g. a deployed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
