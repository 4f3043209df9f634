package main

import (
	"fmt"
	"strings"

	"github.com/biomedkg/kgxchange/internal/transform"
)

// parseInfoResRewrite decodes the --infores-rewrite flag into the four
// forms of the InfoRes rewrite rule. An empty string
// disables the rewrite stage. "=>"-separated segments pick the form:
//
//	"true" -> bare true-rule
//	"/regex/" -> delete-match form
//	"/regex/=>sub" -> replace-match form
//	"/regex/=>sub=>prefix" -> replace-match + explicit namespace
func parseInfoResRewrite(raw string) (*transform.InfoResRule, error) {
	if raw == "" {
		return nil, nil
	}
	if raw == "true" {
		return transform.NewInfoResRule(), nil
	}

	parts := strings.Split(raw, "=>")
	pattern := strings.TrimSpace(parts[0])
	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	rule, err := transform.NewInfoResRule().WithPattern(pattern, "")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(parts) >= 2 {
		rule, err = transform.NewInfoResRule().WithPattern(pattern, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	if len(parts) >= 3 {
		rule = rule.WithPrefix(parts[2])
	}
	return rule, nil
}
