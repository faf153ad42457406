// Package otp implements the ordered-rule OTP extraction engine.
package otp

import (
	"fmt"
	"regexp"
)

// CodeNotFound is the sentinel for text where no rule matched. It is
// not an error: the message is still notified, marked code-not-found.
const CodeNotFound = "N/A"

type rule struct {
	name     string
	re       *regexp.Regexp
	fallback bool
}

// Extractor applies an ordered list of extraction rules and returns
// the first match. Ordering is a priority: provider-labeled patterns
// run before the generic digit-run fallbacks, so a reference ID in the
// same message cannot shadow the labeled code.
type Extractor struct {
	rules []rule
}

// Default returns an Extractor with the stock rule set.
func Default() *Extractor {
	e := &Extractor{}
	for _, r := range []struct{ name, pattern string }{
		{"telegram", `telegram code\s+(\d{4,8})`},
		{"labeled-code", `\bcode[\s:]+(\d{4,8})`},
		{"labeled-otp", `\botp[\s:]+(\d{4,8})`},
		{"labeled-verification", `verification[\s:]+(\d{4,8})`},
		{"labeled-zh", `密码[\s:]+(\d{4,8})`},
		{"labeled-ko", `코드[\s:]+(\d{4,8})`},
		{"labeled-ru", `код[\s:]+(\d{4,8})`},
	} {
		e.rules = append(e.rules, rule{name: r.name, re: compile(r.pattern)})
	}
	e.rules = append(e.rules,
		rule{name: "digit-run", re: compile(`\b(\d{4,8})\b`), fallback: true},
		rule{name: "split-pair", re: compile(`\b(\d{3,4}[-\s]\d{3,4})\b`), fallback: true},
	)
	return e
}

func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// AddRule registers a labeled provider pattern ahead of the fallback
// rules. The pattern must contain one capture group for the code and
// is matched case-insensitively.
func (e *Extractor) AddRule(name, pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("compile rule %q: %w", name, err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("rule %q has no capture group", name)
	}
	for i, r := range e.rules {
		if r.fallback {
			e.rules = append(e.rules[:i], append([]rule{{name: name, re: re}}, e.rules[i:]...)...)
			return nil
		}
	}
	e.rules = append(e.rules, rule{name: name, re: re})
	return nil
}

// Extract returns the first captured digit run, or CodeNotFound.
func (e *Extractor) Extract(text string) string {
	if text == "" {
		return CodeNotFound
	}
	for _, r := range e.rules {
		if m := r.re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return CodeNotFound
}
