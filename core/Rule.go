package core

import (
	"fmt"
	"strings"
)

type RuleStatus int

const (
	StatusOpen RuleStatus = iota
	StatusFixed
)

func (s RuleStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusFixed:
		return "fixed"
	default:
		return fmt.Sprintf("RuleStatus(%d)", int(s))
	}
}

func (s RuleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "open" and "fixed" in any case. An empty value means open.
func (s *RuleStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "open":
		*s = StatusOpen
	case "fixed":
		*s = StatusFixed
	default:
		return fmt.Errorf("unknown rule status %q", string(text))
	}
	return nil
}

// ConditionalBlock describes the innermost conditional-compilation region a
// line sits in.
type ConditionalBlock struct {
	ActiveBranch bool
}

// LineContext is the view of one source line that rule matchers work on.
type LineContext struct {
	Text          string
	Code          string
	LineNumber    int
	Conditional   *ConditionalBlock
	InsideComment bool
}

func (c LineContext) InsideConditionalBlock() bool {
	return c.Conditional != nil
}

func (c LineContext) InsideInactiveBranch() bool {
	return c.Conditional != nil && !c.Conditional.ActiveBranch
}

// Matcher reports whether a rule applies to a line. Matchers must be pure.
type Matcher func(LineContext) bool

type Rule struct {
	ID          string
	Description string
	Status      RuleStatus
	FixedIn     string
	// Signature identifies what the matcher looks for. Rules built from
	// definitions carry their patterns here; it feeds Catalog.Fingerprint.
	Signature string
	Matcher   Matcher
}

func (r Rule) IsOpen() bool {
	return r.Status == StatusOpen
}

func (r Rule) Matches(ctx LineContext) bool {
	return r.Matcher != nil && r.Matcher(ctx)
}
