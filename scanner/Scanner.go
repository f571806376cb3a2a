// Package scanner walks source text line by line and applies the open rules
// of a catalog to every line.
package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reaandrew/migrationlint/catalog"
	"github.com/reaandrew/migrationlint/core"
)

const DefaultActiveConfiguration = "Release"

var directivePattern = regexp.MustCompile(`^#(elseif|else|endif|if)\b\s*(.*)$`)

// Scanner is immutable after construction and may be shared between
// goroutines.
type Scanner struct {
	rules      []core.Rule
	conditions ConditionEvaluator
}

func NewScanner(c *catalog.Catalog, activeConfiguration string) *Scanner {
	if strings.TrimSpace(activeConfiguration) == "" {
		activeConfiguration = DefaultActiveConfiguration
	}
	return &Scanner{
		rules:      c.AllOpenRules(),
		conditions: ConditionEvaluator{ActiveConfiguration: activeConfiguration},
	}
}

func (s *Scanner) ActiveConfiguration() string {
	return s.conditions.ActiveConfiguration
}

// Scan is ScanSource without a path.
func (s *Scanner) Scan(sourceText string) core.Report {
	return s.ScanSource("", sourceText)
}

// ScanSource never fails: malformed structure is reported as findings with
// the STRUCTURAL rule id and the scan continues to the end of the input.
func (s *Scanner) ScanSource(path string, sourceText string) core.Report {
	run := scanRun{scanner: s}
	lines := splitLines(sourceText)

	for i, text := range lines {
		run.line(i+1, text)
	}
	run.finish(len(lines), lines)

	core.SortFindings(run.findings)
	return core.Report{SourcePath: path, Findings: run.findings}
}

// conditionalFrame is one open #if region. taken is set once a branch is
// known to be active, so later branches are inactive; an undecided branch
// leaves the following ones open.
type conditionalFrame struct {
	parentActive bool
	branchActive bool
	taken        bool
	sawElse      bool
	openedAt     int
}

func (f conditionalFrame) active() bool {
	return f.parentActive && f.branchActive
}

// scanRun holds the state of one ScanSource call.
type scanRun struct {
	scanner  *Scanner
	lexer    lineLexer
	stack    []conditionalFrame
	findings []core.Finding
}

func (r *scanRun) warn(lineNumber int, snippet string, message string) {
	r.findings = append(r.findings, core.Finding{
		RuleID:      core.StructuralWarningID,
		LineNumber:  lineNumber,
		Snippet:     strings.TrimSpace(snippet),
		Description: message,
	})
}

func (r *scanRun) currentBlock() *core.ConditionalBlock {
	if len(r.stack) == 0 {
		return nil
	}
	return &core.ConditionalBlock{ActiveBranch: r.stack[len(r.stack)-1].active()}
}

func (r *scanRun) line(lineNumber int, text string) {
	lexed := r.lexer.lex(text)
	if lexed.unterminatedString {
		r.warn(lineNumber, text, "unterminated string literal")
	}

	ctx := core.LineContext{
		Text:          text,
		Code:          lexed.code,
		LineNumber:    lineNumber,
		Conditional:   r.currentBlock(),
		InsideComment: lexed.insideComment,
	}

	if match := directivePattern.FindStringSubmatch(strings.TrimSpace(lexed.code)); match != nil {
		r.directive(lineNumber, text, match[1], match[2])
	}

	for _, rule := range r.scanner.rules {
		matched, err := evaluate(rule, ctx)
		if err != nil {
			r.warn(lineNumber, text, err.Error())
			continue
		}
		if matched {
			r.findings = append(r.findings, core.Finding{
				RuleID:      rule.ID,
				LineNumber:  lineNumber,
				Snippet:     strings.TrimSpace(text),
				Description: rule.Description,
			})
		}
	}
}

// evaluate keeps a misbehaving matcher from aborting the scan.
func evaluate(rule core.Rule, ctx core.LineContext) (matched bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			matched = false
			err = fmt.Errorf("rule %s failed: %v", rule.ID, p)
		}
	}()
	return rule.Matches(ctx), nil
}

func (r *scanRun) evaluateCondition(lineNumber int, text string, condition string) BranchState {
	state, err := r.scanner.conditions.Evaluate(condition)
	if err != nil {
		r.warn(lineNumber, text, err.Error()+"; branch treated as active")
		return BranchActive
	}
	return state
}

func (r *scanRun) directive(lineNumber int, text string, keyword string, condition string) {
	switch keyword {
	case "if":
		parentActive := true
		if len(r.stack) > 0 {
			parentActive = r.stack[len(r.stack)-1].active()
		}
		state := r.evaluateCondition(lineNumber, text, condition)
		r.stack = append(r.stack, conditionalFrame{
			parentActive: parentActive,
			branchActive: state.Active(),
			taken:        state == BranchActive,
			openedAt:     lineNumber,
		})

	case "elseif":
		if len(r.stack) == 0 {
			r.warn(lineNumber, text, "#elseif without matching #if")
			return
		}
		top := &r.stack[len(r.stack)-1]
		if top.sawElse {
			r.warn(lineNumber, text, "#elseif after #else")
		}
		if top.taken {
			top.branchActive = false
			return
		}
		state := r.evaluateCondition(lineNumber, text, condition)
		top.branchActive = state.Active()
		top.taken = state == BranchActive

	case "else":
		if len(r.stack) == 0 {
			r.warn(lineNumber, text, "#else without matching #if")
			return
		}
		top := &r.stack[len(r.stack)-1]
		if top.sawElse {
			r.warn(lineNumber, text, "duplicate #else")
		}
		top.branchActive = !top.taken
		top.taken = true
		top.sawElse = true

	case "endif":
		if len(r.stack) == 0 {
			r.warn(lineNumber, text, "#endif without matching #if")
			return
		}
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// finish reports structure that is still open at end of input.
func (r *scanRun) finish(lastLine int, lines []string) {
	if lastLine == 0 {
		return
	}
	snippet := lines[lastLine-1]

	if r.lexer.inComment() {
		r.warn(lastLine, snippet, "unterminated block comment")
	}
	if r.lexer.inMultilineString() {
		r.warn(lastLine, snippet, "unterminated multi-line string literal")
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		r.warn(lastLine, snippet, fmt.Sprintf("conditional region opened at line %d is never closed", r.stack[i].openedAt))
	}
}
