package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// platformCondition matches build conditions that depend on the target
// platform or compiler rather than on the build configuration.
var platformCondition = regexp.MustCompile(`\b(?:os|arch|swift|compiler|canImport|targetEnvironment)\s*\([^()]*\)`)

const (
	platformVariablePrefix = "platformcondition"
	maxPlatformConditions  = 10
)

// BranchState is the outcome of a conditional-compilation condition.
type BranchState int

const (
	BranchInactive BranchState = iota
	BranchActive
	// BranchUndecided means the outcome depends on platform conditions that
	// the scanner cannot know.
	BranchUndecided
)

// Active reports whether code under the branch may be compiled.
func (s BranchState) Active() bool {
	return s != BranchInactive
}

func (s BranchState) String() string {
	switch s {
	case BranchInactive:
		return "inactive"
	case BranchActive:
		return "active"
	}
	return "undecided"
}

// ConditionEvaluator decides whether a conditional-compilation branch is
// active. An identifier is true when it names the active configuration,
// compared case-insensitively. A branch is only inactive when the
// configuration decides it for every value of the platform conditions.
type ConditionEvaluator struct {
	ActiveConfiguration string
}

func (e ConditionEvaluator) Evaluate(condition string) (BranchState, error) {
	src := strings.TrimSpace(condition)
	if src == "" {
		return BranchInactive, fmt.Errorf("missing condition")
	}

	// The same platform condition written twice is one unknown.
	seen := make(map[string]string)
	src = platformCondition.ReplaceAllStringFunc(src, func(match string) string {
		key := strings.Join(strings.Fields(match), "")
		name, ok := seen[key]
		if !ok {
			name = fmt.Sprintf("%s%d", platformVariablePrefix, len(seen))
			seen[key] = name
		}
		return name
	})
	platforms := len(seen)
	if platforms > maxPlatformConditions {
		return BranchUndecided, nil
	}

	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition", hcl.InitialPos)
	if diags.HasErrors() {
		return BranchInactive, fmt.Errorf("invalid condition %q: %s", condition, diags.Error())
	}

	var names []string
	for _, traversal := range expr.Variables() {
		names = append(names, traversal.RootName())
	}

	trueCount := 0
	combinations := 1 << platforms
	for bits := 0; bits < combinations; bits++ {
		variables := make(map[string]cty.Value, len(names))
		for _, name := range names {
			variables[name] = cty.BoolVal(strings.EqualFold(name, e.ActiveConfiguration))
		}
		for i := 0; i < platforms; i++ {
			variables[fmt.Sprintf("%s%d", platformVariablePrefix, i)] = cty.BoolVal(bits&(1<<i) != 0)
		}

		value, diags := expr.Value(&hcl.EvalContext{Variables: variables})
		if diags.HasErrors() {
			return BranchInactive, fmt.Errorf("invalid condition %q: %s", condition, diags.Error())
		}
		if value.IsNull() || !value.IsKnown() || !value.Type().Equals(cty.Bool) {
			return BranchInactive, fmt.Errorf("condition %q is not a boolean", condition)
		}
		if value.True() {
			trueCount++
		}
	}

	switch trueCount {
	case 0:
		return BranchInactive, nil
	case combinations:
		return BranchActive, nil
	}
	return BranchUndecided, nil
}
