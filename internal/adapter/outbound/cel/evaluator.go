// Package cel provides a CEL-based evaluator for guard scope expressions.
package cel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/cel-go/cel"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

// maxExpressionLength is the maximum allowed length for scope expressions.
const maxExpressionLength = 512

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 20

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion.
const maxCostBudget = 100_000

// evalTimeout is the maximum time allowed for a single evaluation.
const evalTimeout = 2 * time.Second

// Evaluator compiles and evaluates scope expressions over the identity.
// Compiled programs are cached by expression hash; the same handful of
// expressions is evaluated on every guarded render.
type Evaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[uint64]cel.Program
}

// NewEvaluator creates a CEL evaluator with the identity environment.
// Expressions see a single variable `identity` with fields id, email, role,
// company_id, permissions, and is_active.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("identity", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope environment: %w", err)
	}
	return &Evaluator{
		env:      env,
		programs: make(map[uint64]cel.Program),
	}, nil
}

// Evaluate runs the expression against the identity and returns its boolean
// result. Non-boolean results are an error.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, identity *auth.Identity) (bool, error) {
	if err := validateExpression(expr); err != nil {
		return false, err
	}

	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	evalCtx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	out, _, err := prg.ContextEval(evalCtx, map[string]any{
		"identity": identityVars(identity),
	})
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to a boolean (got %T)", out.Value())
	}
	return result, nil
}

// program returns the cached compiled program for expr, compiling on miss.
func (e *Evaluator) program(expr string) (cel.Program, error) {
	key := xxhash.Sum64String(expr)

	e.mu.RLock()
	prg, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	e.mu.Lock()
	e.programs[key] = prg
	e.mu.Unlock()
	return prg, nil
}

// validateExpression enforces length and nesting limits before compilation.
func validateExpression(expr string) error {
	if expr == "" {
		return fmt.Errorf("empty expression")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression exceeds %d characters", maxExpressionLength)
	}
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting exceeds depth %d", maxNestingDepth)
	}
	return nil
}

// identityVars projects the identity into the CEL activation.
func identityVars(id *auth.Identity) map[string]any {
	if id == nil {
		return map[string]any{}
	}
	permissions := make([]string, len(id.Permissions))
	for i, p := range id.Permissions {
		permissions[i] = string(p)
	}
	return map[string]any{
		"id":          id.ID,
		"email":       id.Email,
		"role":        string(id.Role),
		"company_id":  id.CompanyID,
		"permissions": permissions,
		"is_active":   id.IsActive,
	}
}
