// Package rules provides a compiled-expression rule evaluator used by the
// Candidate Extractor's intent table and the Response Adapter's
// domain-synthesizer preconditions, in place of nested if-chains.
package rules

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles boolean expr-lang expressions over a variable bag
// and caches the compiled program, mirroring the condition-evaluation
// pattern used elsewhere for rule tables.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Eval compiles (if needed) and runs expression against vars, returning
// its boolean result. A variable absent from vars evaluates to false
// rather than erroring, so rule authors can reference any keyword flag
// without guarding every branch.
func (e *Evaluator) Eval(expression string, vars map[string]any) (bool, error) {
	program, err := e.compile(expression)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, vars)
	if err != nil {
		// "variable not found" style failures degrade to false instead
		// of failing the rule table.
		return false, nil
	}

	if out == nil {
		// An undefined variable evaluates to nil.
		return false, nil
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to bool, got %T", expression, out)
	}
	return result, nil
}

func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expression, err)
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}

// Rule pairs a named outcome with the predicate that selects it. Tables
// built from Rule are evaluated first-match-wins.
type Rule struct {
	Name      string
	Predicate string
}

// FirstMatch evaluates rules in order and returns the name of the first
// one whose predicate is true against vars, or "" if none match.
func (e *Evaluator) FirstMatch(rules []Rule, vars map[string]any) (string, error) {
	for _, r := range rules {
		ok, err := e.Eval(r.Predicate, vars)
		if err != nil {
			return "", err
		}
		if ok {
			return r.Name, nil
		}
	}
	return "", nil
}
