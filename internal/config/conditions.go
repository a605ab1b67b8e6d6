package config

import (
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// conditionCache compiles `if` expressions once and reuses the programs
// across applications. Compilation dominates evaluation cost and the same
// handful of conditions tends to appear in every secrets file.
type conditionCache struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func newConditionCache() *conditionCache {
	return &conditionCache{programs: make(map[string]*vm.Program)}
}

// Satisfied evaluates a condition against the merged application values.
// An empty condition is always satisfied. Any compile or runtime error,
// including references to variables the values do not define, makes the
// condition unsatisfied rather than failing the load.
func (c *conditionCache) Satisfied(condition string, values map[string]interface{}) bool {
	if condition == "" {
		return true
	}

	program, err := c.compile(condition, values)
	if err != nil {
		return false
	}

	output, err := vm.Run(program, values)
	if err != nil {
		return false
	}
	return truthy(output)
}

func (c *conditionCache) compile(condition string, values map[string]interface{}) (*vm.Program, error) {
	c.mu.RLock()
	program, ok := c.programs[condition]
	c.mu.RUnlock()
	if ok {
		return program, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if program, ok := c.programs[condition]; ok {
		return program, nil
	}

	program, err := expr.Compile(condition, expr.Env(values), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	c.programs[condition] = program
	return program, nil
}

// truthy coerces an expression result the way configuration authors
// expect: empty strings, zero numbers, nil, and empty collections are
// false, everything else is true.
func truthy(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case uint64:
		return value != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
