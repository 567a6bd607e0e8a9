package doctpl

import (
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// compileCondition checks the syntax of a When expression without an
// environment, so any identifier is accepted.
func compileCondition(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.AllowUndefinedVariables())
}

// conditionEnv exposes the context to expr. Dotted names are reachable
// through value("a.b"); exists(name) reports whether a name is bound.
func conditionEnv(ctx Context) map[string]any {
	env := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		env[k] = v
	}
	env["exists"] = func(name string) bool { return ctx.has(name) }
	env["value"] = func(name string) any { return ctx[name] }
	return env
}

// evalCondition evaluates a When expression against ctx. Undefined
// identifiers are nil; non-boolean results use truthiness.
func evalCondition(src string, ctx Context) (bool, error) {
	env := conditionEnv(ctx)
	program, err := expr.Compile(src, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
