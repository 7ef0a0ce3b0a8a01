package semantic

import (
	"strings"

	"github.com/codeassociates/huec/ast"
)

type candidateError int

const (
	candidateErrorArgCount candidateError = iota
	candidateErrorArgTypes
	candidateErrorReturnType
	candidateErrorAmbiguous
)

func formatCandidateError(call *ast.Call, candidates []ast.Callable, kind candidateError) string {
	var b strings.Builder

	switch kind {
	case candidateErrorArgCount:
		b.WriteString("No function matching call to ")
	case candidateErrorArgTypes:
		b.WriteString("No function with arguments matching call to ")
	case candidateErrorReturnType:
		b.WriteString("No function with result matching call to ")
	case candidateErrorAmbiguous:
		b.WriteString("Ambiguous function call to ")
	}

	name := call.Callee.Name().String()
	b.WriteString(name)
	b.WriteByte('/')
	b.WriteString(itoa(len(call.Args)))
	b.WriteString(". ")

	switch kind {
	case candidateErrorArgCount:
		b.WriteString("Did you mean to call any of these functions?")
	case candidateErrorReturnType:
		b.WriteString("Express what type of result you expect. Available functions:")
	default:
		b.WriteString("Candidates are:")
	}

	for _, c := range candidates {
		b.WriteString("\n  ")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(c.FunctionType().String())
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// tryResolveCall attempts overload selection for a deferred call. It
// returns true when the call is settled: either a callee was stored, or
// (with report set) a diagnostic was emitted. With report unset an
// undecidable call is left for a later fixed-point round.
func (r *Resolver) tryResolveCall(d deferredCall, report bool) bool {
	call := d.call
	if call.ResolvedCallee != nil {
		return true
	}

	name := call.Callee.Name()

	// A path callee resolves as a symbol into a function-typed member.
	if call.Callee.IsPath() {
		target, pathErr := lookupPath(d.scopes, call.Callee)
		if pathErr != "" {
			if report {
				r.errorf("%s", pathErr)
			}
			return report
		}
		if target == nil {
			if report {
				r.errorf("Unknown symbol \"%s\"", name)
			}
			return report
		}
		if c, ok := target.Callable(); ok {
			call.ResolvedCallee = c
			return true
		}
		if report {
			r.errorf("Trying to call \"%s\" which is not a function", name)
		}
		return report
	}

	candidates := lookupFunctions(d.scopes, call.Callee.Pathname[0])
	if len(candidates) == 0 {
		if !report {
			return false
		}
		if target := lookupValue(d.scopes, call.Callee.Pathname[0]); target != nil {
			if c, ok := target.Callable(); ok {
				call.ResolvedCallee = c
				return true
			}
			r.errorf("Trying to call \"%s\" which is not a function", name)
		} else {
			r.errorf("Unknown symbol \"%s\"", name)
		}
		return true
	}

	// 1. Arity filter.
	var arityMatched []ast.Callable
	for _, c := range candidates {
		if len(c.FunctionType().Args) == len(call.Args) {
			arityMatched = append(arityMatched, c)
		}
	}
	if len(arityMatched) == 0 {
		if report {
			r.errorf("%s", formatCandidateError(call, candidates, candidateErrorArgCount))
		}
		return report
	}

	// 2. Argument types, checked positionally by strict equality. Widening
	// never applies to argument passing.
	argTypes := make([]ast.Type, len(call.Args))
	for i, a := range call.Args {
		t := a.ResultType()
		if ast.IsUnknown(t) {
			if report {
				r.errorf("Unresolved argument type in call to \"%s\"", name)
			}
			return report
		}
		argTypes[i] = t
	}

	var typeMatched []ast.Callable
	for _, c := range arityMatched {
		match := true
		for i, arg := range c.FunctionType().Args {
			if ast.IsUnknown(arg.Type) || !arg.Type.Equal(argTypes[i]) {
				match = false
				break
			}
		}
		if match {
			typeMatched = append(typeMatched, c)
		}
	}
	if len(typeMatched) == 0 {
		if report {
			r.errorf("%s", formatCandidateError(call, arityMatched, candidateErrorArgTypes))
		}
		return report
	}

	// 3. Return-type filter, when the call site expects something.
	if d.expected != nil && !ast.IsUnknown(d.expected) {
		var returnMatched []ast.Callable
		for _, c := range typeMatched {
			rt := c.FunctionType().Result
			if ast.IsUnknown(rt) {
				if !report {
					return false // result may still be inferred
				}
				continue
			}
			if rt.Equal(d.expected) {
				returnMatched = append(returnMatched, c)
			}
		}
		switch len(returnMatched) {
		case 1:
			call.ResolvedCallee = returnMatched[0]
			return true
		case 0:
			if report {
				r.errorf("%s", formatCandidateError(call, typeMatched, candidateErrorReturnType))
			}
			return report
		default:
			if report {
				r.errorf("%s", formatCandidateError(call, typeMatched, candidateErrorAmbiguous))
			}
			return report
		}
	}

	// 4. Uniqueness. With no expectation, a single survivor is selected and
	// its result type becomes the call's inferred type.
	if len(typeMatched) == 1 {
		call.ResolvedCallee = typeMatched[0]
		return true
	}
	if report {
		r.errorf("%s", formatCandidateError(call, typeMatched, candidateErrorAmbiguous))
	}
	return report
}
