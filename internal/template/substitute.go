// Package template resolves ${...} placeholders in scenario values and
// extracts values from JSON responses.
package template

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"primeload/internal/core"
)

// placeholder matches ${name}, ${env:NAME} and ${func(args)}.
var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolver looks up placeholder names and remembers every failure.
type resolver struct {
	vars core.Variables
	errs []error
}

func (r *resolver) replace(match string) string {
	val, err := r.lookup(match[2 : len(match)-1])
	if err != nil {
		r.errs = append(r.errs, err)
		return match
	}
	return val
}

// lookup tries env:, then built-in functions, then vars.
func (r *resolver) lookup(name string) (string, error) {
	if env, ok := strings.CutPrefix(name, "env:"); ok {
		if val, set := os.LookupEnv(env); set {
			return val, nil
		}
		return "", fmt.Errorf("env var %q not set", env)
	}
	if val, ok, err := call(name); ok {
		return val, err
	}
	if r.vars != nil {
		if val, ok := r.vars.Get(name); ok {
			return fmt.Sprint(val), nil
		}
	}
	return "", fmt.Errorf("variable %q not found", name)
}

// Substitute replaces every placeholder in text. If any placeholder cannot be
// resolved, all failures are returned joined.
func Substitute(text string, vars core.Variables) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}
	r := &resolver{vars: vars}
	out := placeholder.ReplaceAllStringFunc(text, r.replace)
	if r.errs != nil {
		return "", errors.Join(r.errs...)
	}
	return out, nil
}

// SubstituteMap applies Substitute to every value of m.
func SubstituteMap(m map[string]string, vars core.Variables) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	var errs []error
	for k, v := range m {
		s, err := Substitute(v, vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		out[k] = s
	}
	if errs != nil {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
