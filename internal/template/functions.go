package template

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type builtin struct {
	arity int
	fn    func(args []string) (string, error)
}

var builtins = map[string]builtin{
	"uuid":          {0, func([]string) (string, error) { return uuid.NewString(), nil }},
	"timestamp":     {0, func([]string) (string, error) { return strconv.FormatInt(time.Now().Unix(), 10), nil }},
	"random":        {2, randomInt},
	"random_string": {1, randomString},
}

// call evaluates expr when it is a call to a built-in such as random(1,10).
// ok is false when expr is not such a call.
func call(expr string) (result string, ok bool, err error) {
	name, rest, found := strings.Cut(expr, "(")
	if !found || !strings.HasSuffix(rest, ")") {
		return "", false, nil
	}
	b, known := builtins[name]
	if !known {
		return "", false, nil
	}

	var args []string
	if raw := strings.TrimSpace(strings.TrimSuffix(rest, ")")); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	if len(args) != b.arity {
		return "", true, fmt.Errorf("%s() takes %d arguments, got %d", name, b.arity, len(args))
	}
	result, err = b.fn(args)
	if err != nil {
		return "", true, fmt.Errorf("%s(): %w", name, err)
	}
	return result, true, nil
}

// randomInt returns an integer in [lo, hi].
func randomInt(args []string) (string, error) {
	lo, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("max: %w", err)
	}
	if lo > hi {
		return "", fmt.Errorf("min %d is above max %d", lo, hi)
	}
	return strconv.FormatInt(lo+rand.Int63n(hi-lo+1), 10), nil
}

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomString(args []string) (string, error) {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return "", err
	}
	if n < 1 || n > 1000 {
		return "", errors.New("length must be between 1 and 1000")
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b), nil
}
