// Package config handles YAML config file loading for keyspace commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envRef matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}`)

// MissingEnvError reports a ${VAR:?message} reference whose variable is
// unset or empty.
type MissingEnvError struct {
	Var     string
	Line    int
	Message string
}

func (e *MissingEnvError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "required"
	}
	return fmt.Sprintf("line %d: ${%s}: %s", e.Line, e.Var, msg)
}

// ExpandEnv resolves environment references in a keyspace.yaml document,
// line by line:
//
//   - ${VAR} is the variable's value, or empty when unset
//   - ${VAR:-default} falls back to default when unset or empty
//   - ${VAR:?message} fails with a *MissingEnvError when unset or empty
//
// Secrets such as adapter headers should use the :? form so a missing one
// is caught at load time rather than by the receiving endpoint.
func ExpandEnv(input string) (string, error) {
	lines := strings.Split(input, "\n")
	var errs []error
	for i, line := range lines {
		lines[i] = envRef.ReplaceAllStringFunc(line, func(ref string) string {
			m := envRef.FindStringSubmatch(ref)
			name, op, arg := m[1], m[2], m[3]

			if value := os.Getenv(name); value != "" {
				return value
			}
			switch op {
			case ":-":
				return arg
			case ":?":
				errs = append(errs, &MissingEnvError{Var: name, Line: i + 1, Message: arg})
			}
			return ""
		})
	}
	return strings.Join(lines, "\n"), errors.Join(errs...)
}
