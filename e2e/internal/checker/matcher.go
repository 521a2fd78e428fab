package checker

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// MatchesExpectation checks an actual JSON value against an expected one.
// Expected strings may carry matchers:
//
//	"*"        any non-null value
//	"~regex~"  string form of actual matches regex
//	">N" "<N" ">=N" "<=N"  numeric comparison
//
// Maps match when every expected key matches; extra actual keys are ignored.
func MatchesExpectation(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected null, got %v", actual)
	}

	if s, ok := expected.(string); ok {
		switch {
		case s == "*":
			if actual == nil {
				return false, "expected any value, got null"
			}
			return true, ""
		case len(s) > 1 && strings.HasPrefix(s, "~") && strings.HasSuffix(s, "~"):
			return matchRegex(actual, strings.Trim(s, "~"))
		case strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<"):
			return matchComparison(actual, s)
		}
	}

	if actual == nil {
		return false, fmt.Sprintf("expected %v, got null", expected)
	}

	if ef, ok := toFloat64(expected); ok {
		af, ok := toFloat64(actual)
		if !ok {
			return false, fmt.Sprintf("expected number %v, got %T", expected, actual)
		}
		if af != ef {
			return false, fmt.Sprintf("expected %v, got %v", ef, af)
		}
		return true, ""
	}

	switch e := expected.(type) {
	case map[string]interface{}:
		return matchMap(actual, e)
	case []interface{}:
		return matchSlice(actual, e)
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}
	s := fmt.Sprintf("%v", actual)
	if re.MatchString(s) {
		return true, ""
	}
	return false, fmt.Sprintf("value %q does not match ~%s~", s, pattern)
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	af, ok := toFloat64(actual)
	if !ok {
		return false, fmt.Sprintf("cannot compare non-numeric value %v", actual)
	}

	op := comparison[:1]
	if strings.HasPrefix(comparison, ">=") || strings.HasPrefix(comparison, "<=") {
		op = comparison[:2]
	}
	bound, err := strconv.ParseFloat(strings.TrimSpace(comparison[len(op):]), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison %q", comparison)
	}

	var pass bool
	switch op {
	case ">":
		pass = af > bound
	case "<":
		pass = af < bound
	case ">=":
		pass = af >= bound
	case "<=":
		pass = af <= bound
	}
	if pass {
		return true, ""
	}
	return false, fmt.Sprintf("expected value %s %v, got %v", op, bound, af)
}

func matchMap(actual interface{}, expected map[string]interface{}) (bool, string) {
	am, ok := actual.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected object, got %T", actual)
	}
	for key, ev := range expected {
		av, exists := am[key]
		if !exists {
			return false, fmt.Sprintf("missing key %q", key)
		}
		if ok, reason := MatchesExpectation(av, ev); !ok {
			return false, fmt.Sprintf("key %q: %s", key, reason)
		}
	}
	return true, ""
}

func matchSlice(actual interface{}, expected []interface{}) (bool, string) {
	as, ok := actual.([]interface{})
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	if len(as) != len(expected) {
		return false, fmt.Sprintf("expected array length %d, got %d", len(expected), len(as))
	}
	for i := range expected {
		if ok, reason := MatchesExpectation(as[i], expected[i]); !ok {
			return false, fmt.Sprintf("element %d: %s", i, reason)
		}
	}
	return true, ""
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
