package templates

import (
	"reflect"
	"strings"
	"text/template"
)

// funcMap holds the helpers available to every template
var funcMap = template.FuncMap{
	"join":       strings.Join,
	"trimPeriod": TrimPeriod,
	"inc":        func(i int) int { return i + 1 },
	"top":        Top,
}

// TrimPeriod drops trailing periods and whitespace so a sentence can be
// followed by its own punctuation in a template
func TrimPeriod(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".")
}

// Top returns the first n elements of a slice, or the whole slice when shorter.
// Non-slice values are returned unchanged.
func Top(items any, n int) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	if n < 0 {
		n = 0
	}
	if v.Len() <= n {
		return items
	}
	return v.Slice(0, n).Interface()
}
