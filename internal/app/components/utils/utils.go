// Package utils holds helpers shared by the hand-written components.
package utils

import (
	"fmt"
	"io"
	"maps"
	"slices"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

// TwMerge joins class lists, letting later utilities override earlier
// conflicting ones.
func TwMerge(classes ...string) string {
	return twmerge.Merge(classes...)
}

// If returns value when cond holds, otherwise the zero value.
func If[T comparable](cond bool, value T) T {
	var zero T
	if cond {
		return value
	}
	return zero
}

// WriteAttrs writes attrs as ` key="value"` pairs in key order. A true bool
// renders a bare attribute; false and nil values are skipped.
func WriteAttrs(w io.Writer, attrs templ.Attributes) error {
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		var err error
		switch v := attrs[k].(type) {
		case nil:
			continue
		case bool:
			if !v {
				continue
			}
			_, err = fmt.Fprintf(w, " %s", templ.EscapeString(k))
		case string:
			_, err = fmt.Fprintf(w, ` %s="%s"`, templ.EscapeString(k), templ.EscapeString(v))
		default:
			_, err = fmt.Fprintf(w, ` %s="%s"`, templ.EscapeString(k), templ.EscapeString(fmt.Sprint(v)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Set copies the non-empty string values of kv into attrs.
func Set(attrs templ.Attributes, kv map[string]string) {
	for k, v := range kv {
		if v != "" {
			attrs[k] = v
		}
	}
}
