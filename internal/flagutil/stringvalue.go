// Package flagutil adds a repeatable string flag.Value on top of the standard flag package:
//
//	var roots flagutil.StringValue
//	flagSet.Var(&roots, "ca", "root CA file (repeatable)")
//	... -ca a.pem -ca b.pem -ca c.pem ...
//	files := roots.Args() // ["a.pem", "b.pem", "c.pem"]
package flagutil

import "strings"

// StringValue accumulates one string per flag occurrence, implementing flag.Value.
type StringValue struct {
	values []string
}

// Set appends s; the flag package calls this once per occurrence of the flag on the command line.
func (v *StringValue) Set(s string) error {
	v.values = append(v.values, s)
	return nil
}

// String joins the accumulated values with spaces, satisfying flag.Value.
func (v *StringValue) String() string {
	return strings.Join(v.values, " ")
}

// Args returns a copy of the accumulated values; callers may mutate it freely.
func (v *StringValue) Args() []string {
	return append([]string{}, v.values...)
}

// NArg returns how many times Set has been called.
func (v *StringValue) NArg() int {
	return len(v.values)
}
