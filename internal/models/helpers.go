package models

import (
	"slices"
	"strconv"
	"strings"
)

// Keys returns the metric names in sorted order.
func (m Metrics) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String renders metrics as {name: value, ...} with stable key order.
func (m Metrics) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(m[k], 'g', -1, 64))
	}
	b.WriteByte('}')
	return b.String()
}

// Clone returns an independent copy.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
