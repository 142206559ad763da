// printer.go: textual rendering of values.
//
// FormatValue is the readable inverse of the parser: strings are quoted
// with escapes, symbols print bare, lists as (...), vectors as [...], maps
// as {k v k v …}. DisplayValue renders for program output (println/str):
// identical except strings and symbols print raw. FormatValueTyped prefixes
// every scalar with its type tag, for the REPL's echo-types mode.
package orb

import (
	"strconv"
	"strings"
)

func FormatValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, false, false)
	return b.String()
}

func DisplayValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, true, false)
	return b.String()
}

func FormatValueTyped(v Value) string {
	var b strings.Builder
	writeValue(&b, v, false, true)
	return b.String()
}

func writeValue(b *strings.Builder, v Value, display, typed bool) {
	if typed && v.Tag != VTList && v.Tag != VTVector && v.Tag != VTMap {
		b.WriteString(v.Tag.String())
		b.WriteByte(':')
	}
	switch v.Tag {
	case VTNil:
		b.WriteString("nil")
	case VTBool:
		if v.Data.(bool) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case VTInt:
		b.WriteString(strconv.FormatInt(v.Data.(int64), 10))
	case VTFloat:
		b.WriteString(formatFloat(v.Data.(float64)))
	case VTStr:
		if display {
			b.WriteString(v.Data.(string))
		} else {
			b.WriteString(quoteString(v.Data.(string)))
		}
	case VTSymbol:
		b.WriteString(v.Data.(string))
	case VTList:
		b.WriteByte('(')
		first := true
		v.Data.(List).each(func(e Value) {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			writeValue(b, e, display, typed)
		})
		b.WriteByte(')')
	case VTVector:
		b.WriteByte('[')
		for i, e := range v.Data.(*Vector).elems {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, e, display, typed)
		}
		b.WriteByte(']')
	case VTMap:
		b.WriteByte('{')
		first := true
		v.Data.(Map).each(func(k, val Value) bool {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			writeValue(b, k, display, typed)
			b.WriteByte(' ')
			writeValue(b, val, display, typed)
			return true
		})
		b.WriteByte('}')
	case VTNumberArray:
		na := v.Data.(*NumberArray)
		b.WriteByte('[')
		for i := 0; i < na.Len(); i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, na.At(i), display, typed)
		}
		b.WriteByte(']')
	case VTFunc:
		b.WriteString("<function>")
	case VTObject:
		b.WriteString("<object>")
	default:
		b.WriteString("<unknown>")
	}
}

// formatFloat keeps a trailing ".0" on integral floats so the sub-tag
// survives a print/parse round trip.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
