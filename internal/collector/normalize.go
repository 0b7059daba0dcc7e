package collector

import (
	"strings"
	"unicode"
)

// NormalizeType rewrites a C++ type spelling into the canonical form the
// consuming runtime compares signatures with:
//
//	const QString &      -> QString
//	QString const *      -> const QString*
//	unsigned int         -> uint
//	QList<QList<int>>    -> QList<QList<int> >
//	struct Foo *         -> Foo*
func NormalizeType(s string) string {
	toks := tokenizeType(s)
	if len(toks) == 0 {
		return ""
	}
	toks = foldIntegerKeywords(dropElaborated(toks))
	if len(toks) == 0 {
		return ""
	}
	toks = foldConst(toks)
	return renderType(toks)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == ':' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func tokenizeType(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			toks = append(toks, s[i:i+1])
			i++
		}
	}
	return toks
}

func dropElaborated(toks []string) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		switch t {
		case "struct", "class", "enum", "typename":
			continue
		}
		out = append(out, t)
	}
	return out
}

var integerSpellings = []struct {
	from []string
	to   string
}{
	{[]string{"unsigned", "long", "long", "int"}, "qulonglong"},
	{[]string{"unsigned", "long", "long"}, "qulonglong"},
	{[]string{"unsigned", "long", "int"}, "ulong"},
	{[]string{"unsigned", "long"}, "ulong"},
	{[]string{"unsigned", "short", "int"}, "ushort"},
	{[]string{"unsigned", "short"}, "ushort"},
	{[]string{"unsigned", "char"}, "uchar"},
	{[]string{"unsigned", "int"}, "uint"},
	{[]string{"unsigned"}, "uint"},
	{[]string{"signed", "int"}, "int"},
	{[]string{"long", "long", "int"}, "qlonglong"},
	{[]string{"long", "long"}, "qlonglong"},
	{[]string{"long", "int"}, "long"},
	{[]string{"short", "int"}, "short"},
}

func foldIntegerKeywords(toks []string) []string {
	var out []string
next:
	for i := 0; i < len(toks); {
		for _, sp := range integerSpellings {
			if hasPrefix(toks[i:], sp.from) {
				out = append(out, sp.to)
				i += len(sp.from)
				continue next
			}
		}
		// a lone "signed" before anything but char is redundant
		if toks[i] == "signed" && (i+1 >= len(toks) || toks[i+1] != "char") {
			i++
			continue
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

func hasPrefix(toks, prefix []string) bool {
	if len(toks) < len(prefix) {
		return false
	}
	for i := range prefix {
		if toks[i] != prefix[i] {
			return false
		}
	}
	return true
}

// foldConst applies the top-level const rules. Nested template arguments are
// left alone.
func foldConst(toks []string) []string {
	depth := 0
	firstStar := -1
	for i, t := range toks {
		switch t {
		case "<", "(", "[":
			depth++
		case ">", ")", "]":
			depth--
		case "*":
			if depth == 0 && firstStar < 0 {
				firstStar = i
			}
		}
	}
	last := len(toks) - 1

	// const T & and T const & collapse to T
	if toks[last] == "&" && (last == 0 || toks[last-1] != "&") {
		if toks[0] == "const" && firstStar < 0 {
			return toks[1:last]
		}
		if last >= 2 && toks[last-1] == "const" && firstStar < 0 {
			return toks[:last-1]
		}
		return toks
	}

	// T const * becomes const T *
	base := len(toks)
	if firstStar >= 0 {
		base = firstStar
	}
	for i := 1; i < base; i++ {
		if toks[i] == "const" && toks[0] != "const" {
			moved := append([]string{"const"}, toks[:i]...)
			moved = append(moved, toks[i+1:]...)
			toks = moved
			break
		}
	}

	// a const value type is passed by copy
	if toks[0] == "const" && firstStar < 0 && len(toks) > 1 {
		return toks[1:]
	}
	return toks
}

func renderType(toks []string) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			switch {
			case isIdentByte(prev[len(prev)-1]) && isIdentByte(t[0]):
				b.WriteByte(' ')
			case prev == ">" && t == ">":
				b.WriteByte(' ')
			}
		}
		b.WriteString(t)
	}
	return b.String()
}
