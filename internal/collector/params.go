package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alia5/metagen/metaobject"
)

var ErrMalformedParams = errors.New("malformed parameter list")

// ParsedParam is one element of a declared parameter list.
type ParsedParam struct {
	metaobject.Param
	Default    string
	HasDefault bool
}

// words that can precede a type without being one
var typeQualifiers = map[string]bool{
	"const": true, "volatile": true, "struct": true, "class": true, "enum": true, "typename": true,
}

// words that complete a type and can never be a parameter name
var typeKeywords = map[string]bool{
	"int": true, "char": true, "short": true, "long": true, "unsigned": true, "signed": true,
	"double": true, "float": true, "bool": true, "void": true, "const": true, "volatile": true,
}

// ParseParams parses a parameter list such as
// "(int, const QString &name, void* = nullptr)". The surrounding parentheses
// are optional; "()" and "(void)" declare no parameters.
func ParseParams(src string) ([]ParsedParam, error) {
	text := strings.TrimSpace(src)
	if strings.HasPrefix(text, "(") {
		if !strings.HasSuffix(text, ")") {
			return nil, fmt.Errorf("%w: %q: missing closing parenthesis", ErrMalformedParams, src)
		}
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if text == "" || text == "void" {
		return nil, nil
	}

	elems, err := splitTopLevel(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedParams, src, err)
	}

	params := make([]ParsedParam, 0, len(elems))
	for i, elem := range elems {
		p, err := parseParam(elem)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: parameter %d: %v", ErrMalformedParams, src, i+1, err)
		}
		if i > 0 && params[i-1].HasDefault && !p.HasDefault {
			return nil, fmt.Errorf("%w: %q: parameter %d follows a defaulted parameter without a default",
				ErrMalformedParams, src, i+1)
		}
		params = append(params, p)
	}
	return params, nil
}

// splitTopLevel splits on commas outside brackets. Angle brackets only count
// inside the declarator; a default value may compare with < and >.
func splitTopLevel(text string) ([]string, error) {
	var (
		elems     []string
		stack     []byte
		start     int
		inDefault bool
		quote     byte
	)
	closers := map[byte]byte{')': '(', ']': '[', '}': '{', '>': '<'}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			stack = append(stack, c)
		case '<':
			if !inDefault {
				stack = append(stack, c)
			}
		case ')', ']', '}', '>':
			if c == '>' && inDefault {
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1] != closers[c] {
				return nil, fmt.Errorf("unbalanced %q at column %d", c, i+1)
			}
			stack = stack[:len(stack)-1]
		case '=':
			if len(stack) == 0 {
				inDefault = true
			}
		case ',':
			if len(stack) == 0 {
				elems = append(elems, text[start:i])
				start = i + 1
				inDefault = false
			}
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated literal")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return append(elems, text[start:]), nil
}

func parseParam(elem string) (ParsedParam, error) {
	var p ParsedParam
	decl := strings.TrimSpace(elem)
	if decl == "" {
		return p, errors.New("empty parameter")
	}
	if eq := topLevelEquals(decl); eq >= 0 {
		p.Default = strings.TrimSpace(decl[eq+1:])
		p.HasDefault = true
		decl = strings.TrimSpace(decl[:eq])
		if p.Default == "" {
			return p, errors.New("empty default value")
		}
	}
	if decl == "" {
		return p, errors.New("missing type")
	}

	typ, name := splitDeclarator(decl)
	p.Type = NormalizeType(typ)
	p.Name = name
	if p.Type == "" || p.Type == "const" {
		return p, fmt.Errorf("missing type in %q", decl)
	}
	if p.Type == "void" {
		return p, errors.New("void is not a parameter type")
	}
	return p, nil
}

func topLevelEquals(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case '=':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitDeclarator separates a trailing parameter name from its type.
func splitDeclarator(decl string) (typ, name string) {
	end := len(decl)
	start := end
	for start > 0 && isIdentByte(decl[start-1]) {
		start--
	}
	if start == end || start == 0 {
		return decl, ""
	}
	last := decl[start:end]
	if typeKeywords[last] || strings.Contains(last, ":") || last[0] >= '0' && last[0] <= '9' {
		return decl, ""
	}
	rest := strings.TrimSpace(decl[:start])
	if rest == "" {
		return decl, ""
	}
	switch rest[len(rest)-1] {
	case '*', '&', '>':
		return rest, last
	}
	// "const Foo" has no name, "const Foo f" does
	for _, w := range strings.Fields(rest) {
		if !typeQualifiers[w] {
			return rest, last
		}
	}
	return decl, ""
}
