package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// directivePattern matches: meta:<kind> <arguments>
var directivePattern = regexp.MustCompile(`^meta:(\w+)(?:\s+(.*))?$`)

// modifierWords never start a name, so "//meta:slot private" on a method
// keeps the method's name.
var modifierWords = map[string]bool{
	"public":     true,
	"protected":  true,
	"private":    true,
	"compat":     true,
	"scriptable": true,
	"scoped":     true,
}

// Directive is one parsed //meta: comment line.
type Directive struct {
	Kind string
	// Name is the leading identifier, if any.
	Name string
	// Group is the parenthesized parameter list or the braced enumerator
	// list following the name, including its delimiters.
	Group string
	// Args holds the remaining words; key=value pairs are split into Mods.
	Args []string
	Mods map[string]string
	Pos  string
}

// parseDirective returns nil when comment is not a directive.
func parseDirective(comment, pos string) (*Directive, error) {
	text := strings.TrimSpace(strings.TrimPrefix(comment, "//"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "/*"))
	text = strings.TrimSpace(strings.TrimSuffix(text, "*/"))

	matches := directivePattern.FindStringSubmatch(text)
	if matches == nil {
		return nil, nil
	}

	d := &Directive{Kind: matches[1], Mods: make(map[string]string), Pos: pos}
	rest := strings.TrimSpace(matches[2])

	i := 0
	for i < len(rest) && isNameByte(rest[i]) {
		i++
	}
	if !modifierWords[rest[:i]] {
		d.Name = rest[:i]
		rest = strings.TrimLeft(rest[i:], " \t")
	}

	if rest != "" && (rest[0] == '(' || rest[0] == '{') {
		end, err := matchGroup(rest)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", pos, ErrBadDirective, err)
		}
		d.Group = rest[:end]
		rest = rest[end:]
	}

	words, err := splitWords(rest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", pos, ErrBadDirective, err)
	}
	for _, w := range words {
		if k, v, ok := strings.Cut(w, "="); ok && k != "" && !strings.ContainsRune(k, '"') {
			if uq, err := strconv.Unquote(v); err == nil {
				v = uq
			}
			d.Mods[k] = v
			continue
		}
		d.Args = append(d.Args, w)
	}
	return d, nil
}

func isNameByte(c byte) bool {
	return c == '_' || c == ':' || c < unicode.MaxASCII && (unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)))
}

// matchGroup returns the length of the balanced group s starts with.
func matchGroup(s string) (int, error) {
	var stack []byte
	var quote byte
	pairs := map[byte]byte{')': '(', '}': '{', ']': '['}
	for i := 0; i < len(s); i++ {
		c := s[i]
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
		case '(', '{', '[':
			stack = append(stack, c)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return 0, fmt.Errorf("unbalanced %q", c)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unclosed %q", s[0])
}

// splitWords splits on whitespace outside double quotes.
func splitWords(s string) ([]string, error) {
	var (
		words []string
		cur   strings.Builder
		quote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && quote && i+1 < len(s):
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i++
		case c == '"':
			quote = !quote
			cur.WriteByte(c)
		case !quote && (c == ' ' || c == '\t'):
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if quote {
		return nil, fmt.Errorf("unterminated string in %q", s)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words, nil
}

// enumeratorList splits "{A, B = expr}" into (name, expression) pairs; the
// expression is empty for implicit values.
func enumeratorList(group string) ([][2]string, error) {
	body := strings.TrimSpace(group)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return nil, fmt.Errorf("expected {...}, got %q", group)
	}
	body = strings.TrimSpace(body[1 : len(body)-1])
	if body == "" {
		return nil, nil
	}

	var (
		out   [][2]string
		depth int
		start int
	)
	flush := func(part string) error {
		part = strings.TrimSpace(part)
		if part == "" {
			// a trailing comma is accepted
			return nil
		}
		name, expr, explicit := strings.Cut(part, "=")
		name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
		if name == "" {
			return fmt.Errorf("missing enumerator name in %q", part)
		}
		if explicit && expr == "" {
			return fmt.Errorf("missing value for enumerator %s", name)
		}
		out = append(out, [2]string{name, expr})
		return nil
	}
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(body[start:i]); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if err := flush(body[start:]); err != nil {
		return nil, err
	}
	return out, nil
}
