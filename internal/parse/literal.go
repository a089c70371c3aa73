package parse

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/bonsai/internal/pyast"
)

// piece is one run of a string literal: literal text or a formatted value.
type piece struct {
	text  string
	value *pyast.Node
}

// str lowers a string or an implicit concatenation of strings to Str,
// Bytes or JoinedStr.
func (l *lowerer) str(n *sitter.Node) *pyast.Node {
	parts := []*sitter.Node{n}
	if n.Type() == "concatenated_string" {
		parts = named(n)
	}

	var (
		pieces   []piece
		isBytes  bool
		isFormat bool
	)
	for _, p := range parts {
		ps, b, f := l.strPieces(p)
		pieces = append(pieces, ps...)
		isBytes = isBytes || b
		isFormat = isFormat || f
	}

	switch {
	case isFormat:
		return pyast.New(pyast.JoinedStr, joined(pieces, n))
	case isBytes:
		return pyast.New(pyast.Bytes, pyast.Raw(bytesRepr(concat(pieces))))
	default:
		return pyast.New(pyast.Str, pyast.String(concat(pieces)))
	}
}

func concat(pieces []piece) string {
	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.text)
	}
	return b.String()
}

// joined merges adjacent literal runs and drops empty ones.
func joined(pieces []piece, pos *sitter.Node) pyast.Seq {
	out := pyast.Seq{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() == 0 {
			return
		}
		out = append(out, at(pyast.New(pyast.Str, pyast.String(lit.String())), pos))
		lit.Reset()
	}
	for _, p := range pieces {
		if p.value == nil {
			lit.WriteString(p.text)
			continue
		}
		flush()
		out = append(out, p.value)
	}
	flush()
	return out
}

// strPieces splits one string node into its decoded runs and reports its
// bytes and f-string prefixes.
func (l *lowerer) strPieces(n *sitter.Node) ([]piece, bool, bool) {
	text := l.text(n)
	prefixLen := 0
	for prefixLen < len(text) && strings.ContainsRune("rRbBuUfF", rune(text[prefixLen])) {
		prefixLen++
	}
	prefix := strings.ToLower(text[:prefixLen])
	raw := strings.Contains(prefix, "r")
	isBytes := strings.Contains(prefix, "b")
	isFormat := strings.Contains(prefix, "f")

	quote := 1
	rest := text[prefixLen:]
	if strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`) {
		quote = 3
	}
	start, end := prefixLen+quote, len(text)-quote
	if end < start {
		end = start
	}

	decode := func(s string) string {
		if !raw {
			s = unescape(s, isBytes)
		}
		if isFormat {
			s = strings.ReplaceAll(strings.ReplaceAll(s, "{{", "{"), "}}", "}")
		}
		return s
	}

	if !isFormat {
		return []piece{{text: decode(text[start:end])}}, isBytes, false
	}

	var out []piece
	pos := start
	base := int(n.StartByte())
	for _, c := range named(n) {
		if c.Type() != "interpolation" {
			continue
		}
		s, e := int(c.StartByte())-base, int(c.EndByte())-base
		if s > pos {
			out = append(out, piece{text: decode(text[pos:s])})
		}
		out = append(out, piece{value: l.formatted(c)})
		pos = e
	}
	if pos < end {
		out = append(out, piece{text: decode(text[pos:end])})
	}
	return out, isBytes, true
}

// formatted lowers one {expr!c:spec} interpolation.
func (l *lowerer) formatted(n *sitter.Node) *pyast.Node {
	var (
		value      *pyast.Node
		conversion = -1
		spec       pyast.Value = pyast.None
	)
	for _, c := range named(n) {
		switch c.Type() {
		case "type_conversion":
			if t := strings.TrimPrefix(l.text(c), "!"); t != "" {
				conversion = int(t[0])
			}
		case "format_specifier":
			spec = l.formatSpec(c)
		default:
			if value == nil {
				value = l.expr(c)
			}
		}
	}
	return at(pyast.New(pyast.FormattedValue, value, pyast.Int(conversion), spec), n)
}

// formatSpec lowers the text after the colon of an interpolation, which may
// itself contain nested interpolations.
func (l *lowerer) formatSpec(n *sitter.Node) *pyast.Node {
	text := l.text(n)
	base := int(n.StartByte())
	pos := 0
	if strings.HasPrefix(text, ":") {
		pos = 1
	}
	var pieces []piece
	for _, c := range named(n) {
		var value *pyast.Node
		switch c.Type() {
		case "interpolation":
			value = l.formatted(c)
		case "format_expression":
			kids := named(c)
			if len(kids) == 0 {
				continue
			}
			value = at(pyast.New(pyast.FormattedValue, l.expr(kids[0]), pyast.Int(-1), pyast.None), c)
		default:
			continue
		}
		s, e := int(c.StartByte())-base, int(c.EndByte())-base
		if s > pos {
			pieces = append(pieces, piece{text: text[pos:s]})
		}
		pieces = append(pieces, piece{value: value})
		pos = e
	}
	if pos < len(text) {
		pieces = append(pieces, piece{text: text[pos:]})
	}
	return at(pyast.New(pyast.JoinedStr, joined(pieces, n)), n)
}

// unescape decodes backslash escapes. In bytes literals \x and octal escapes
// produce raw bytes and \u, \U, \N are left as written.
func unescape(s string, bytes bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	emit := func(v rune) {
		if bytes {
			b.WriteByte(byte(v))
			return
		}
		b.WriteRune(v)
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			emit(rune(v))
			i = j - 1
		case 'x':
			if v, ok := hexAt(s, i+1, 2); ok {
				emit(rune(v))
				i += 2
				continue
			}
			b.WriteString(`\x`)
		case 'u', 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			if v, ok := hexAt(s, i+1, width); ok && !bytes && utf8.ValidRune(rune(v)) {
				b.WriteRune(rune(v))
				i += width
				continue
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexAt(s string, i, width int) (uint64, bool) {
	if i+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i:i+width], 16, 32)
	return v, err == nil
}

// bytesRepr renders a bytes value the way Python prints it.
func bytesRepr(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte('b')
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' || c == q:
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// numberRepr normalizes a numeric literal to Python's repr of its value.
// Imaginary literals keep their spelling with a lower-case j.
func numberRepr(text string) string {
	clean := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(clean)

	if strings.HasSuffix(lower, "j") {
		mag := strings.TrimSuffix(lower, "j")
		if f, err := strconv.ParseFloat(mag, 64); err == nil {
			return strings.TrimSuffix(floatRepr(f), ".0") + "j"
		}
		return lower
	}
	if strings.HasSuffix(lower, "l") {
		lower = strings.TrimSuffix(lower, "l")
	}

	isHex := strings.HasPrefix(lower, "0x")
	if !isHex && strings.ContainsAny(lower, ".e") {
		if f, err := strconv.ParseFloat(lower, 64); err == nil {
			return floatRepr(f)
		}
		return clean
	}

	if v, err := strconv.ParseInt(lower, 0, 64); err == nil {
		return strconv.FormatInt(v, 10)
	}
	if v, ok := new(big.Int).SetString(lower, 0); ok {
		return v.String()
	}
	return clean
}

// floatRepr follows Python's float repr: the shortest round-tripping
// digits, in exponent form below 1e-4 and from 1e16 up.
func floatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expText, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expText)
	if f != 0 && (exp < -4 || exp >= 16) {
		return fmt.Sprintf("%se%+03d", mant, exp)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
