package twinescript

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotQuoted occurs when Unquote gets something that isn't a
// single- or double-quoted string.
var ErrNotQuoted = errors.New("not a quoted string")

// Unquote interprets a JavaScript string literal.
//
// Unknown escapes stand for the escaped character itself, as in
// JavaScript, and a backslash before a line break continues the
// line.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", ErrNotQuoted
	}
	q := lit[0]
	if (q != '"' && q != '\'') || lit[len(lit)-1] != q {
		return "", ErrNotQuoted
	}

	rs := []rune(lit[1 : len(lit)-1])
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		i++
		if i == len(rs) {
			return "", errors.New("unterminated escape")
		}
		switch e := rs[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			if i+1 < len(rs) && rs[i+1] == '\n' {
				i++
			}
		case '\n', '\u2028', '\u2029':
		case 'x':
			n, err := hex(rs, i+1, 2)
			if err != nil {
				return "", err
			}
			b.WriteRune(rune(n))
			i += 2
		case 'u':
			if i+1 < len(rs) && rs[i+1] == '{' {
				end := i + 2
				for end < len(rs) && rs[end] != '}' {
					end++
				}
				if end == len(rs) {
					return "", errors.New("bad unicode escape")
				}
				n, err := hex(rs, i+2, end-i-2)
				if err != nil {
					return "", err
				}
				b.WriteRune(rune(n))
				i = end
				continue
			}
			n, err := hex(rs, i+1, 4)
			if err != nil {
				return "", err
			}
			i += 4
			// Surrogate pairs arrive as two escapes.
			if 0xD800 <= n && n < 0xDC00 && i+6 < len(rs) && rs[i+1] == '\\' && rs[i+2] == 'u' {
				if lo, err := hex(rs, i+3, 4); err == nil && 0xDC00 <= lo && lo < 0xE000 {
					b.WriteRune(rune((n-0xD800)<<10 + (lo - 0xDC00) + 0x10000))
					i += 6
					continue
				}
			}
			b.WriteRune(rune(n))
		default:
			b.WriteRune(e)
		}
	}
	return b.String(), nil
}

func hex(rs []rune, at, n int) (int64, error) {
	if n <= 0 || len(rs) < at+n {
		return 0, errors.New("bad hex escape")
	}
	x, err := strconv.ParseInt(string(rs[at:at+n]), 16, 32)
	if err != nil {
		return 0, errors.New("bad hex escape")
	}
	return x, nil
}
