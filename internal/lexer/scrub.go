package lexer

import "github.com/ritamzico/cyquery/internal/errs"

// scrub blanks out comment bodies (replacing every byte except newlines
// with a space) while leaving everything else — including the byte
// offsets and line numbers of subsequent tokens — untouched. String and
// backtick-identifier literals are skipped verbatim so a "//" or "/*"
// inside one is never mistaken for a comment.
func scrub(src string) (string, error) {
	out := []byte(src)
	n := len(out)
	i := 0

	blank := func(from, to int) {
		for j := from; j < to; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
	}

	for i < n {
		c := src[i]

		switch {
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < n && src[j] != quote {
				if src[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				j++
			}
			if j < n {
				j++ // consume closing quote
			}
			i = j

		case c == '`':
			j := i + 1
			for j < n {
				if src[j] == '`' {
					if j+1 < n && src[j+1] == '`' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			i = j

		case c == '/' && i+1 < n && src[i+1] == '/':
			j := i
			for j < n && src[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j

		case c == '/' && i+1 < n && src[i+1] == '*':
			end, err := scrubBlockComment(src, i, out)
			if err != nil {
				return "", err
			}
			i = end

		default:
			i += runeLen(src, i)
		}
	}

	return string(out), nil
}

// scrubBlockComment blanks a /* ... */ comment starting at start, allowing
// exactly one level of nesting, and returns the index just past the
// closing "*/".
func scrubBlockComment(src string, start int, out []byte) (int, error) {
	n := len(src)
	depth := 0
	i := start
	for i < n {
		if depth < 2 && src[i] == '/' && i+1 < n && src[i+1] == '*' {
			depth++
			if out[i] != '\n' {
				out[i] = ' '
			}
			if out[i+1] != '\n' {
				out[i+1] = ' '
			}
			i += 2
			continue
		}
		if src[i] == '*' && i+1 < n && src[i+1] == '/' {
			if out[i] != '\n' {
				out[i] = ' '
			}
			if out[i+1] != '\n' {
				out[i+1] = ' '
			}
			i += 2
			depth--
			if depth == 0 {
				return i, nil
			}
			continue
		}
		if out[i] != '\n' {
			out[i] = ' '
		}
		i++
	}
	return i, &errs.SyntaxError{Position: start, Message: "unterminated block comment"}
}
