package keyvalues

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// ErrSyntax is returned for malformed input. The wrapped message carries the line.
var ErrSyntax = errors.New("keyvalues syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

func (l *lexer) next() (token, error) {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return token{kind: tokEOF, line: l.line}, nil
		}
		c := l.src[l.pos]
		switch {
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		case c == '{':
			l.pos++
			return token{kind: tokOpen, line: l.line}, nil
		case c == '}':
			l.pos++
			return token{kind: tokClose, line: l.line}, nil
		case c == '"':
			return l.quoted()
		case c == '[':
			// platform conditional such as [$WIN32]; not meaningful on a server
			for l.pos < len(l.src) && l.src[l.pos] != ']' && l.src[l.pos] != '\n' {
				l.pos++
			}
			if l.pos < len(l.src) && l.src[l.pos] == ']' {
				l.pos++
			}
			continue
		default:
			return l.bare(), nil
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\n':
			l.line++
		case ' ', '\t', '\r':
		default:
			return
		}
		l.pos++
	}
}

func (l *lexer) quoted() (token, error) {
	start := l.line
	l.pos++ // opening quote
	begin := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, fmt.Errorf("%w: line %d: unterminated quoted string", ErrSyntax, start)
	}
	text := string(l.src[begin:l.pos])
	l.pos++ // closing quote
	return token{kind: tokString, text: text, line: start}, nil
}

func (l *lexer) bare() token {
	begin := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n', '{', '}', '"':
			return token{kind: tokString, text: string(l.src[begin:l.pos]), line: l.line}
		}
		l.pos++
	}
	return token{kind: tokString, text: string(l.src[begin:l.pos]), line: l.line}
}

// Parse reads the whole input and returns a synthetic root whose children
// are the top-level keys in file order.
func Parse(r io.Reader) (*Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keyvalues: %w", err)
	}
	return ParseBytes(src)
}

// ParseBytes is Parse over an in-memory buffer.
func ParseBytes(src []byte) (*Node, error) {
	l := &lexer{src: src, line: 1}
	root := NewBlock("")
	if err := parseBody(l, root, false); err != nil {
		return nil, err
	}
	return root, nil
}

func parseBody(l *lexer, parent *Node, nested bool) error {
	for {
		tok, err := l.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokEOF:
			if nested {
				return fmt.Errorf("%w: line %d: block %q is not closed", ErrSyntax, parent.line, parent.Name)
			}
			return nil
		case tokClose:
			if !nested {
				return fmt.Errorf("%w: line %d: unexpected '}'", ErrSyntax, tok.line)
			}
			return nil
		case tokOpen:
			return fmt.Errorf("%w: line %d: expected key name, got '{'", ErrSyntax, tok.line)
		}

		name := tok
		tok, err = l.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokOpen:
			child := NewBlock(name.text)
			child.line = name.line
			if err := parseBody(l, child, true); err != nil {
				return err
			}
			parent.Add(child)
		case tokString:
			child := NewValue(name.text, tok.text)
			child.line = name.line
			parent.Add(child)
		default:
			return fmt.Errorf("%w: line %d: key %q has no value", ErrSyntax, name.line, name.text)
		}
	}
}

// Load parses the file at path inside fsys. A missing file yields an error
// matching fs.ErrNotExist.
func Load(fsys fs.FS, path string) (*Node, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	root, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return root, nil
}
