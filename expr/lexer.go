// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"strconv"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	val  float64 // set for tokNumber
	pos  int
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' }

// lex splits the input into tokens. Identifiers are letters optionally
// followed by letters or digits, so "y10" is one token and longest-match
// reference substitution falls out of tokenization for free.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			text := input[start:i]
			val, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.Errorf("bad number %q at position %d", text, start)
			}
			toks = append(toks, token{kind: tokNumber, text: text, val: val, pos: start})
		case isLetter(c):
			start := i
			for i < len(input) && (isLetter(input[i]) || isDigit(input[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		default:
			kind, ok := map[byte]tokenKind{
				'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash,
				'^': tokCaret, '(': tokLParen, ')': tokRParen, ',': tokComma,
			}[c]
			if !ok {
				return nil, errors.Errorf("unexpected character %q at position %d", string(c), i)
			}
			toks = append(toks, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}
