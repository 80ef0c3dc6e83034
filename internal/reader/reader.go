// Package reader parses the whitespace-tokenized wave-picking
// instance file format of spec.md §6.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/r3b0rn/wavepick/internal/instance"
)

// ParseError reports a malformed instance file, tagged with the index
// of the offending whitespace-separated token (1-based, matching how
// a human would count tokens while reading the file).
type ParseError struct {
	TokenIndex int
	Token      string
	Msg        string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("instance: token %d (%q): %s", e.TokenIndex, e.Token, e.Msg)
}

// tokenizer scans whitespace-separated tokens and converts them to
// ints on demand, recording the first error encountered.
type tokenizer struct {
	sc  *bufio.Scanner
	idx int
	err error
}

func newTokenizer(r io.Reader) *tokenizer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

func (t *tokenizer) nextInt() int {
	if t.err != nil {
		return 0
	}
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			t.err = &ParseError{TokenIndex: t.idx + 1, Msg: "read error: " + err.Error()}
		} else {
			t.err = &ParseError{TokenIndex: t.idx + 1, Msg: "unexpected end of input"}
		}
		return 0
	}
	t.idx++
	tok := t.sc.Text()
	v, err := strconv.Atoi(tok)
	if err != nil {
		t.err = &ParseError{TokenIndex: t.idx, Token: tok, Msg: "not an integer"}
		return 0
	}
	return v
}

// Parse reads one instance in the format:
//
//	numOrders numItems numAisles
//	<numOrders lines, each: k item_1 qty_1 ... item_k qty_k>
//	<numAisles lines, each: k item_1 qty_1 ... item_k qty_k>
//	waveLB waveUB
//
// Tokens may be split across any number of lines; only whitespace
// boundaries matter (spec.md §6).
func Parse(r io.Reader) (*instance.Instance, error) {
	tok := newTokenizer(r)

	numOrders := tok.nextInt()
	numItems := tok.nextInt()
	numAisles := tok.nextInt()

	orderDemand := make([]map[int]int, numOrders)
	for i := 0; i < numOrders && tok.err == nil; i++ {
		orderDemand[i] = readDemandLine(tok)
	}

	aisleStock := make([]map[int]int, numAisles)
	for i := 0; i < numAisles && tok.err == nil; i++ {
		aisleStock[i] = readDemandLine(tok)
	}

	waveLB := tok.nextInt()
	waveUB := tok.nextInt()

	if tok.err != nil {
		return nil, tok.err
	}

	return instance.New(numItems, orderDemand, aisleStock, waveLB, waveUB)
}

func readDemandLine(tok *tokenizer) map[int]int {
	k := tok.nextInt()
	if tok.err != nil {
		return nil
	}
	m := make(map[int]int, k)
	for j := 0; j < k && tok.err == nil; j++ {
		item := tok.nextInt()
		qty := tok.nextInt()
		m[item] = qty
	}
	return m
}
