package pfds

import (
	"regexp"
	"strconv"

	"github.com/couchcryptid/storm-freeboard/internal/domain"
)

var (
	// quantilesRe captures the array literal in `quantiles = [[...]];`.
	quantilesRe = regexp.MustCompile(`(?s)\bquantiles\s*=\s*(.*?);`)

	// numberRe is the accepted numeric literal grammar. strconv.ParseFloat alone
	// would also take "NaN", "Inf" and hex floats.
	numberRe = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
)

const fragmentLen = 40

// ParseQuantiles extracts the quantiles table from a PFDS response body.
func ParseQuantiles(body []byte) (domain.Table, error) {
	m := quantilesRe.FindSubmatch(body)
	if m == nil {
		return nil, &domain.MalformedResponseError{Reason: "quantiles assignment not found"}
	}
	return parseTableLiteral(string(m[1]))
}

// parseTableLiteral parses a two-level array of numbers, e.g. [[1, '2.5'], [3, 4]].
// Elements may be bare or quoted numbers; trailing commas are allowed.
// Nothing else is accepted.
func parseTableLiteral(src string) (domain.Table, error) {
	p := &literalParser{src: src}

	table := domain.Table{}
	err := p.list(func() error {
		var row []float64
		if err := p.list(func() error {
			v, err := p.number()
			if err != nil {
				return err
			}
			row = append(row, v)
			return nil
		}); err != nil {
			return err
		}
		table = append(table, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing characters")
	}
	if len(table) == 0 {
		return nil, p.errorf("empty table")
	}
	return table, nil
}

type literalParser struct {
	src string
	pos int
}

// list parses "[" elem ("," elem)* ","? "]" or "[]", calling elem for each element.
func (p *literalParser) list(elem func() error) error {
	p.skipSpace()
	if !p.consume('[') {
		return p.errorf("expected '['")
	}
	p.skipSpace()
	if p.consume(']') {
		return nil
	}
	for {
		if err := elem(); err != nil {
			return err
		}
		p.skipSpace()
		if p.consume(']') {
			return nil
		}
		if !p.consume(',') {
			return p.errorf("expected ',' or ']'")
		}
		p.skipSpace()
		if p.consume(']') {
			return nil
		}
	}
}

func (p *literalParser) number() (float64, error) {
	p.skipSpace()
	start := p.pos

	var text string
	if q := p.peek(); q == '\'' || q == '"' {
		p.pos++
		end := p.pos
		for end < len(p.src) && p.src[end] != q {
			end++
		}
		if end == len(p.src) {
			p.pos = start
			return 0, p.errorf("unterminated string")
		}
		text = p.src[p.pos:end]
		p.pos = end + 1
	} else {
		for p.pos < len(p.src) && isNumberByte(p.src[p.pos]) {
			p.pos++
		}
		text = p.src[start:p.pos]
	}

	if !numberRe.MatchString(text) {
		p.pos = start
		return 0, p.errorf("expected number")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("expected number")
	}
	return v, nil
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) consume(b byte) bool {
	if p.peek() == b && p.pos < len(p.src) {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) errorf(reason string) error {
	end := p.pos + fragmentLen
	if end > len(p.src) {
		end = len(p.src)
	}
	return &domain.MalformedResponseError{
		Reason:   reason + " at offset " + strconv.Itoa(p.pos),
		Fragment: p.src[p.pos:end],
	}
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.' || b == '-' || b == '+' || b == 'e' || b == 'E'
}
