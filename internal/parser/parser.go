// Package parser turns a line such as "100 usd to jpy" into a model.ParsedRequest.
//
// Tokens are separated by spaces. Running out of input before a token starts is reported
// as *model.WaitingForInputError (the user is still typing); a bad token is reported as
// *model.ParseError.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"quickfx/internal/domain/model"
)

var number = regexp.MustCompile(`^-?[0-9]+(\.[0-9]*)?$`)

type cursor struct {
	input string
	pos   int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.input)
}

// next skips leading spaces and returns the text up to the next space or end of input.
// The separating space is consumed.
func (c *cursor) next() string {
	for !c.done() && c.input[c.pos] == ' ' {
		c.pos++
	}
	start := c.pos
	for !c.done() && c.input[c.pos] != ' ' {
		c.pos++
	}
	token := c.input[start:c.pos]
	if !c.done() {
		c.pos++
	}
	return token
}

type step struct {
	hint  string
	parse func(token string, req *model.ParsedRequest) error
}

var steps = []step{
	{hint: "no balance specified", parse: parseAmount},
	{hint: "no source currency code specified", parse: parseFrom},
	{hint: "expecting to/To/in/In", parse: parsePreposition},
	{hint: "no target currency code specified", parse: parseTo},
}

// Parse reads amount, source code, preposition and target code in that order.
// Anything after the target code is ignored.
func Parse(input string) (model.ParsedRequest, error) {
	var req model.ParsedRequest
	c := &cursor{input: input}

	for _, s := range steps {
		if c.done() {
			return model.ParsedRequest{}, &model.WaitingForInputError{Hint: s.hint}
		}
		if err := s.parse(c.next(), &req); err != nil {
			return model.ParsedRequest{}, err
		}
	}

	return req, nil
}

func parseAmount(token string, req *model.ParsedRequest) error {
	if !number.MatchString(token) {
		return &model.ParseError{Token: token, Reason: "expect number"}
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return &model.ParseError{Token: token, Reason: "expect number"}
	}
	if d.IsNegative() {
		return &model.ParseError{Reason: "balance should be positive number"}
	}
	req.Amount = token
	return nil
}

func parseFrom(token string, req *model.ParsedRequest) error {
	code, ok := model.ParseCode(token)
	if !ok {
		return &model.ParseError{Token: token, Reason: "expect currency code"}
	}
	req.From = code
	return nil
}

func parsePreposition(token string, _ *model.ParsedRequest) error {
	switch strings.ToUpper(token) {
	case "TO", "IN":
		return nil
	}
	return &model.ParseError{Token: token, Reason: "expect to/in"}
}

func parseTo(token string, req *model.ParsedRequest) error {
	code, ok := model.ParseCode(token)
	if !ok {
		return &model.ParseError{Token: token, Reason: "expect currency code"}
	}
	req.To = code
	return nil
}
