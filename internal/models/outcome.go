package models

import (
	"regexp"
)

type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeOK
	OutcomeTimeout
	OutcomeBlocked
	OutcomeRateLimited
	OutcomeOtherError
)

// Display texts stored in the price column when no price was extracted.
const (
	SentinelPending     = "Pending"
	SentinelTimeout     = "Timeout"
	SentinelBlocked     = "Blocked"
	SentinelRateLimited = "Rate Limited"
	SentinelError       = "Error"
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeOK:
		return "ok"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeOtherError:
		return "error"
	}
	return "unknown"
}

// Outcome is the tagged result of scanning one item. Price is only set
// for OutcomeOK; Detail carries the underlying failure for logs.
type Outcome struct {
	Kind   OutcomeKind
	Price  string
	Detail string
}

func Pending() Outcome { return Outcome{Kind: OutcomePending} }

func Ok(price string) Outcome { return Outcome{Kind: OutcomeOK, Price: price} }

func Failed(kind OutcomeKind, err error) Outcome {
	o := Outcome{Kind: kind}
	if err != nil {
		o.Detail = err.Error()
	}
	return o
}

func (o Outcome) IsOK() bool { return o.Kind == OutcomeOK }

// DisplayText renders the outcome into the single price field used by
// listings and exports.
func (o Outcome) DisplayText() string {
	switch o.Kind {
	case OutcomeOK:
		return o.Price
	case OutcomeTimeout:
		return SentinelTimeout
	case OutcomeBlocked:
		return SentinelBlocked
	case OutcomeRateLimited:
		return SentinelRateLimited
	case OutcomeOtherError:
		return SentinelError
	}
	return SentinelPending
}

var numericPrice = regexp.MustCompile(`^\D{0,4}\s?\d[\d.,\s]*\s?\D{0,4}$`)

// LooksNumeric reports whether a price text contains a plausible amount.
// Prices are never rewritten; this only flags suspicious model output.
func LooksNumeric(price string) bool {
	return numericPrice.MatchString(price)
}
