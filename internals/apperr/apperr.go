package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind separates the errors we show the user verbatim from the ones we
// report generically. Anything without a Kind is unexpected and gets logged.
type Kind int

const (
	KindRule Kind = iota + 1
	KindCheck
	KindNotFound
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Rule reports a domain invariant that would be broken by the operation.
func Rule(format string, args ...interface{}) error {
	return &Error{Kind: KindRule, Msg: fmt.Sprintf(format, args...)}
}

// Check reports a failed eligibility predicate (bans, permissions).
func Check(format string, args ...interface{}) error {
	return &Error{Kind: KindCheck, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the error's kind, or 0 for unexpected errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsRule(err error) bool {
	return KindOf(err) == KindRule
}

func IsCheck(err error) bool {
	return KindOf(err) == KindCheck
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsUniqueViolation matches duplicate-key failures from postgres and sqlite
// so racing writers can tell a lost race from a real failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
