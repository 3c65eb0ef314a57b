package qml

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrTypeMismatch is returned when a symbol's type byte disagrees with
	// the kind of definition it carries. It always aborts the conversion.
	ErrTypeMismatch = errors.New("symbol type mismatch")

	// ErrUnresolvedColor is reported when a symbol references a color that
	// is not in the color table.
	ErrUnresolvedColor = errors.New("unresolved color")

	// ErrUnknownSymbol is reported when an object references a symbol
	// number without a definition.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// OmissionPolicy decides what happens to symbols that cannot be styled
// completely: unknown symbol numbers and unresolved colors.
type OmissionPolicy int

const (
	// LenientOmission drops the offending part silently.
	LenientOmission OmissionPolicy = iota
	// WarnOmission drops the offending part and logs a warning.
	WarnOmission
	// StrictOmission fails the conversion.
	StrictOmission
)

// String returns the policy name accepted by ParseOmissionPolicy.
func (p OmissionPolicy) String() string {
	switch p {
	case LenientOmission:
		return "lenient"
	case WarnOmission:
		return "warn"
	case StrictOmission:
		return "strict"
	}
	return fmt.Sprintf("OmissionPolicy(%d)", int(p))
}

// ParseOmissionPolicy accepts the names returned by String.
func ParseOmissionPolicy(s string) (OmissionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return LenientOmission, nil
	case "warn":
		return WarnOmission, nil
	case "strict":
		return StrictOmission, nil
	}
	return LenientOmission, fmt.Errorf("invalid omission policy %q: must be 'lenient', 'warn' or 'strict'", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p OmissionPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *OmissionPolicy) UnmarshalText(text []byte) error {
	v, err := ParseOmissionPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type omitter struct {
	policy OmissionPolicy
	logger *slog.Logger
}

// omit applies the policy to err. A nil result means the caller carries on
// without the omitted part.
func (o omitter) omit(err error) error {
	switch o.policy {
	case StrictOmission:
		return err
	case WarnOmission:
		o.logger.Warn("omitting from style", "reason", err)
	}
	return nil
}
