// Package lattice - Binomial lattice pricing for American options.
// A recombining tree of underlying prices is built forward, terminal payoffs
// are evaluated, then values are backward-induced with early exercise.
package lattice

import (
	"fmt"
	"strings"
)

// OptionType identifies the payoff of an option contract
type OptionType string

const (
	// Call pays max(S-K, 0)
	Call OptionType = "CALL"

	// Put pays max(K-S, 0)
	Put OptionType = "PUT"
)

// ParseOptionType accepts CALL/PUT in any case as well as the short forms C/P
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return Call, nil
	case "P", "PUT":
		return Put, nil
	}
	return "", &ParameterError{Field: "type", Reason: fmt.Sprintf("unknown option type %q", s)}
}

// String implements Stringer
func (t OptionType) String() string {
	return string(t)
}

// IsValid reports whether t is Call or Put
func (t OptionType) IsValid() bool {
	return t == Call || t == Put
}

// UnmarshalText normalises short and lower-case forms
func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// sign maps the option type onto the payoff direction: +1 for calls, -1 for puts.
// sign*(S-K) equals K-S exactly in IEEE arithmetic, so both payoffs share one loop.
func (t OptionType) sign() float64 {
	if t == Put {
		return -1
	}
	return 1
}
