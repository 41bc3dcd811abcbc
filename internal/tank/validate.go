package tank

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxNameLength = 64
	MinTier       = 1
	MaxTier       = 10
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrTankNotFound       = errors.New("tank not found")
	ErrTankExists         = errors.New("tank already exists")
	ErrTankHasSubmissions = errors.New("tank has submissions and cannot be removed")
)

// ValidationError is returned for malformed input. Its message is safe to show
// to the requester.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateText trims value and checks it is present, at most maxLen characters,
// a single line and free of control characters.
func ValidateText(label, value string, maxLen int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", invalid("%s is required.", label)
	}
	if utf8.RuneCountInString(v) > maxLen {
		return "", invalid("%s is too long (max %d chars).", label, maxLen)
	}
	for _, r := range v {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return "", invalid("%s must be a single line.", label)
		case r < 32 || r == 0x7f:
			return "", invalid("%s contains invalid control characters.", label)
		}
	}
	return v, nil
}

// ValidateName validates a tank name.
func ValidateName(name string) (string, error) {
	return ValidateText("Tank name", name, MaxNameLength)
}

// ValidateTier checks the tier is within 1..10.
func ValidateTier(tier int) error {
	if tier < MinTier || tier > MaxTier {
		return invalid("Tier must be %d..%d.", MinTier, MaxTier)
	}
	return nil
}

// NormalizeType lower-cases and trims raw and checks it is a known type.
func NormalizeType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", invalid("Type must be one of: light, medium, heavy, td.")
}

// ValidateScore checks the score is within 1..maxScore.
func ValidateScore(score, maxScore int) error {
	if score < 1 || score > maxScore {
		return invalid("Score must be between 1 and %d.", maxScore)
	}
	return nil
}

// ValidateSpec normalises and checks every field of a tank spec.
func ValidateSpec(spec Spec) (Spec, error) {
	name, err := ValidateName(spec.Name)
	if err != nil {
		return Spec{}, err
	}
	if err := ValidateTier(spec.Tier); err != nil {
		return Spec{}, err
	}
	t, err := NormalizeType(string(spec.Type))
	if err != nil {
		return Spec{}, err
	}
	return Spec{Name: name, Tier: spec.Tier, Type: t}, nil
}

// NormalizePlayer returns the grouping key for a player name. It is never displayed.
func NormalizePlayer(name string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(name)))
}
