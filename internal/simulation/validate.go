package simulation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTextLength = 500
	MinIntensity  = 1
	MaxIntensity  = 100
)

var (
	ErrTextRequired     = errors.New("wish text is required")
	ErrTextTooLong      = fmt.Errorf("wish text must be %d characters or less", MaxTextLength)
	ErrIntensityOutside = fmt.Errorf("intensity must be between %d and %d", MinIntensity, MaxIntensity)
)

// ValidateRequest checks caller input before it reaches the engine.
func ValidateRequest(text string, intensity int) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextRequired
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return ErrTextTooLong
	}
	if intensity < MinIntensity || intensity > MaxIntensity {
		return ErrIntensityOutside
	}
	return nil
}
