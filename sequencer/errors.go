package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedMapping marks a mapping with a missing field, out-of-range
	// note, empty name or unsupported JSON shape.
	ErrMalformedMapping = errors.New("malformed mapping")

	// ErrInvalidConfiguration marks an out-of-range sequencing parameter.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptySequence classifies a run with zero entries. It is never
	// returned as a failure; an empty sequence still yields a valid stream.
	ErrEmptySequence = errors.New("empty sequence")
)

// Invalid builds an ErrInvalidConfiguration naming the field and value.
func Invalid(field string, value any, rule string) error {
	return fmt.Errorf("%w: %s=%v (%s)", ErrInvalidConfiguration, field, value, rule)
}

// ConfigurationError converts a validator failure into ErrInvalidConfiguration
// for the first offending field. Other errors are wrapped unchanged.
func ConfigurationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return Invalid(fieldPath(fe.Namespace()), fe.Value(), "must satisfy "+rule)
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
