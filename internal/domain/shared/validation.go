package shared

// Validator checks one rule and returns nil or the violation(s) it found.
type Validator interface {
	Validate() error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func() error

// Validate calls f.
func (f ValidatorFunc) Validate() error { return f() }

// ValidatorList runs validators in two phases.
//
// DataContract validators check the shape of the input (is it a number, is
// it one character). If any of them fails, their errors are returned
// together and the invariants are not evaluated. Invariant validators check
// business rules; all of them run and every error is collected.
type ValidatorList struct {
	DataContract []Validator
	Invariants   []Validator
}

// Validate executes both phases and returns a *MultipleBusinessErrors, or nil.
func (l ValidatorList) Validate() error {
	if err := runAll(l.DataContract); err != nil {
		return err
	}
	return runAll(l.Invariants)
}

func runAll(validators []Validator) error {
	errs := make([]error, 0)
	for _, v := range validators {
		if v == nil {
			continue
		}
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return JoinBusinessErrors(errs...)
}
