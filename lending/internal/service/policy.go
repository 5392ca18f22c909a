package service

import (
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
)

const (
	DefaultLoanDays = 14
	MaxLoanDays     = 90
)

// Policy decides the loan period of a lend request. With Clamp unset an
// out-of-range period is rejected, otherwise it is pulled into [1, MaxDays].
type Policy struct {
	DefaultDays int
	MaxDays     int
	Clamp       bool
}

func DefaultPolicy() Policy {
	return Policy{DefaultDays: DefaultLoanDays, MaxDays: MaxLoanDays}
}

func (p Policy) LoanDays(requested *int) (int, error) {
	if requested == nil {
		if p.DefaultDays > 0 {
			return p.DefaultDays, nil
		}
		return DefaultLoanDays, nil
	}
	days := *requested
	switch {
	case days <= 0:
		if !p.Clamp {
			return 0, errors.Wrapf(errs.ErrInvalidLoanPeriod, "%d days", days)
		}
		return 1, nil
	case p.MaxDays > 0 && days > p.MaxDays:
		if !p.Clamp {
			return 0, errors.Wrapf(errs.ErrInvalidLoanPeriod, "%d days exceeds %d", days, p.MaxDays)
		}
		return p.MaxDays, nil
	}
	return days, nil
}
