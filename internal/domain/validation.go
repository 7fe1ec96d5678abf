package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxDescriptionLength = 200
	MaxInstallments      = 360
	AmountScale          = 2
	MaxAmount            = "1000000000000" // 1 trillion
)

// ValidateDescription validates an obligation description.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return ErrEmptyDescription
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}

	return nil
}

// ValidateAmount checks monetary precision and magnitude. The sign is free:
// callers may store refunds as negative expenses.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	}

	return nil
}

// ValidateInstallments validates an installment count.
func ValidateInstallments(n int) error {
	if n < 1 || n > MaxInstallments {
		return fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidInstallments, n, MaxInstallments)
	}
	return nil
}

// Validate checks a row before it is written.
func (r *ObligationRow) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}

	if err := ValidateDescription(r.Description); err != nil {
		return err
	}

	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}

	if !r.ScheduledDate.Valid() {
		return fmt.Errorf("%w: scheduled date %s", ErrInvalidDate, r.ScheduledDate)
	}

	if !r.IsFixed {
		if err := ValidateInstallments(r.Installments); err != nil {
			return err
		}
		// A materialized row occupies exactly one month of its template.
		if r.OriginalTemplateID != nil && r.Installments != 1 {
			return fmt.Errorf("%w: a row materialized from a template has one installment", ErrInvalidInstallments)
		}
	}

	if r.Settled != (r.SettledDate != nil) {
		return fmt.Errorf("%w: settled flag and settled date must be set together", ErrInvalidDate)
	}

	if r.SettledDate != nil && !r.SettledDate.Valid() {
		return fmt.Errorf("%w: settled date %s", ErrInvalidDate, *r.SettledDate)
	}

	return nil
}
