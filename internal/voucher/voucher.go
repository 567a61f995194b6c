package voucher

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates the discount kinds a voucher can grant.
type Type string

const (
	TypeFixValue           Type = "fix"
	TypePercentage         Type = "perc"
	TypePercentageProduct  Type = "percprod"
	TypePercentageCategory Type = "perccat"
	TypeFreeProduct        Type = "freeprod"
)

// Types lists every valid voucher type.
var Types = []Type{TypeFixValue, TypePercentage, TypePercentageProduct, TypePercentageCategory, TypeFreeProduct}

// Valid reports whether t is a known voucher type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) percentage() bool {
	return t == TypePercentage || t == TypePercentageProduct || t == TypePercentageCategory
}

func (t Type) references() bool {
	return t == TypePercentageProduct || t == TypePercentageCategory || t == TypeFreeProduct
}

// State is the derived lifecycle position of a voucher.
type State string

const (
	StateActive      State = "active"
	StateExhausted   State = "exhausted"
	StateDeactivated State = "deactivated"
)

// Voucher is one discount code definition. Value carries the monetary amount
// for fixed-value vouchers; percentage-family vouchers carry Percentage and
// reference-family vouchers point at a product or category via ReferenceID.
type Voucher struct {
	ID           uuid.UUID
	Code         string
	Type         Type
	Value        decimal.Decimal
	Percentage   *int
	ReferenceID  *uuid.UUID
	UsageLimit   *int
	UsedCount    int
	Active       bool
	MustBeUnique bool
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Note         *string
	InsertedAt   time.Time
	UsedAt       *time.Time
}

// New validates and builds an active voucher. The code is normalized; a
// percentage-family type without a percentage is rejected, as is a
// reference-family type without a referenced entity.
func New(code string, t Type, value decimal.Decimal, now time.Time) (Voucher, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return Voucher{}, err
	}
	if !t.Valid() {
		return Voucher{}, ErrInvalidType
	}
	return Voucher{
		ID:           uuid.New(),
		Code:         normalized,
		Type:         t,
		Value:        value,
		Active:       true,
		MustBeUnique: true,
		InsertedAt:   now,
	}, nil
}

// NormalizeCode uppercases the code and strips everything that is not a
// letter, digit or hyphen. An empty result is an error.
func NormalizeCode(code string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrInvalidCode
	}
	return b.String(), nil
}

// ValidateConfiguration checks the type-specific field requirements.
func (v Voucher) ValidateConfiguration() error {
	if !v.Type.Valid() {
		return ErrInvalidType
	}
	if v.Type.percentage() && v.Percentage == nil {
		return ErrPercentageRequired
	}
	if v.Type.references() && v.ReferenceID == nil {
		return ErrReferenceRequired
	}
	return nil
}

// IsAvailable reports whether the voucher can still be redeemed. The validity
// window is deliberately not part of this check; see WithinValidityWindow.
func (v Voucher) IsAvailable() bool {
	return v.Active && (v.UsageLimit == nil || v.UsedCount <= *v.UsageLimit)
}

// WithinValidityWindow reports whether now falls inside the configured
// validFrom/validTo range. Redemption does not enforce it; the check endpoint
// reports it so the storefront can warn.
func (v Voucher) WithinValidityWindow(now time.Time) bool {
	if v.ValidFrom != nil && now.Before(*v.ValidFrom) {
		return false
	}
	if v.ValidTo != nil && now.After(*v.ValidTo) {
		return false
	}
	return true
}

// State derives the lifecycle position from the counters and the active flag.
func (v Voucher) State() State {
	if v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit {
		return StateExhausted
	}
	if !v.Active {
		return StateDeactivated
	}
	return StateActive
}

// SaleValue is the number frozen into a sale at redemption: the monetary
// amount for fixed-value vouchers, the percentage for percentage-family ones.
func (v Voucher) SaleValue() decimal.Decimal {
	if v.Type.percentage() && v.Percentage != nil {
		return decimal.NewFromInt(int64(*v.Percentage))
	}
	return v.Value
}
