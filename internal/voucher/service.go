package voucher

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/lock"
	"github.com/noah-isme/backend-keranjang/internal/obs"
)

const (
	randomCodeLength   = 10
	randomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Info is the check-voucher report. Redemption ignores the validity window;
// InValidityWindow lets the storefront warn about it anyway.
type Info struct {
	Code             string
	Message          string
	Type             Type
	Value            string
	Available        bool
	Active           bool
	MustBeUnique     bool
	InValidityWindow bool
}

// CreateInput carries the admin voucher-creation payload.
type CreateInput struct {
	Code         string
	Type         Type
	Value        string
	Percentage   *int
	ReferenceID  *string
	UsageLimit   *int
	MustBeUnique bool
	Note         *string
	ValidFrom    *time.Time
	ValidTo      *time.Time
}

// Service couples the pure voucher transitions with persistence and the cart
// manager. It also implements cart.SaleReleaser.
type Service struct {
	Store     Store
	Carts     *cart.Manager
	Describer Describer
	Locks     *lock.Locker
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Check reports the state of a voucher code without redeeming it.
func (s *Service) Check(ctx context.Context, code string) (Info, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return Info{}, err
	}
	v, err := s.Store.ByCode(ctx, normalized)
	if err != nil {
		return Info{}, err
	}
	message, err := s.Describer.Describe(ctx, v)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Code:             v.Code,
		Message:          message,
		Type:             v.Type,
		Value:            v.SaleValue().String(),
		Available:        v.IsAvailable(),
		Active:           v.Active,
		MustBeUnique:     v.MustBeUnique,
		InValidityWindow: v.WithinValidityWindow(s.now()),
	}, nil
}

// Use redeems a voucher code into the caller's cart. Redemption for a given
// code is serialized through a Redis lock when one is configured, so two
// shoppers cannot burn the last use of a limited voucher at the same time.
func (s *Service) Use(ctx context.Context, cache *cart.Cache, code string) (*cart.Cart, cart.Sale, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, cart.Sale{}, err
	}
	var (
		c    *cart.Cart
		sale cart.Sale
	)
	redeem := func(ctx context.Context) error {
		v, err := s.Store.ByCode(ctx, normalized)
		if err != nil {
			return err
		}
		c, err = s.Carts.GetCart(ctx, cache, true)
		if err != nil {
			return err
		}
		redeemed, newSale, err := Redeem(v, c, s.now())
		if err != nil {
			return err
		}
		if err := s.Store.Redeem(ctx, redeemed, newSale); err != nil {
			return fmt.Errorf("voucher: persist redemption: %w", err)
		}
		sale = newSale
		c.Sales = append(c.Sales, &sale)
		s.Log.Info().Str("code", redeemed.Code).Str("cart", c.ID.String()).Msg("voucher redeemed")
		return nil
	}
	if s.Locks != nil {
		err = s.Locks.WithLock(ctx, "voucher:redeem:"+normalized, 10*time.Second, redeem)
	} else {
		err = redeem(ctx)
	}
	if obs.VoucherRedemptionsTotal != nil {
		result := "redeemed"
		if err != nil {
			result = "rejected"
		}
		obs.VoucherRedemptionsTotal.WithLabelValues(result).Inc()
	}
	if err != nil {
		return nil, cart.Sale{}, err
	}
	return c, sale, nil
}

// Release implements cart.SaleReleaser: the sale is deleted and its voucher
// returned to circulation in one transaction.
func (s *Service) Release(ctx context.Context, sale *cart.Sale) error {
	if sale.VoucherID == nil {
		return ErrNotFound
	}
	v, err := s.Store.ByID(ctx, *sale.VoucherID)
	if err != nil {
		return err
	}
	if err := s.Store.Release(ctx, Release(v), sale.ID); err != nil {
		return fmt.Errorf("voucher: persist release: %w", err)
	}
	return nil
}

// Create validates and persists a new voucher definition.
func (s *Service) Create(ctx context.Context, in CreateInput) (Voucher, error) {
	value, err := parseValue(in.Value)
	if err != nil {
		return Voucher{}, err
	}
	v, err := New(in.Code, in.Type, value, s.now())
	if err != nil {
		return Voucher{}, err
	}
	v.Percentage = in.Percentage
	v.UsageLimit = in.UsageLimit
	v.MustBeUnique = in.MustBeUnique
	v.Note = in.Note
	v.ValidFrom = in.ValidFrom
	v.ValidTo = in.ValidTo
	if in.ReferenceID != nil {
		parsed, err := parseReference(*in.ReferenceID)
		if err != nil {
			return Voucher{}, err
		}
		v.ReferenceID = parsed
	}
	if err := v.ValidateConfiguration(); err != nil {
		return Voucher{}, err
	}
	exists, err := s.Store.CodeExists(ctx, v.Code)
	if err != nil {
		return Voucher{}, err
	}
	if exists {
		return Voucher{}, ErrCodeExists
	}
	if err := s.Store.Insert(ctx, v); err != nil {
		return Voucher{}, err
	}
	return v, nil
}

// RandomCode generates an unused uppercase code for the admin form.
func (s *Service) RandomCode(ctx context.Context) (string, error) {
	for {
		code, err := randomCode(randomCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.Store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// Feed lists every voucher for the admin overview.
func (s *Service) Feed(ctx context.Context) ([]Voucher, error) {
	return s.Store.Feed(ctx)
}

func parseValue(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("voucher: invalid value %q: %w", raw, err)
	}
	return value, nil
}

func parseReference(raw string) (*uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrReferenceRequired
	}
	return &parsed, nil
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = randomCodeAlphabet[int(b)%len(randomCodeAlphabet)]
	}
	return string(buf), nil
}
