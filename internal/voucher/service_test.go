package voucher

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/identity"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

type fakeVoucherStore struct {
	vouchers map[uuid.UUID]Voucher
	sales    map[uuid.UUID]cart.Sale
}

func newFakeVoucherStore() *fakeVoucherStore {
	return &fakeVoucherStore{vouchers: map[uuid.UUID]Voucher{}, sales: map[uuid.UUID]cart.Sale{}}
}

func (s *fakeVoucherStore) ByCode(_ context.Context, code string) (Voucher, error) {
	for _, v := range s.vouchers {
		if v.Code == code {
			return v, nil
		}
	}
	return Voucher{}, ErrNotFound
}

func (s *fakeVoucherStore) ByID(_ context.Context, id uuid.UUID) (Voucher, error) {
	v, ok := s.vouchers[id]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	return v, nil
}

func (s *fakeVoucherStore) Insert(_ context.Context, v Voucher) error {
	for _, existing := range s.vouchers {
		if existing.Code == v.Code {
			return ErrCodeExists
		}
	}
	s.vouchers[v.ID] = v
	return nil
}

func (s *fakeVoucherStore) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.ByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *fakeVoucherStore) Feed(_ context.Context) ([]Voucher, error) {
	out := make([]Voucher, 0, len(s.vouchers))
	for _, v := range s.vouchers {
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeVoucherStore) Redeem(_ context.Context, v Voucher, sale cart.Sale) error {
	s.vouchers[v.ID] = v
	s.sales[sale.ID] = sale
	return nil
}

func (s *fakeVoucherStore) Release(_ context.Context, v Voucher, saleID uuid.UUID) error {
	s.vouchers[v.ID] = v
	delete(s.sales, saleID)
	return nil
}

// fakeCartStore backs the cart manager with just enough behavior for voucher
// redemption: create-on-flush and lookup by identifier.
type fakeCartStore struct {
	carts map[string]*cart.Cart
}

func (s *fakeCartStore) ByIdentifier(_ context.Context, identifier string) (*cart.Cart, error) {
	c, ok := s.carts[identifier]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (s *fakeCartStore) Create(_ context.Context, c *cart.Cart) error {
	c.ID = uuid.New()
	s.carts[c.Identifier] = c
	return nil
}

func (s *fakeCartStore) UpdateSelection(context.Context, *cart.Cart) error { return nil }

func (s *fakeCartStore) InsertItem(context.Context, *cart.Item) error { return nil }

func (s *fakeCartStore) UpdateItemCount(context.Context, uuid.UUID, int) error { return nil }

func (s *fakeCartStore) DeleteItem(context.Context, uuid.UUID) error { return nil }

func (s *fakeCartStore) ItemByID(context.Context, uuid.UUID) (*cart.Item, error) {
	return nil, cart.ErrItemNotFound
}

func (s *fakeCartStore) ItemsCount(context.Context, string) (int, error) { return 0, nil }

func (s *fakeCartStore) SaleByID(context.Context, uuid.UUID) (*cart.Sale, error) {
	return nil, cart.ErrSaleNotFound
}

func (s *fakeCartStore) DeleteSale(context.Context, uuid.UUID) error { return nil }

func (s *fakeCartStore) DeleteCart(context.Context, uuid.UUID) error { return nil }

type fakeCatalog struct {
	products   map[uuid.UUID]catalog.Product
	categories map[uuid.UUID]catalog.Category
}

func (f *fakeCatalog) ProductByID(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) VariantByID(context.Context, uuid.UUID) (catalog.Variant, error) {
	return catalog.Variant{}, catalog.ErrNotFound
}

func (f *fakeCatalog) VariantsByProduct(context.Context, uuid.UUID) ([]catalog.Variant, error) {
	return nil, nil
}

func (f *fakeCatalog) CategoryByID(_ context.Context, id uuid.UUID) (catalog.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return c, nil
}

func newService(store *fakeVoucherStore, cat *fakeCatalog) *Service {
	currency := money.CurrencyFromCode("CZK")
	if cat == nil {
		cat = &fakeCatalog{products: map[uuid.UUID]catalog.Product{}, categories: map[uuid.UUID]catalog.Category{}}
	}
	return &Service{
		Store: store,
		Carts: &cart.Manager{
			Store:    &fakeCartStore{carts: map[string]*cart.Cart{}},
			Catalog:  cat,
			Identity: identity.Resolver{},
			Currency: currency,
			Log:      zerolog.Nop(),
		},
		Describer: Describer{Catalog: cat, Currency: currency},
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return testNow },
	}
}

func seedVoucher(t *testing.T, store *fakeVoucherStore, mutate func(*Voucher)) Voucher {
	t.Helper()
	v := newVoucher(t, TypeFixValue, "100")
	if mutate != nil {
		mutate(&v)
	}
	store.vouchers[v.ID] = v
	return v
}

func TestServiceUseRedeemsIntoCart(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	seedVoucher(t, store, nil)
	ctx := common.WithUserID(context.Background(), "42")

	c, sale, err := svc.Use(ctx, cart.NewCache(), "summer-10")
	require.NoError(t, err)
	require.Len(t, c.Sales, 1)
	require.Equal(t, "fix", sale.Type)
	require.Contains(t, store.sales, sale.ID)

	updated, err := store.ByCode(ctx, "SUMMER-10")
	require.NoError(t, err)
	require.Equal(t, 1, updated.UsedCount)
	require.NotNil(t, updated.UsedAt)
}

func TestServiceUseUnknownCode(t *testing.T) {
	svc := newService(newFakeVoucherStore(), nil)
	ctx := common.WithUserID(context.Background(), "42")

	_, _, err := svc.Use(ctx, cart.NewCache(), "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceUseSecondUniqueVoucherConflicts(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	seedVoucher(t, store, nil)
	seedVoucher(t, store, func(v *Voucher) { v.Code = "WINTER-20" })
	ctx := common.WithUserID(context.Background(), "42")
	cache := cart.NewCache()

	_, _, err := svc.Use(ctx, cache, "SUMMER-10")
	require.NoError(t, err)
	_, _, err = svc.Use(ctx, cache, "WINTER-20")
	require.ErrorIs(t, err, ErrConflict)
}

func TestServiceCheckReportsValidityWindow(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	expired := testNow.Add(-time.Hour)
	seedVoucher(t, store, func(v *Voucher) { v.ValidTo = &expired })

	info, err := svc.Check(context.Background(), "SUMMER-10")
	require.NoError(t, err)
	require.True(t, info.Available)
	require.False(t, info.InValidityWindow)
	require.Equal(t, "Discount 100 Kč off anything.", info.Message)
}

func TestServiceCheckDanglingReference(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	gone := uuid.New()
	seedVoucher(t, store, func(v *Voucher) {
		v.Type = TypeFreeProduct
		v.ReferenceID = &gone
	})

	_, err := svc.Check(context.Background(), "SUMMER-10")
	require.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestServiceReleaseReturnsVoucher(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	seedVoucher(t, store, nil)
	ctx := common.WithUserID(context.Background(), "42")

	_, sale, err := svc.Use(ctx, cart.NewCache(), "SUMMER-10")
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, &sale))
	require.NotContains(t, store.sales, sale.ID)

	released, err := store.ByCode(ctx, "SUMMER-10")
	require.NoError(t, err)
	require.Zero(t, released.UsedCount)
	require.True(t, released.Active)
}

func TestServiceCreateValidation(t *testing.T) {
	store := newFakeVoucherStore()
	svc := newService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Code: "PERC-5", Type: TypePercentage, MustBeUnique: true})
	require.ErrorIs(t, err, ErrPercentageRequired)

	five := 5
	created, err := svc.Create(ctx, CreateInput{
		Code: "perc-5", Type: TypePercentage, Percentage: &five, MustBeUnique: true,
	})
	require.NoError(t, err)
	require.Equal(t, "PERC-5", created.Code)

	_, err = svc.Create(ctx, CreateInput{
		Code: "PERC-5", Type: TypePercentage, Percentage: &five, MustBeUnique: true,
	})
	require.ErrorIs(t, err, ErrCodeExists)
}

func TestServiceDescribeMessages(t *testing.T) {
	cat := &fakeCatalog{
		products:   map[uuid.UUID]catalog.Product{},
		categories: map[uuid.UUID]catalog.Category{},
	}
	product := catalog.Product{ID: uuid.New(), Name: "Red Mug"}
	category := catalog.Category{ID: uuid.New(), Name: "Kitchen"}
	cat.products[product.ID] = product
	cat.categories[category.ID] = category
	d := Describer{Catalog: cat, Currency: money.CurrencyFromCode("CZK")}
	ctx := context.Background()
	ten := 10

	fix := newVoucher(t, TypeFixValue, "250")
	msg, err := d.Describe(ctx, fix)
	require.NoError(t, err)
	require.Equal(t, `Discount 250 Kč off anything.`, msg)

	perc := newVoucher(t, TypePercentage, "0")
	perc.Percentage = &ten
	msg, err = d.Describe(ctx, perc)
	require.NoError(t, err)
	require.Equal(t, "Discount 10 % off anything.", msg)

	prodPerc := newVoucher(t, TypePercentageProduct, "0")
	prodPerc.Percentage = &ten
	prodPerc.ReferenceID = &product.ID
	msg, err = d.Describe(ctx, prodPerc)
	require.NoError(t, err)
	require.Equal(t, `Discount 10 % off product "Red Mug".`, msg)

	catPerc := newVoucher(t, TypePercentageCategory, "0")
	catPerc.Percentage = &ten
	catPerc.ReferenceID = &category.ID
	msg, err = d.Describe(ctx, catPerc)
	require.NoError(t, err)
	require.Equal(t, `Discount 10 % off any product in category "Kitchen".`, msg)

	free := newVoucher(t, TypeFreeProduct, "0")
	free.ReferenceID = &product.ID
	msg, err = d.Describe(ctx, free)
	require.NoError(t, err)
	require.Equal(t, `Product "Red Mug" for free.`, msg)
}

func TestServiceRandomCode(t *testing.T) {
	svc := newService(newFakeVoucherStore(), nil)
	code, err := svc.RandomCode(context.Background())
	require.NoError(t, err)
	require.Len(t, code, randomCodeLength)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]+$`), code)
}
