package cart

import "errors"

var (
	// ErrNotFound indicates no cart exists for the identifier.
	ErrNotFound = errors.New("cart: not found")
	// ErrItemNotFound indicates the referenced cart item does not exist.
	ErrItemNotFound = errors.New("cart: item not found")
	// ErrSaleNotFound indicates the referenced sale line does not exist.
	ErrSaleNotFound = errors.New("cart: sale not found")
	// ErrVariantRequired is returned when buying a variant product without a
	// variant selection.
	ErrVariantRequired = errors.New("cart: variant selection required")
	// ErrVariantMismatch is returned when the variant does not belong to the
	// product being bought.
	ErrVariantMismatch = errors.New("cart: variant does not belong to product")
	// ErrSoldOut is returned when the product or variant cannot be bought.
	ErrSoldOut = errors.New("cart: sold out")
	// ErrInvalidCount is returned when a quantity drops below one.
	ErrInvalidCount = errors.New("cart: count must be at least 1")
	// ErrDeliveryRequired is returned when a payment is selected before a
	// delivery.
	ErrDeliveryRequired = errors.New("cart: delivery must be selected first")
	// ErrIncompatiblePayment is returned when the payment cannot be combined
	// with the selected delivery.
	ErrIncompatiblePayment = errors.New("cart: payment not compatible with delivery")
	// ErrIntegrityViolation is raised when a mutation targets an item or sale
	// owned by a different cart. Treated as a security fault and always
	// logged.
	ErrIntegrityViolation = errors.New("cart: entity does not belong to this cart")
	// ErrIdentifierConflict surfaces the backing store's identifier
	// uniqueness guard when two requests race to create the same cart. The
	// caller should retry the request.
	ErrIdentifierConflict = errors.New("cart: identifier already exists")
)
