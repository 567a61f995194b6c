package cart

// Cache holds at most one in-memory cart instance per identifier for the
// lifetime of a single request, so repeated lookups after a local mutation
// never re-fetch stale state. It is request-scoped and passed explicitly
// through the orchestration call chain; it is not safe for concurrent use
// and must not outlive the request.
type Cache struct {
	storage map[string]*Cart
}

// NewCache builds an empty request-scoped cache.
func NewCache() *Cache {
	return &Cache{storage: map[string]*Cart{}}
}

// Get returns the cached cart for the identifier.
func (c *Cache) Get(identifier string) (*Cart, bool) {
	if c == nil {
		return nil, false
	}
	cached, ok := c.storage[identifier]
	return cached, ok
}

// Save stores the cart under its own identifier.
func (c *Cache) Save(cart *Cart) {
	if c == nil || cart == nil {
		return
	}
	c.storage[cart.Identifier] = cart
}

// Drop removes the identifier from the cache, used after cart removal.
func (c *Cache) Drop(identifier string) {
	if c == nil {
		return
	}
	delete(c.storage, identifier)
}
