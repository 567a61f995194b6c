package money

var currencySymbols = map[string]string{
	"CZK": "Kč",
	"EUR": "€",
	"USD": "$",
	"IDR": "Rp",
	"GBP": "£",
}

// CurrencyFromCode builds a Currency for an ISO code, attaching the display
// symbol when one is known.
func CurrencyFromCode(code string) Currency {
	return Currency{Code: code, Symbol: currencySymbols[code]}
}
