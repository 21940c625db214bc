package domain

// Currency is a currency code supported by at least one provider.
type Currency struct {
	Code string `json:"code"` // ISO 4217 code, e.g. "USD"
	Name string `json:"name"` // English display name, e.g. "US Dollar"
}
