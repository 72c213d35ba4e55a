package domain

// Profile holds the store-account credentials a task checks out with.
// The password is sensitive; it must never be logged unredacted.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// Addresses are populated from the fetched customer profile, not from
	// user input. They are retained on the task so a restarted pipeline can
	// rebuild shipping parameters without refetching.
	Addresses []Address `json:"addresses,omitempty"`
}

// CustomerProfile is the account record fetched from the store during the
// profile stage. The pipeline only proceeds when it carries at least one
// address.
type CustomerProfile struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Addresses []Address `json:"addresses"`
}

// Clone returns a deep copy of the customer profile.
func (p CustomerProfile) Clone() CustomerProfile {
	out := p
	if p.Addresses != nil {
		out.Addresses = make([]Address, len(p.Addresses))
		copy(out.Addresses, p.Addresses)
	}
	return out
}

// DefaultShipping returns the profile's default shipping address, if any.
func (p CustomerProfile) DefaultShipping() (Address, bool) {
	for _, a := range p.Addresses {
		if a.DefaultShipping {
			return a, true
		}
	}
	return Address{}, false
}

// DefaultBilling returns the profile's default billing address, if any.
func (p CustomerProfile) DefaultBilling() (Address, bool) {
	for _, a := range p.Addresses {
		if a.DefaultBilling {
			return a, true
		}
	}
	return Address{}, false
}

// Region is the state/province portion of an address.
type Region struct {
	Region     string `json:"region"`
	RegionCode string `json:"region_code"`
}

// Address is one customer address as the store models it.
type Address struct {
	ID              int      `json:"id"`
	Firstname       string   `json:"firstname"`
	Lastname        string   `json:"lastname"`
	Telephone       string   `json:"telephone"`
	Street          []string `json:"street"`
	City            string   `json:"city"`
	Postcode        string   `json:"postcode"`
	CountryID       string   `json:"country_id"`
	RegionID        int      `json:"region_id"`
	Region          Region   `json:"region"`
	DefaultShipping bool     `json:"default_shipping"`
	DefaultBilling  bool     `json:"default_billing"`
}
