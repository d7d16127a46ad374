package models

// Address is a postal address with the contact details carriers require.
// State is optional; whether it is sent to a carrier depends on the
// destination country (see internal/addressrules).
type Address struct {
	ID          string
	Name        string
	Company     string
	Street1     string
	Street2     string
	City        string
	State       string
	PostalCode  string
	CountryCode string
	Phone       string
	Email       string
}

// Customer owns shipments and receives the tracking-ready notification.
type Customer struct {
	ID    string
	Name  string
	Email string
}
