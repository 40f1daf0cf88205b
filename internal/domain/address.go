package domain

type Address struct {
	ID          int64  `json:"id"`
	UserEmail   string `json:"-"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
	District    string `json:"district"`
	PostalCode  string `json:"postalCode"`
	Street      string `json:"street"`
}
