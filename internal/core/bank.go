package core

// Bank is an entry of the read-only bank catalog. Accounts reference it by ID for display.
type Bank struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Color   string `json:"color"`
}

var banks = []Bank{
	{ID: "lbp", Name: "La Banque Postale", LogoURL: "/lbp.png", Color: "#0046c0"},
	{ID: "fortuneo", Name: "Fortuneo", LogoURL: "/fortuneo.png", Color: "#002f6c"},
	{ID: "linxea", Name: "Linxea", LogoURL: "/linxea.png", Color: "#00a0df"},
}

// Banks returns a copy of the catalog.
func Banks() []Bank {
	return append([]Bank(nil), banks...)
}

// LookupBank finds a bank by ID.
func LookupBank(id string) (Bank, bool) {
	for _, b := range banks {
		if b.ID == id {
			return b, true
		}
	}
	return Bank{}, false
}
