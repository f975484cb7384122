package models

import "strings"

type CustomerInfo struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	Pincode string `json:"pincode" bson:"pincode"`
}

// MissingFields retourne les champs obligatoires vides (aucune validation de format)
func (c CustomerInfo) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("name", c.Name)
	check("email", c.Email)
	check("phone", c.Phone)
	check("address", c.Address)
	check("city", c.City)
	check("pincode", c.Pincode)
	return missing
}

func (c CustomerInfo) Trimmed() CustomerInfo {
	return CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Pincode: strings.TrimSpace(c.Pincode),
	}
}
