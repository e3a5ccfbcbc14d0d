package enums

import (
	"fmt"
	"strings"
)

// AddressType labels an address book entry.
type AddressType string

const (
	AddressTypeHome   AddressType = "Home"
	AddressTypeOffice AddressType = "Office"
)

func (t AddressType) IsValid() bool {
	return t == AddressTypeHome || t == AddressTypeOffice
}

// ParseAddressType matches case-insensitively; an empty value is Home.
func ParseAddressType(value string) (AddressType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return AddressTypeHome, nil
	}
	for _, candidate := range []AddressType{AddressTypeHome, AddressTypeOffice} {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address type %q", value)
}

// DeliveryCities are the cities orders ship to.
var DeliveryCities = []string{
	"Abu Dhabi",
	"Dubai",
	"Sharjah",
	"Ajman",
	"Fujairah",
	"Ras Al Khaimah",
	"Umm Al Quwain",
	"Al Ain",
	"Khor Fakkan",
	"Dibba Al-Fujairah",
}

// ParseDeliveryCity returns the canonical spelling of value.
func ParseDeliveryCity(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	for _, city := range DeliveryCities {
		if strings.EqualFold(city, trimmed) {
			return city, nil
		}
	}
	return "", fmt.Errorf("unsupported city %q", value)
}
