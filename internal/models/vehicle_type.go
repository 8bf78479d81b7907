package models

type VehicleType string

const (
	VehicleTypeSedan   VehicleType = "sedan"
	VehicleTypeSUV     VehicleType = "suv"
	VehicleTypeVan     VehicleType = "van"
	VehicleTypeMinibus VehicleType = "minibus"
	VehicleTypeBus     VehicleType = "bus"
	VehicleTypeLuxury  VehicleType = "luxury"
)

var VehicleTypes = []VehicleType{
	VehicleTypeSedan,
	VehicleTypeSUV,
	VehicleTypeVan,
	VehicleTypeMinibus,
	VehicleTypeBus,
	VehicleTypeLuxury,
}

func (v VehicleType) IsValid() bool {
	for _, known := range VehicleTypes {
		if v == known {
			return true
		}
	}
	return false
}

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyTRY Currency = "TRY"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyTRY, CurrencyGBP:
		return true
	}
	return false
}
