package model

// CostBreakdown itemizes the cost side of a sale, in the target currency.
type CostBreakdown struct {
	BaseCost          float64 `json:"base_cost"`
	ShippingCost      float64 `json:"shipping_cost"`
	DutyAndServiceFee float64 `json:"duty_and_service_fee"`
	MarketplaceFee    float64 `json:"marketplace_fee"`
	TotalCost         float64 `json:"total_cost"`
}

// TariffInfo describes the resolved import duty for an item.
type TariffInfo struct {
	HSCode           string  `json:"hs_code,omitempty"`
	OriginCountry    string  `json:"origin_country,omitempty"`
	BaseRate         float64 `json:"base_rate"`
	AdditionalRate   float64 `json:"additional_rate"`
	TotalRate        float64 `json:"total_rate"`
	EffectiveFeeRate float64 `json:"effective_fee_rate"`
}

// WeightTier is a flat shipping rate for parcels up to MaxWeightKg.
type WeightTier struct {
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	MaxWeightKg float64 `json:"max_weight_kg" yaml:"max_weight_kg"`
	FlatRate    float64 `json:"flat_rate" yaml:"flat_rate"`
}

// HSTariff is one row of the HS-code tariff table.
type HSTariff struct {
	HSCode      string  `json:"hs_code" yaml:"hs_code"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	BaseRate    float64 `json:"base_rate" yaml:"base_rate"`
}

// CountrySurcharge is one row of the origin-country surcharge table.
type CountrySurcharge struct {
	CountryCode    string  `json:"country_code" yaml:"country_code"`
	Description    string  `json:"description,omitempty" yaml:"description,omitempty"`
	AdditionalRate float64 `json:"additional_rate" yaml:"additional_rate"`
}

// MarketplaceFees is the fee table of one marketplace used by the forward profit calculator.
type MarketplaceFees struct {
	Marketplace    string       `json:"marketplace" yaml:"marketplace" validate:"required"`
	Currency       string       `json:"currency,omitempty" yaml:"currency,omitempty"`
	Shipping       []WeightTier `json:"shipping,omitempty" yaml:"shipping,omitempty"`
	CommissionRate float64      `json:"commission_rate" yaml:"commission_rate" validate:"gte=0,lt=1"`
	PaymentRate    float64      `json:"payment_rate" yaml:"payment_rate" validate:"gte=0,lt=1"`
	PaymentFixed   float64      `json:"payment_fixed" yaml:"payment_fixed" validate:"gte=0"`
}
