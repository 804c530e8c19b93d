package config

// Region describes a bidding area: its default currency, country and VAT.
type Region struct {
	Currency string
	Country  string
	VAT      float64
}

// Regions is the read-only bidding area table shared by all sensors.
var Regions = map[string]Region{
	"DK1":     {"DKK", "Denmark", 0.25},
	"DK2":     {"DKK", "Denmark", 0.25},
	"FI":      {"EUR", "Finland", 0.255},
	"EE":      {"EUR", "Estonia", 0.22},
	"LT":      {"EUR", "Lithuania", 0.21},
	"LV":      {"EUR", "Latvia", 0.21},
	"Oslo":    {"NOK", "Norway", 0.25},
	"Kr.sand": {"NOK", "Norway", 0.25},
	"Bergen":  {"NOK", "Norway", 0.25},
	"Molde":   {"NOK", "Norway", 0.25},
	"Tr.heim": {"NOK", "Norway", 0.25},
	"Tromsø":  {"NOK", "Norway", 0.25},
	"NO1":     {"NOK", "Norway", 0.25},
	"NO2":     {"NOK", "Norway", 0.25},
	"NO3":     {"NOK", "Norway", 0.25},
	"NO4":     {"NOK", "Norway", 0.25},
	"NO5":     {"NOK", "Norway", 0.25},
	"SE1":     {"SEK", "Sweden", 0.25},
	"SE2":     {"SEK", "Sweden", 0.25},
	"SE3":     {"SEK", "Sweden", 0.25},
	"SE4":     {"SEK", "Sweden", 0.25},
	"SYS":     {"EUR", "System zone", 0.25},
	"FR":      {"EUR", "France", 0.055},
	"NL":      {"EUR", "Netherlands", 0.21},
	"BE":      {"EUR", "Belgium", 0.06},
	"AT":      {"EUR", "Austria", 0.20},
	"DE-LU":   {"EUR", "Germany and Luxembourg", 0.19},
}

// PriceUnits maps a price unit to the divisor applied to a per-MWh price.
var PriceUnits = map[string]float64{
	"MWh": 1,
	"kWh": 1000,
	"Wh":  1000 * 1000,
}

// MinorUnits names the minor unit of each currency.
var MinorUnits = map[string]string{
	"DKK": "øre",
	"NOK": "øre",
	"SEK": "öre",
	"EUR": "c",
}

// MinorMultiplier converts a major currency amount to its minor unit.
const MinorMultiplier = 100
