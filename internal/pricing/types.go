package pricing

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Facet keys as the pricing API speaks them (Dutch).
const (
	FacetEnergyType   = "energietype"
	FacetContractType = "vast_variabel_dynamisch"
	FacetSegment      = "segment"
	FacetSupplier     = "handelsnaam"
	FacetProduct      = "productnaam"
	FacetComponent    = "prijsonderdeel"
	FacetZipCode      = "postcode"
	FacetYear         = "jaar"
	FacetMonth        = "maand"
	FacetShowPrices   = "show_prices"
	FacetBottom       = "bottom"
)

// Enumerated facet values.
var (
	EnergyTypes   = []string{"Elektriciteit", "Gas"}
	ContractTypes = []string{"Dynamisch", "Variabel", "Vast"}
	Segments      = []string{"Woning", "Onderneming"}
)

// MonthNames lists the selectable months in calendar order. The API itself
// wants the Dutch short form; see monthParam.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// monthsMap translates month names to the API's Dutch short form.
var monthsMap = map[string]string{
	"January":   "jan",
	"February":  "feb",
	"March":     "mrt",
	"April":     "apr",
	"May":       "mei",
	"June":      "jun",
	"July":      "jul",
	"August":    "aug",
	"September": "sep",
	"October":   "okt",
	"November":  "nov",
	"December":  "dec",
}

// Facets is a partial filter over the contract dimensions. Zero values mean
// "facet not set"; unset year and month default to the server's current
// year/month cached by Authenticate.
type Facets struct {
	EnergyType   string
	ContractType string
	Segment      string
	Supplier     string
	Product      string
	Component    string
	Month        string // named month, e.g. "January"
	Year         string
	ZipCode      string
	ShowPrices   bool
	Bottom       int // bottom-N cheapest rows; 0 means no limit
}

// values encodes the facets as query parameters, filling year and month
// from the given defaults when unset.
func (f Facets) values(defaultYear, defaultMonth string) url.Values {
	v := url.Values{}

	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	set(FacetEnergyType, f.EnergyType)
	set(FacetContractType, f.ContractType)
	set(FacetSegment, f.Segment)
	set(FacetSupplier, f.Supplier)
	set(FacetProduct, f.Product)
	set(FacetComponent, f.Component)
	set(FacetZipCode, f.ZipCode)

	if f.Year != "" {
		set(FacetYear, f.Year)
	} else {
		set(FacetYear, defaultYear)
	}

	if f.Month != "" {
		set(FacetMonth, monthParam(f.Month))
	} else {
		set(FacetMonth, defaultMonth)
	}

	if f.ShowPrices {
		v.Set(FacetShowPrices, "yes")
	}
	if f.Bottom > 0 {
		v.Set(FacetBottom, strconv.Itoa(f.Bottom))
	}

	return v
}

// monthParam maps a named month to the API's short form; anything already
// in short form (or unknown) passes through unchanged.
func monthParam(month string) string {
	if short, ok := monthsMap[month]; ok {
		return short
	}
	return month
}

// PriceComponent is one priced line item within a contract. The named
// fields cover the facets the wizard and jobs filter on; Raw preserves the
// complete line item so sensors can expose it verbatim as attributes.
type PriceComponent struct {
	Supplier     string
	Product      string
	Component    string
	EnergyType   string
	ContractType string
	Segment      string

	Raw map[string]any
}

// UnmarshalJSON keeps the full object while lifting the facet fields.
func (p *PriceComponent) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Raw = raw
	p.Supplier = stringField(raw, FacetSupplier)
	p.Product = stringField(raw, FacetProduct)
	p.Component = stringField(raw, FacetComponent)
	p.EnergyType = stringField(raw, FacetEnergyType)
	p.ContractType = stringField(raw, FacetContractType)
	p.Segment = stringField(raw, FacetSegment)

	return nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
