package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// priceListItem is one product document of a GetProducts response
type priceListItem struct {
	Product struct {
		Sku           string            `json:"sku"`
		ProductFamily string            `json:"productFamily"`
		Attributes    map[string]string `json:"attributes"`
	} `json:"product"`
	Terms struct {
		OnDemand map[string]term `json:"OnDemand"`
	} `json:"terms"`
}

type term struct {
	OfferTermCode   string                    `json:"offerTermCode"`
	Sku             string                    `json:"sku"`
	PriceDimensions map[string]priceDimension `json:"priceDimensions"`
}

type priceDimension struct {
	RateCode     string            `json:"rateCode"`
	Description  string            `json:"description"`
	BeginRange   string            `json:"beginRange"`
	EndRange     string            `json:"endRange"`
	Unit         string            `json:"unit"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// Dimension is one on-demand price dimension with a USD price
type Dimension struct {
	Sku         string
	TermCode    string
	RateCode    string
	Unit        string
	Description string
	USD         decimal.Decimal
}

// decodeItem turns a price list document into its on-demand USD dimensions,
// ordered by term code and then rate code.
func decodeItem(raw aws.JSONValue) ([]Dimension, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode price list item: %w", err)
	}
	var item priceListItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode price list item: %w", err)
	}

	termCodes := make([]string, 0, len(item.Terms.OnDemand))
	for code := range item.Terms.OnDemand {
		termCodes = append(termCodes, code)
	}
	sort.Strings(termCodes)

	var dims []Dimension
	for _, code := range termCodes {
		t := item.Terms.OnDemand[code]

		rateCodes := make([]string, 0, len(t.PriceDimensions))
		for rc := range t.PriceDimensions {
			rateCodes = append(rateCodes, rc)
		}
		sort.Strings(rateCodes)

		for _, rc := range rateCodes {
			pd := t.PriceDimensions[rc]
			usd, ok := pd.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(strings.TrimSpace(usd))
			if err != nil || price.IsNegative() {
				continue
			}
			dims = append(dims, Dimension{
				Sku:         item.Product.Sku,
				TermCode:    code,
				RateCode:    rc,
				Unit:        pd.Unit,
				Description: pd.Description,
				USD:         price,
			})
		}
	}
	return dims, nil
}

// Selector chooses the quoted dimension from the dimensions seen so far.
// final is true once every page has been read; a selector may decline
// until then to see more.
type Selector interface {
	Name() string
	Select(dims []Dimension, final bool) (Dimension, bool)
}

var (
	// FirstNonZeroUSD picks the first dimension with a positive price and
	// settles for a zero price only when nothing else matched. This is a
	// heuristic; tiered products may need a different selector.
	FirstNonZeroUSD Selector = firstNonZero{}
	// FirstUSD picks the first dimension regardless of price
	FirstUSD Selector = first{}
	// MaxUSD picks the most expensive dimension across all pages
	MaxUSD Selector = maxPrice{}
)

var selectors = map[string]Selector{
	FirstNonZeroUSD.Name(): FirstNonZeroUSD,
	FirstUSD.Name():        FirstUSD,
	MaxUSD.Name():          MaxUSD,
}

// SelectorByName returns the selector registered under name
func SelectorByName(name string) (Selector, error) {
	if name == "" {
		return FirstNonZeroUSD, nil
	}
	s, ok := selectors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown quote selector %q, expected one of %s", name, strings.Join(SelectorNames(), ", "))
	}
	return s, nil
}

// SelectorNames lists the registered selectors
func SelectorNames() []string {
	names := make([]string, 0, len(selectors))
	for name := range selectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type firstNonZero struct{}

func (firstNonZero) Name() string { return "first-nonzero" }

func (firstNonZero) Select(dims []Dimension, final bool) (Dimension, bool) {
	for _, d := range dims {
		if d.USD.IsPositive() {
			return d, true
		}
	}
	if final && len(dims) > 0 {
		return dims[0], true
	}
	return Dimension{}, false
}

type first struct{}

func (first) Name() string { return "first" }

func (first) Select(dims []Dimension, final bool) (Dimension, bool) {
	if len(dims) == 0 {
		return Dimension{}, false
	}
	return dims[0], true
}

type maxPrice struct{}

func (maxPrice) Name() string { return "max" }

func (maxPrice) Select(dims []Dimension, final bool) (Dimension, bool) {
	if !final || len(dims) == 0 {
		return Dimension{}, false
	}
	best := dims[0]
	for _, d := range dims[1:] {
		if d.USD.GreaterThan(best.USD) {
			best = d
		}
	}
	return best, true
}
