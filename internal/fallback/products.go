package fallback

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JaimeStill/stager/internal/scene"
)

// Locale holds regional store conventions.
type Locale struct {
	Store    string
	Currency string
	Delivery string
	Location string
}

type localeRule struct {
	terms  []string
	locale Locale
}

var defaultLocale = Locale{Store: "IKEA Italia", Currency: "€", Delivery: "3-7 giorni", Location: "Roma"}

var locales = []localeRule{
	{[]string{"italy"}, defaultLocale},
	{[]string{"germany"}, Locale{Store: "IKEA Deutschland", Currency: "€", Delivery: "2-5 Tage", Location: "Local store"}},
	{[]string{"france"}, Locale{Store: "IKEA France", Currency: "€", Delivery: "3-6 jours", Location: "Magasin local"}},
	{[]string{"usa", "united states"}, Locale{Store: "IKEA USA", Currency: "$", Delivery: "3-7 days", Location: "Local store"}},
	{[]string{"uk", "britain"}, Locale{Store: "IKEA UK", Currency: "£", Delivery: "2-5 days", Location: "Local store"}},
}

// LocaleFor matches country by substring in rule order, defaulting to Italy.
func LocaleFor(country string) Locale {
	lower := strings.ToLower(country)
	for _, r := range locales {
		for _, term := range r.terms {
			if strings.Contains(lower, term) {
				return r.locale
			}
		}
	}
	return defaultLocale
}

type productRule struct {
	term  string
	name  string
	price string
}

// Ordered so specific items win over "table": "table lamp" is a lamp.
var productRules = []productRule{
	{"chair", "POÄNG Armchair", "79-99"},
	{"lamp", "FOTO Table Lamp", "25-35"},
	{"sofa", "KLIPPAN Loveseat", "179-249"},
	{"table", "HEMNES Coffee Table", "129-159"},
	{"plant", "FEJKA Artificial Plant", "12-25"},
	{"art", "BJÖRKSTA Picture Frame", "15-30"},
	{"mirror", "LOTS Mirror Set", "39-49"},
	{"rug", "STOENSE Rug", "69-149"},
	{"shelf", "LACK Wall Shelf", "8-15"},
	{"pillow", "GURLI Cushion Cover", "4-8"},
}

// Product builds a catalog product for query in the locale of country.
// Name, Price, and Store are never empty.
func Product(query, country, style string) scene.Product {
	loc := LocaleFor(country)
	rule := productRules[0]

	lower := strings.ToLower(query)
	for _, r := range productRules {
		if strings.Contains(lower, r.term) {
			rule = r
			break
		}
	}

	category := strings.TrimSpace(query)
	if category == "" {
		category = "home decor"
	}

	return scene.Product{
		Name:        rule.name,
		Price:       loc.Currency + rule.price,
		Store:       loc.Store,
		Description: fmt.Sprintf("%s %s matching your room's aesthetic", capitalize(orDefault(style, defaultStyle)), category),
		Category:    category,
		Location:    loc.Location,
		Distance:    loc.Delivery,
	}
}

// Display fills empty presentation fields of p. city supplies the location
// when the product has none.
func Display(p scene.Product, city string) scene.Product {
	if p.Name == "" {
		p.Name = "Product"
	}
	if p.Price == "" {
		p.Price = "Price unavailable"
	}
	if p.Store == "" {
		p.Store = "Furniture Store"
	}
	if p.Location == "" {
		p.Location = orDefault(city, "Local area")
	}
	if p.Distance == "" {
		p.Distance = "Available for delivery"
	}
	return p
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
