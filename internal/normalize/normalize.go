package normalize

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)
	firstNumber    = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// Fixed scan order; map iteration order would make mixed-symbol text
	// resolve differently between runs.
	currencySymbolOrder = []string{"€", "$", "£", "¥", "₹", "₽", "₴", "₸"}
	currencySymbols     = map[string]string{
		"€": "EUR",
		"$": "USD",
		"£": "GBP",
		"¥": "JPY",
		"₹": "INR",
		"₽": "RUB",
		"₴": "UAH",
		"₸": "KZT",
	}
	currencyNames = map[string]string{
		"EURO":    "EUR",
		"EUROS":   "EUR",
		"DOLLAR":  "USD",
		"DOLLARS": "USD",
		"POUND":   "GBP",
		"POUNDS":  "GBP",
		"YEN":     "JPY",
		"RUBLE":   "RUB",
		"RUBLES":  "RUB",
	}
)

// Currency maps a raw currency string to its ISO 4217 code. Known symbols
// and spelled-out names are translated, an existing 3-letter code passes
// through verbatim, anything else yields "".
func Currency(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if code, ok := currencySymbols[trimmed]; ok {
		return code
	}
	upper := strings.ToUpper(trimmed)
	if isoCodePattern.MatchString(upper) {
		return upper
	}
	if code, ok := currencyNames[upper]; ok {
		return code
	}
	return ""
}

// CurrencyIn scans free text (typically the matched price element's text)
// for a currency symbol or ISO code and returns the code, or "".
func CurrencyIn(text string) string {
	firstIdx := -1
	code := ""
	for _, symbol := range currencySymbolOrder {
		if idx := strings.Index(text, symbol); idx >= 0 && (firstIdx < 0 || idx < firstIdx) {
			firstIdx = idx
			code = currencySymbols[symbol]
		}
	}
	if code != "" {
		return code
	}
	for _, field := range strings.Fields(text) {
		if code := Currency(field); code != "" {
			return code
		}
	}
	return ""
}

// Price extracts a non-negative finite price from a number or a string.
// Strings are stripped of currency symbols, thousands separators and
// whitespace before the first run of digits (with optional decimal point)
// is parsed. The second return value is false when no valid price exists;
// a string with no digits never produces 0.
func Price(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return checkPrice(value)
	case float32:
		return checkPrice(float64(value))
	case int:
		return checkPrice(float64(value))
	case int64:
		return checkPrice(float64(value))
	case string:
		return priceFromString(value)
	default:
		return 0, false
	}
}

func priceFromString(s string) (float64, bool) {
	for _, symbol := range currencySymbolOrder {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")

	match := firstNumber.FindString(s)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return checkPrice(value)
}

func checkPrice(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// ResolveURL returns raw unchanged when it already carries an http(s)
// scheme, otherwise resolves it against base. Malformed input yields "".
func ResolveURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if _, err := url.Parse(raw); err != nil {
			return ""
		}
		return raw
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" || resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

// CollapseEmpty trims a string and collapses whitespace-only input to "".
func CollapseEmpty(s string) string {
	return strings.TrimSpace(s)
}
