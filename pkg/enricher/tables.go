// pkg/enricher/tables.go
package enricher

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Sentinels returned when a lookup has no match. These are values, not
// absences: downstream aggregation never sees a null category.
const (
	ProviderUnknown = "Unknown"
	RegionOther     = "Other"
	TierOther       = "Other"
	FailureNone     = "none"
	SeverityNone    = "none"
)

// ProviderOption is one weighted outcome of a provider distribution.
// Options are a slice, not a map, so draw order is stable.
type ProviderOption struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// RegionRule maps an email substring pattern to a region code. Rules
// are matched in order and the first match wins, so specific full-domain
// patterns must come before generic TLD patterns ("protonmail.com"
// before ".com").
type RegionRule struct {
	Pattern string `yaml:"pattern"`
	Region  string `yaml:"region"`
}

// LatencyParams are the log-normal location/scale parameters for the
// synthetic processing time of one payment method.
type LatencyParams struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

// Tables is the immutable configuration data of the enrichment engine.
// It is injected at construction time; tests override individual tables
// instead of patching globals.
type Tables struct {
	Providers         map[string][]ProviderOption `yaml:"providers"`
	Regions           []RegionRule                `yaml:"regions"`
	Tiers             map[string]string           `yaml:"tiers"`
	FailureReasons    map[string]string           `yaml:"failure_reasons"`
	FailureSeverities map[string]string           `yaml:"failure_severities"`
	Latency           map[string]LatencyParams    `yaml:"latency"`
	DefaultLatency    LatencyParams               `yaml:"default_latency"`
}

// DefaultTables returns the shipped lookup tables.
func DefaultTables() Tables {
	return Tables{
		Providers: map[string][]ProviderOption{
			"credit_card": {
				{Name: "Stripe", Weight: 0.60},
				{Name: "CardDirect", Weight: 0.30},
				{Name: "Adyen", Weight: 0.10},
			},
			"debit_card": {
				{Name: "Stripe", Weight: 0.50},
				{Name: "CardDirect", Weight: 0.40},
				{Name: "Adyen", Weight: 0.10},
			},
			"paypal": {
				{Name: "PayPal", Weight: 1.0},
			},
			"bank_transfer": {
				{Name: "SEPA", Weight: 0.60},
				{Name: "Wire", Weight: 0.30},
				{Name: "ACH", Weight: 0.10},
			},
			"other": {
				{Name: "Crypto", Weight: 0.70},
				{Name: "Other", Weight: 0.30},
			},
		},

		// Full-domain patterns first, TLD patterns after: substring
		// matching means ".com" would otherwise shadow every entry
		// that ends in .com. Within the TLD block ".com" precedes
		// ".co" because ".co" is a substring of ".com" addresses.
		Regions: []RegionRule{
			// Provider domains
			{"t-online.de", "DE"},
			{"web.de", "DE"},
			{"orange.fr", "FR"},
			{"libero.it", "IT"},
			{"bluewin.ch", "CH"},
			{"protonmail.com", "CH"},
			{"gmail.com", "US"},
			{"outlook.com", "US"},
			{"yahoo.com", "US"},
			{"hotmail.com", "US"},
			{"aol.com", "US"},
			{"icloud.com", "US"},
			{"fastmail.com", "US"},
			{"naver.com", "KR"},
			{"163.com", "CN"},
			{"rambler.ru", "RU"},

			// European TLDs
			{".de", "DE"},
			{".fr", "FR"},
			{".it", "IT"},
			{".es", "ES"},
			{".ch", "CH"},
			{".nl", "NL"},
			{".pt", "PT"},
			{".uk", "GB"},
			{".ie", "IE"},
			{".dk", "DK"},
			{".at", "AT"},
			{".be", "BE"},

			// Americas
			{".com", "US"},
			{".us", "US"},
			{".ca", "CA"},
			{".mx", "MX"},
			{".br", "BR"},
			{".ar", "AR"},
			{".cl", "CL"},
			{".co", "CO"},
			{".pe", "PE"},

			// Asia Pacific
			{".jp", "JP"},
			{".sg", "SG"},
			{".au", "AU"},
			{".nz", "NZ"},
			{".kr", "KR"},
			{".cn", "CN"},
			{".in", "IN"},
			{".vn", "VN"},

			// Russia & Eastern Europe
			{".ru", "RU"},

			// Others
			{".edu", "US"},
			{".ma", "MA"},
			{".za", "ZA"},
		},

		Tiers: map[string]string{
			"Monthly Basic":           "Mail Plus",
			"Quarterly Standard":      "Drive Plus",
			"Quarterly Premium":       "Unlimited",
			"Yearly Lite":             "VPN Plus",
			"Yearly Enterprise":       "Proton for Business",
			"Weekly Access":           "VPN Plus",
			"Weekly Student":          "VPN Plus",
			"Weekly Lite Plan":        "VPN Plus",
			"Monthly Basic Plan":      "Mail Plus",
			"Quarterly Standard Plan": "Drive Plus",
			"Quarterly Premium Plan":  "Unlimited",
			"Yearly Lite Plan":        "VPN Plus",
			"Yearly Enterprise Plan":  "Proton for Business",
		},

		FailureReasons: map[string]string{
			"Insufficient funds":            "insufficient_funds",
			"Insufficient funds on account": "insufficient_funds",
			"Card expired":                  "card_expired",
			"Card declined":                 "card_declined",
			"Payment gateway error":         "gateway_error",
			"Awaiting bank authorization":   "pending_authorization",
			"Awaiting confirmation":         "pending_authorization",
			"Processing delay":              "processing_delay",
			"Bank account closed":           "account_closed",
		},

		FailureSeverities: map[string]string{
			"insufficient_funds":    "high",
			"card_expired":          "high",
			"card_declined":         "high",
			"account_closed":        "critical",
			"gateway_error":         "medium",
			"processing_delay":      "low",
			"pending_authorization": "low",
			FailureNone:             SeverityNone,
		},

		Latency: map[string]LatencyParams{
			"credit_card":   {Mu: 0.5, Sigma: 0.6},
			"debit_card":    {Mu: 0.5, Sigma: 0.6},
			"paypal":        {Mu: 1.0, Sigma: 0.5},
			"bank_transfer": {Mu: 2.0, Sigma: 0.7},
			"other":         {Mu: 2.5, Sigma: 0.8},
		},
		DefaultLatency: LatencyParams{Mu: 1.0, Sigma: 0.5},
	}
}

// Validate checks the build-time invariants of the tables: every
// provider distribution sums to 1.0 with positive weights, every
// canonical failure code has a severity, and the severity table covers
// the none sentinel.
func (t Tables) Validate() error {
	for method, options := range t.Providers {
		if len(options) == 0 {
			return fmt.Errorf("provider distribution for %q is empty", method)
		}
		sum := 0.0
		for _, opt := range options {
			if opt.Weight <= 0 {
				return fmt.Errorf("provider %q for %q has non-positive weight %v", opt.Name, method, opt.Weight)
			}
			sum += opt.Weight
		}
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("provider distribution for %q sums to %v, want 1.0", method, sum)
		}
	}

	for raw, code := range t.FailureReasons {
		if _, ok := t.FailureSeverities[code]; !ok {
			return fmt.Errorf("failure code %q (from %q) has no severity", code, raw)
		}
	}
	if _, ok := t.FailureSeverities[FailureNone]; !ok {
		return fmt.Errorf("severity table is missing the %q sentinel", FailureNone)
	}

	for i, rule := range t.Regions {
		if rule.Pattern == "" || rule.Region == "" {
			return fmt.Errorf("region rule %d is incomplete", i)
		}
	}

	return nil
}

// TablesFromFile loads table overrides from a YAML file. Sections absent
// from the file keep their defaults, so an override file can replace a
// single table.
func TablesFromFile(path string) (Tables, error) {
	tables := DefaultTables()

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read tables file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("failed to parse tables file: %w", err)
	}

	if override.Providers != nil {
		tables.Providers = override.Providers
	}
	if override.Regions != nil {
		tables.Regions = override.Regions
	}
	if override.Tiers != nil {
		tables.Tiers = override.Tiers
	}
	if override.FailureReasons != nil {
		tables.FailureReasons = override.FailureReasons
	}
	if override.FailureSeverities != nil {
		tables.FailureSeverities = override.FailureSeverities
	}
	if override.Latency != nil {
		tables.Latency = override.Latency
	}
	if override.DefaultLatency != (LatencyParams{}) {
		tables.DefaultLatency = override.DefaultLatency
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, fmt.Errorf("invalid tables file: %w", err)
	}

	return tables, nil
}
