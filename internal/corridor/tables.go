package corridor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Shipped comparison providers. Bank is a traditional wire, the other two are
// the common remittance operators for the shipped corridors.
const (
	ProviderBank      ProviderID = "bank"
	ProviderFastWire  ProviderID = "fastwire"
	ProviderMoneyHome ProviderID = "moneyhome"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("corridor: bad table constant " + s)
	}
	return d
}

func fee(flat, markup string) Fee {
	return Fee{FlatFee: dec(flat), MarkupRate: dec(markup)}
}

// defaultProfiles are the corridor fee tables shipped with the product. Rates
// are indicative mid-market snapshots; provider rows combine published flat
// fees with observed FX spreads.
var defaultProfiles = []Profile{
	{
		Destination: "nigeria",
		Currency:    "NGN",
		BaseRate:    dec("1580.25"),
		Providers: map[ProviderID]Fee{
			Protocol:          fee("5", "0.003"),
			ProviderBank:      fee("50", "0.04"),
			ProviderFastWire:  fee("12.99", "0.025"),
			ProviderMoneyHome: fee("9.99", "0.018"),
		},
		Bank:    ProviderBank,
		Fastest: ProviderFastWire,
	},
	{
		Destination: "kenya",
		Currency:    "KES",
		BaseRate:    dec("129.40"),
		Providers: map[ProviderID]Fee{
			Protocol:          fee("5", "0.003"),
			ProviderBank:      fee("45", "0.035"),
			ProviderFastWire:  fee("11.49", "0.022"),
			ProviderMoneyHome: fee("8.99", "0.016"),
		},
		Bank:    ProviderBank,
		Fastest: ProviderFastWire,
	},
	{
		Destination: "ghana",
		Currency:    "GHS",
		BaseRate:    dec("15.65"),
		Providers: map[ProviderID]Fee{
			Protocol:          fee("5", "0.003"),
			ProviderBank:      fee("48", "0.038"),
			ProviderFastWire:  fee("12.49", "0.024"),
			ProviderMoneyHome: fee("9.49", "0.017"),
		},
		Bank:    ProviderBank,
		Fastest: ProviderFastWire,
	},
	{
		Destination: "philippines",
		Currency:    "PHP",
		BaseRate:    dec("58.10"),
		Providers: map[ProviderID]Fee{
			Protocol:          fee("5", "0.003"),
			ProviderBank:      fee("40", "0.032"),
			ProviderFastWire:  fee("10.99", "0.021"),
			ProviderMoneyHome: fee("7.99", "0.015"),
		},
		Bank:    ProviderBank,
		Fastest: ProviderFastWire,
	},
	{
		Destination: "india",
		Currency:    "INR",
		BaseRate:    dec("83.55"),
		Providers: map[ProviderID]Fee{
			Protocol:          fee("5", "0.003"),
			ProviderBank:      fee("42", "0.03"),
			ProviderFastWire:  fee("9.99", "0.019"),
			ProviderMoneyHome: fee("6.99", "0.013"),
		},
		Bank:    ProviderBank,
		Fastest: ProviderFastWire,
	},
}

// Profiles returns a copy of the shipped corridor tables.
func Profiles() []Profile {
	out := make([]Profile, len(defaultProfiles))
	copy(out, defaultProfiles)
	return out
}

// Lookup finds a shipped corridor profile by destination key.
func Lookup(destination string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(destination))
	for _, p := range defaultProfiles {
		if p.Destination == key {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown corridor %q (known: %s)", destination, strings.Join(Destinations(), ", "))
}

// Destinations lists the shipped corridor keys.
func Destinations() []string {
	keys := make([]string, len(defaultProfiles))
	for i, p := range defaultProfiles {
		keys[i] = p.Destination
	}
	return keys
}
