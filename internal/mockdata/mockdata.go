// Package mockdata generates the synthetic accounts the application starts with.
// Output is fully determined by the generator's seed and reference time.
package mockdata

import (
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Frequency controls how often a random transaction happens on a regular day.
type Frequency string

const (
	High Frequency = "high"
	Low  Frequency = "low"
)

func (f Frequency) probability() float64 {
	if f == High {
		return 0.15
	}
	return 0.03
}

// settleDelay is how old a transaction must be to count as validated.
const settleDelay = 7

type Generator struct {
	Seed uint64
	Now  time.Time
}

type seedAccount struct {
	id      string
	label   string
	typ     core.AccountType
	initial int64
	bank    string
	freq    Frequency
}

var seedAccounts = []seedAccount{
	{"1", "Compte Courant", core.Checking, 1500, "lbp", High},
	{"2", "Livret A", core.LivretA, 14350, "lbp", Low},
	{"3", "Compte Courant Fortuneo", core.Checking, 2500, "fortuneo", High},
	{"4", "PEA Fortuneo", core.PEA, 5000, "fortuneo", Low},
	{"5", "Assurance Vie Linxea Avenir", core.PER, 10000, "linxea", Low},
}

// Accounts returns the five demo accounts, each with monthsBack months of history.
func (g Generator) Accounts(monthsBack int) []core.Account {
	out := make([]core.Account, 0, len(seedAccounts))
	for i, s := range seedAccounts {
		sub := Generator{Seed: g.Seed + uint64(i)*0x9e3779b97f4a7c15, Now: g.Now}
		out = append(out, core.Account{
			ID:             s.id,
			Label:          s.label,
			Type:           s.typ,
			InitialBalance: decimal.NewFromInt(s.initial),
			BankID:         s.bank,
			Transactions:   sub.Transactions(monthsBack, s.freq),
		})
	}
	return out
}

// Transactions generates history from monthsBack months before Now up to Now,
// newest first. The first of each month brings a salary and the fifteenth always
// has a transaction; any other day has one with the frequency's probability.
func (g Generator) Transactions(monthsBack int, freq Frequency) []core.Transaction {
	src := rand.NewChaCha8(seedBytes(g.Seed))
	rng := rand.New(src)

	today := core.DateOf(g.Now)
	settled := today.AddDate(0, 0, -settleDelay)
	start := today.AddDate(0, -monthsBack, 0)

	var out []core.Transaction
	for day := start; !day.After(today.Time); day = day.AddDate(0, 0, 1) {
		dom := day.Day()
		if rng.Float64() >= freq.probability() && dom != 1 && dom != 15 {
			continue
		}
		t := draw(rng, dom)
		t.ID = uuid.Must(uuid.NewRandomFromReader(src)).String()
		t.Date = core.DateOf(day)
		t.Validated = !day.After(settled)
		out = append(out, t)
	}

	// Walked oldest first; reverse for newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

var (
	foodLabels      = []string{"Supermarché", "Restaurant", "Courses"}
	transportLabels = []string{"Essence", "Transport en commun", "Taxi"}
	rentLabels      = []string{"Loyer", "Charges", "Assurance habitation"}
)

func draw(rng *rand.Rand, dom int) core.Transaction {
	categories := core.Categories()
	t := core.Transaction{Category: categories[rng.IntN(len(categories))], Direction: core.Debit}
	var base, span int

	switch {
	case dom == 1:
		t.Category, t.Direction, t.Label = core.Salary, core.Credit, "Salaire"
		base, span = 2800, 200
	case dom == 5:
		t.Category, t.Label = core.Rent, "Loyer"
		base, span = 800, 50
	default:
		switch t.Category {
		case core.Food:
			t.Label = pick(rng, foodLabels)
			base, span = 15, 85
		case core.Transport:
			t.Label = pick(rng, transportLabels)
			base, span = 10, 40
		case core.Rent:
			t.Label = pick(rng, rentLabels)
			base, span = 500, 300
		default:
			base, span = 50, 150
			if rng.Float64() > 0.8 {
				t.Direction, t.Label = core.Credit, "Virement reçu"
			} else {
				t.Label = "Paiement divers"
			}
		}
	}

	cents := int64(base+rng.IntN(span))*100 + int64(rng.IntN(100))
	t.Amount = decimal.New(cents, -core.CurrencyScale)
	return t
}

func pick(rng *rand.Rand, labels []string) string {
	return labels[rng.IntN(len(labels))]
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(b[i*8:], seed+uint64(i))
	}
	return b
}
