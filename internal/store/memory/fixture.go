package memory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"txview/internal/core"
)

// FixtureEmployees is the directory served when no employees.json is present.
func FixtureEmployees() []core.Employee {
	return []core.Employee{
		{ID: "9", FirstName: "James", LastName: "Smith"},
		{ID: "10", FirstName: "Mary", LastName: "Johnson"},
		{ID: "11", FirstName: "Robert", LastName: "Williams"},
		{ID: "12", FirstName: "Patricia", LastName: "Brown"},
	}
}

var fixtureMerchants = []string{
	"Social Media Ads Inc", "Cloud Hosting LLC", "Office Supplies Co",
	"Airline Partners", "Downtown Diner", "Rideshare Inc",
}

var fixtureAmounts = []string{
	"25.99", "1200.00", "86.15", "432.70", "19.40", "57.35", "9.99", "310.00",
}

// FixtureTransactions returns 18 transactions spread over the fixture employees.
func FixtureTransactions() []core.Transaction {
	employees := FixtureEmployees()
	out := make([]core.Transaction, 0, 18)
	for i := 0; i < 18; i++ {
		out = append(out, core.Transaction{
			ID:       fmt.Sprintf("tx-%03d", i+1),
			Amount:   decimal.RequireFromString(fixtureAmounts[i%len(fixtureAmounts)]),
			Employee: employees[i%len(employees)],
			Merchant: fixtureMerchants[i%len(fixtureMerchants)],
			Date:     core.NewDate(2025, 1+i%12, 1+(i*3)%28),
			Approved: i%5 == 0,
		})
	}
	return out
}
