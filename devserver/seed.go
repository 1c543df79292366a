package devserver

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jrsteele09/go-erp-client/resources"
	"github.com/shopspring/decimal"
)

// SeedOptions controls the generated demo data of one tenant.
type SeedOptions struct {
	SchemaName string
	Name       string
	Email      string
	Password   string
	Seed       uint64 // 0 picks a random seed
	Locations  int
	Invoices   int
}

// SeedTenant creates the tenant, its operator account and fake documents.
func (s *Server) SeedTenant(opts SeedOptions) error {
	faker := gofakeit.New(opts.Seed)

	name := opts.Name
	if name == "" {
		name = faker.Company()
	}
	if _, err := s.AddTenant(opts.SchemaName, name); err != nil {
		return fmt.Errorf("[devserver SeedTenant] %w", err)
	}
	schema := strings.ToLower(opts.SchemaName)
	if _, err := s.AddUser(schema, opts.Email, opts.Password, faker.FirstName(), faker.LastName()); err != nil {
		return fmt.Errorf("[devserver SeedTenant] %w", err)
	}

	locationIDs := make([]string, 0, opts.Locations)
	for i := 0; i < opts.Locations; i++ {
		loc := s.data.create(schema, specFor(resources.LocationsPath), document{
			"code":      fmt.Sprintf("WH%02d", i+1),
			"name":      faker.City() + " Warehouse",
			"address":   faker.Street(),
			"is_active": true,
		})
		locationIDs = append(locationIDs, loc.str("id"))
	}

	for i := 0; i < opts.Invoices; i++ {
		n := faker.Number(1, 3)
		lines := make([]any, 0, n)
		for j := 0; j < n; j++ {
			lines = append(lines, map[string]any{
				"description": faker.ProductName(),
				"quantity":    decimal.NewFromInt(int64(faker.Number(1, 20))).String(),
				"unit_price":  decimal.NewFromFloat(faker.Price(1, 500)).Round(2).String(),
				"tax_rate":    "0.2",
			})
		}
		s.data.create(schema, specFor(resources.InvoicesPath), document{
			"number":        fmt.Sprintf("INV/%04d", i+1),
			"customer_name": faker.Company(),
			"currency":      "EUR",
			"lines":         lines,
		})
	}

	if len(locationIDs) > 0 {
		s.data.create(schema, specFor(resources.DeliveryOrdersPath), document{
			"reference":     "WH/OUT/0001",
			"customer_name": faker.Company(),
			"location_id":   locationIDs[0],
			"lines": []any{map[string]any{
				"product_id":  faker.UUID(),
				"description": faker.ProductName(),
				"quantity":    "4",
				"unit_cost":   "12.50",
			}},
		})
	}

	s.logger.Info().
		Str("tenant", schema).
		Str("email", opts.Email).
		Int("locations", opts.Locations).
		Int("invoices", opts.Invoices).
		Msg("tenant seeded")
	return nil
}

func specFor(path string) collectionSpec {
	for _, spec := range collectionSpecs {
		if spec.path == path {
			return spec
		}
	}
	panic("devserver: unknown collection " + path)
}
