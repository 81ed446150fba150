// This file seeds reference data for the lookup tables and, on demand,
// faker-generated demo rows across the whole schema in foreign-key order.
package schema

import (
	"database/sql"
	"fmt"
	"math/rand"

	"github.com/jaswdr/faker"
)

// builtInLookup describes one lookup table's reference rows.
type builtInLookup struct {
	table  string
	idCol  string
	valCol string
	values []string
}

// builtInLookups holds the reference vocabulary every LNRS deployment
// starts with. Ordinals are assigned from 1 in slice order.
var builtInLookups = []builtInLookup{
	{
		table:  "measure_type",
		idCol:  "measure_type_id",
		valCol: "measure_type",
		values: []string{
			"Habitat creation",
			"Habitat management",
			"Species recovery",
			"Access and engagement",
			"Water and wetland",
		},
	},
	{
		table:  "stakeholder",
		idCol:  "stakeholder_id",
		valCol: "stakeholder",
		values: []string{
			"Landowners and farmers",
			"Local authorities",
			"Wildlife trusts",
			"Community groups",
			"Water companies",
		},
	},
	{
		table:  "benefits",
		idCol:  "benefit_id",
		valCol: "benefit",
		values: []string{
			"Carbon storage",
			"Water quality",
			"Flood mitigation",
			"Access to nature",
			"Pollination",
		},
	},
}

// Seed inserts the built-in lookup rows. Seeding is idempotent: a lookup
// table that already holds rows is left untouched.
func Seed(db *sql.DB) error {
	for _, lookup := range builtInLookups {
		var count int
		row := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", lookup.table))
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("counting %s: %w", lookup.table, err)
		}
		if count > 0 {
			continue
		}
		for i, value := range lookup.values {
			_, err := db.Exec(
				fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", lookup.table, lookup.idCol, lookup.valCol),
				i+1, value,
			)
			if err != nil {
				return fmt.Errorf("seeding %s: %w", lookup.table, err)
			}
		}
	}
	return nil
}

// Demo row counts for SeedDemo.
const (
	demoMeasures   = 12
	demoAreas      = 6
	demoPriorities = 8
	demoSpecies    = 10
	demoGrants     = 4
	demoHabitats   = 5
)

// SeedDemo fills the schema with generated demo data: entities first, then
// bridge rows, so every foreign key resolves at insert time. Intended for
// development databases only.
func SeedDemo(db *sql.DB) error {
	if err := Seed(db); err != nil {
		return err
	}

	f := faker.New()

	for i := 1; i <= demoMeasures; i++ {
		_, err := db.Exec(
			`INSERT INTO measure (measure_id, measure, concise_measure, core_supplementary, mapped_unmapped)
             VALUES (?, ?, ?, ?, ?)`,
			i, f.Lorem().Sentence(8), f.Lorem().Sentence(3),
			pick("core", "supplementary"), pick("mapped", "unmapped"),
		)
		if err != nil {
			return fmt.Errorf("seeding measure: %w", err)
		}
	}

	for i := 1; i <= demoAreas; i++ {
		_, err := db.Exec(
			`INSERT INTO area (area_id, area_name, area_description, area_link) VALUES (?, ?, ?, ?)`,
			i, f.Address().City(), f.Lorem().Sentence(10), f.Internet().URL(),
		)
		if err != nil {
			return fmt.Errorf("seeding area: %w", err)
		}
	}

	themes := []string{"Woodland", "Grassland", "Wetland", "Urban"}
	for i := 1; i <= demoPriorities; i++ {
		_, err := db.Exec(
			`INSERT INTO priority (priority_id, biodiversity_priority, simplified_biodiversity_priority, theme)
             VALUES (?, ?, ?, ?)`,
			i, f.Lorem().Sentence(6), f.Lorem().Sentence(3), themes[(i-1)%len(themes)],
		)
		if err != nil {
			return fmt.Errorf("seeding priority: %w", err)
		}
	}

	commonNames := []string{
		"Skylark", "Water vole", "Hazel dormouse", "Great crested newt", "Adder",
		"Barbastelle bat", "Curlew", "Lapwing", "Hedgehog", "Brown hairstreak",
	}
	for i := 1; i <= demoSpecies; i++ {
		_, err := db.Exec(
			`INSERT INTO species (species_id, common_name, linnaean_name, assemblage, taxa)
             VALUES (?, ?, ?, ?, ?)`,
			i, commonNames[i-1], f.Lorem().Word()+" "+f.Lorem().Word(),
			pick("farmland", "woodland", "wetland"), pick("bird", "mammal", "invertebrate", "plant"),
		)
		if err != nil {
			return fmt.Errorf("seeding species: %w", err)
		}
	}

	for i := 1; i <= demoGrants; i++ {
		_, err := db.Exec(
			`INSERT INTO grant_table (grant_id, grant_name, grant_scheme, url) VALUES (?, ?, ?, ?)`,
			fmt.Sprintf("GR%d", i), f.Company().Name()+" grant", pick("CS", "SFI", "ELM"), f.Internet().URL(),
		)
		if err != nil {
			return fmt.Errorf("seeding grant_table: %w", err)
		}
	}

	habitats := []string{"Broadleaved woodland", "Species-rich grassland", "Reedbed", "Heathland", "Traditional orchard"}
	for i := 1; i <= demoHabitats; i++ {
		_, err := db.Exec(`INSERT INTO habitat (habitat_id, habitat) VALUES (?, ?)`, i, habitats[i-1])
		if err != nil {
			return fmt.Errorf("seeding habitat: %w", err)
		}
	}

	return seedDemoBridges(db)
}

// seedDemoBridges links the demo entities. Bridge rows are derived from the
// entity ids deterministically so the result is valid regardless of the
// generated field values.
func seedDemoBridges(db *sql.DB) error {
	type bridgeRow struct {
		sql  string
		args []any
	}
	var rows []bridgeRow

	for m := 1; m <= demoMeasures; m++ {
		rows = append(rows,
			bridgeRow{`INSERT INTO measure_has_type (measure_id, measure_type_id) VALUES (?, ?)`, []any{m, m%5 + 1}},
			bridgeRow{`INSERT INTO measure_has_stakeholder (measure_id, stakeholder_id) VALUES (?, ?)`, []any{m, m%5 + 1}},
			bridgeRow{`INSERT INTO measure_has_benefits (measure_id, benefit_id) VALUES (?, ?)`, []any{m, m%5 + 1}},
		)
		if m <= demoSpecies {
			rows = append(rows, bridgeRow{`INSERT INTO measure_has_species (measure_id, species_id) VALUES (?, ?)`, []any{m, m}})
		}

		area := m%demoAreas + 1
		priority := m%demoPriorities + 1
		rows = append(rows, bridgeRow{
			`INSERT INTO measure_area_priority (measure_id, area_id, priority_id) VALUES (?, ?, ?)`,
			[]any{m, area, priority},
		})
		if m <= demoGrants {
			rows = append(rows, bridgeRow{
				`INSERT INTO measure_area_priority_grant (measure_id, area_id, priority_id, grant_id) VALUES (?, ?, ?, ?)`,
				[]any{m, area, priority, fmt.Sprintf("GR%d", m)},
			})
		}
	}

	for s := 1; s <= demoSpecies; s++ {
		rows = append(rows, bridgeRow{
			`INSERT INTO species_area_priority (species_id, area_id, priority_id) VALUES (?, ?, ?)`,
			[]any{s, s%demoAreas + 1, s%demoPriorities + 1},
		})
	}

	for a := 1; a <= demoAreas; a++ {
		rows = append(rows, bridgeRow{
			`INSERT INTO area_funding_schemes (id, area_id, area_name, local_funding_schemes) VALUES (?, ?, ?, ?)`,
			[]any{a, a, fmt.Sprintf("Area %d", a), "Countryside Stewardship"},
		})
	}

	for h := 1; h <= demoHabitats; h++ {
		rows = append(rows,
			bridgeRow{`INSERT INTO habitat_creation_area (habitat_id, area_id) VALUES (?, ?)`, []any{h, h%demoAreas + 1}},
			bridgeRow{`INSERT INTO habitat_management_area (habitat_id, area_id) VALUES (?, ?)`, []any{h, (h+1)%demoAreas + 1}},
		)
	}

	for _, r := range rows {
		if _, err := db.Exec(r.sql, r.args...); err != nil {
			return fmt.Errorf("seeding bridge rows: %w", err)
		}
	}
	return nil
}

// pick returns one of the given values at random.
func pick(values ...string) string {
	return values[rand.Intn(len(values))]
}
