// Package schema carries the LNRS relational schema and its seed data. The
// lifecycle core never reads this package; it exists so `lnrsdb init` and
// the test suite can stand up a real database with the same foreign-key
// graph the cascade declarations describe.
package schema

import (
	"database/sql"
	"fmt"
)

// Entity and lookup table DDL.
const (
	createMeasure = `CREATE TABLE measure (
    measure_id INTEGER PRIMARY KEY,
    measure TEXT NOT NULL,
    concise_measure TEXT,
    core_supplementary TEXT,
    mapped_unmapped TEXT
);`

	createArea = `CREATE TABLE area (
    area_id INTEGER PRIMARY KEY,
    area_name TEXT NOT NULL,
    area_description TEXT,
    area_link TEXT
);`

	createPriority = `CREATE TABLE priority (
    priority_id INTEGER PRIMARY KEY,
    biodiversity_priority TEXT NOT NULL,
    simplified_biodiversity_priority TEXT,
    theme TEXT
);`

	createSpecies = `CREATE TABLE species (
    species_id INTEGER PRIMARY KEY,
    common_name TEXT,
    linnaean_name TEXT,
    assemblage TEXT,
    taxa TEXT
);`

	createGrantTable = `CREATE TABLE grant_table (
    grant_id TEXT PRIMARY KEY,
    grant_name TEXT NOT NULL,
    grant_scheme TEXT,
    url TEXT
);`

	createHabitat = `CREATE TABLE habitat (
    habitat_id INTEGER PRIMARY KEY,
    habitat TEXT NOT NULL
);`

	createMeasureType = `CREATE TABLE measure_type (
    measure_type_id INTEGER PRIMARY KEY,
    measure_type TEXT NOT NULL
);`

	createStakeholder = `CREATE TABLE stakeholder (
    stakeholder_id INTEGER PRIMARY KEY,
    stakeholder TEXT NOT NULL
);`

	createBenefits = `CREATE TABLE benefits (
    benefit_id INTEGER PRIMARY KEY,
    benefit TEXT NOT NULL
);`
)

// Bridge table DDL. measure_area_priority_grant carries the composite
// foreign key into measure_area_priority that forces the sequential
// cascade classification for measure, area, and priority.
const (
	createMeasureHasType = `CREATE TABLE measure_has_type (
    measure_id INTEGER NOT NULL,
    measure_type_id INTEGER NOT NULL,
    PRIMARY KEY (measure_id, measure_type_id),
    FOREIGN KEY (measure_id) REFERENCES measure(measure_id),
    FOREIGN KEY (measure_type_id) REFERENCES measure_type(measure_type_id)
);`

	createMeasureHasStakeholder = `CREATE TABLE measure_has_stakeholder (
    measure_id INTEGER NOT NULL,
    stakeholder_id INTEGER NOT NULL,
    PRIMARY KEY (measure_id, stakeholder_id),
    FOREIGN KEY (measure_id) REFERENCES measure(measure_id),
    FOREIGN KEY (stakeholder_id) REFERENCES stakeholder(stakeholder_id)
);`

	createMeasureHasBenefits = `CREATE TABLE measure_has_benefits (
    measure_id INTEGER NOT NULL,
    benefit_id INTEGER NOT NULL,
    PRIMARY KEY (measure_id, benefit_id),
    FOREIGN KEY (measure_id) REFERENCES measure(measure_id),
    FOREIGN KEY (benefit_id) REFERENCES benefits(benefit_id)
);`

	createMeasureHasSpecies = `CREATE TABLE measure_has_species (
    measure_id INTEGER NOT NULL,
    species_id INTEGER NOT NULL,
    PRIMARY KEY (measure_id, species_id),
    FOREIGN KEY (measure_id) REFERENCES measure(measure_id),
    FOREIGN KEY (species_id) REFERENCES species(species_id)
);`

	createMeasureAreaPriority = `CREATE TABLE measure_area_priority (
    measure_id INTEGER NOT NULL,
    area_id INTEGER NOT NULL,
    priority_id INTEGER NOT NULL,
    PRIMARY KEY (measure_id, area_id, priority_id),
    FOREIGN KEY (measure_id) REFERENCES measure(measure_id),
    FOREIGN KEY (area_id) REFERENCES area(area_id),
    FOREIGN KEY (priority_id) REFERENCES priority(priority_id)
);`

	createMAPGrant = `CREATE TABLE measure_area_priority_grant (
    measure_id INTEGER NOT NULL,
    area_id INTEGER NOT NULL,
    priority_id INTEGER NOT NULL,
    grant_id TEXT NOT NULL,
    PRIMARY KEY (measure_id, area_id, priority_id, grant_id),
    FOREIGN KEY (measure_id, area_id, priority_id)
        REFERENCES measure_area_priority(measure_id, area_id, priority_id),
    FOREIGN KEY (grant_id) REFERENCES grant_table(grant_id)
);`

	createSpeciesAreaPriority = `CREATE TABLE species_area_priority (
    species_id INTEGER NOT NULL,
    area_id INTEGER NOT NULL,
    priority_id INTEGER NOT NULL,
    PRIMARY KEY (species_id, area_id, priority_id),
    FOREIGN KEY (species_id) REFERENCES species(species_id),
    FOREIGN KEY (area_id) REFERENCES area(area_id),
    FOREIGN KEY (priority_id) REFERENCES priority(priority_id)
);`

	createAreaFundingSchemes = `CREATE TABLE area_funding_schemes (
    id INTEGER PRIMARY KEY,
    area_id INTEGER NOT NULL,
    area_name TEXT,
    local_funding_schemes TEXT,
    FOREIGN KEY (area_id) REFERENCES area(area_id)
);`

	createHabitatCreationArea = `CREATE TABLE habitat_creation_area (
    habitat_id INTEGER NOT NULL,
    area_id INTEGER NOT NULL,
    PRIMARY KEY (habitat_id, area_id),
    FOREIGN KEY (habitat_id) REFERENCES habitat(habitat_id),
    FOREIGN KEY (area_id) REFERENCES area(area_id)
);`

	createHabitatManagementArea = `CREATE TABLE habitat_management_area (
    habitat_id INTEGER NOT NULL,
    area_id INTEGER NOT NULL,
    PRIMARY KEY (habitat_id, area_id),
    FOREIGN KEY (habitat_id) REFERENCES habitat(habitat_id),
    FOREIGN KEY (area_id) REFERENCES area(area_id)
);`
)

// Index DDL for the lookups the application layer runs most.
const (
	idxMAPMeasure  = `CREATE INDEX idx_map_measure ON measure_area_priority(measure_id);`
	idxMAPArea     = `CREATE INDEX idx_map_area ON measure_area_priority(area_id);`
	idxMAPPriority = `CREATE INDEX idx_map_priority ON measure_area_priority(priority_id);`
	idxMAPGGrant   = `CREATE INDEX idx_mapg_grant ON measure_area_priority_grant(grant_id);`
	idxSAPSpecies  = `CREATE INDEX idx_sap_species ON species_area_priority(species_id);`
	idxSAPArea     = `CREATE INDEX idx_sap_area ON species_area_priority(area_id);`
	idxAFSArea     = `CREATE INDEX idx_afs_area ON area_funding_schemes(area_id);`
	idxHCAArea     = `CREATE INDEX idx_hca_area ON habitat_creation_area(area_id);`
	idxHMAArea     = `CREATE INDEX idx_hma_area ON habitat_management_area(area_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order:
// referenced tables before the bridges that reference them.
var schemaDDL = []string{
	createMeasure,
	createArea,
	createPriority,
	createSpecies,
	createGrantTable,
	createHabitat,
	createMeasureType,
	createStakeholder,
	createBenefits,
	createMeasureHasType,
	createMeasureHasStakeholder,
	createMeasureHasBenefits,
	createMeasureHasSpecies,
	createMeasureAreaPriority,
	createMAPGrant,
	createSpeciesAreaPriority,
	createAreaFundingSchemes,
	createHabitatCreationArea,
	createHabitatManagementArea,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxMAPMeasure,
	idxMAPArea,
	idxMAPPriority,
	idxMAPGGrant,
	idxSAPSpecies,
	idxSAPArea,
	idxAFSArea,
	idxHCAArea,
	idxHMAArea,
}

// Create executes the full schema DDL against db. The database must be
// empty; Create does not drop or migrate existing tables.
func Create(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating indexes: %w", err)
		}
	}
	return nil
}
