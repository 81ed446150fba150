package types

// Core entity and lookup table names.
const (
	MeasureTable     = "measure"
	AreaTable        = "area"
	PriorityTable    = "priority"
	SpeciesTable     = "species"
	GrantTable       = "grant_table"
	HabitatTable     = "habitat"
	MeasureTypeTable = "measure_type"
	StakeholderTable = "stakeholder"
	BenefitsTable    = "benefits"
)

// Bridge (many-to-many link) table names.
const (
	MeasureHasTypeTable        = "measure_has_type"
	MeasureHasStakeholderTable = "measure_has_stakeholder"
	MeasureHasBenefitsTable    = "measure_has_benefits"
	MeasureHasSpeciesTable     = "measure_has_species"
	MeasureAreaPriorityTable   = "measure_area_priority"
	MAPGrantTable              = "measure_area_priority_grant"
	SpeciesAreaPriorityTable   = "species_area_priority"
	AreaFundingSchemesTable    = "area_funding_schemes"
	HabitatCreationAreaTable   = "habitat_creation_area"
	HabitatManagementAreaTable = "habitat_management_area"
)

// CoreTableNames lists the entity and lookup tables for enumeration
// (status reporting, restore round-trip checks).
var CoreTableNames = []string{
	MeasureTable,
	AreaTable,
	PriorityTable,
	SpeciesTable,
	GrantTable,
	HabitatTable,
	MeasureTypeTable,
	StakeholderTable,
	BenefitsTable,
}

// BridgeTableNames lists the many-to-many link tables.
var BridgeTableNames = []string{
	MeasureHasTypeTable,
	MeasureHasStakeholderTable,
	MeasureHasBenefitsTable,
	MeasureHasSpeciesTable,
	MeasureAreaPriorityTable,
	MAPGrantTable,
	SpeciesAreaPriorityTable,
	AreaFundingSchemesTable,
	HabitatCreationAreaTable,
	HabitatManagementAreaTable,
}

// AllTableNames lists every table in schema order (referenced tables first).
var AllTableNames = append(append([]string{}, CoreTableNames...), BridgeTableNames...)
