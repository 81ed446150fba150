package cascade

import "github.com/stevecrawshaw/lnrsdb/pkg/types"

// foreignKey is one FK edge: From holds Columns referencing To.
type foreignKey struct {
	From    string
	To      string
	Columns []string
}

// tableForeignKeys mirrors the schema's FK constraints. Order validation
// and mode classification both derive from this list, so a schema change
// lands here and nowhere else.
var tableForeignKeys = []foreignKey{
	{From: types.MeasureHasTypeTable, To: types.MeasureTable, Columns: []string{"measure_id"}},
	{From: types.MeasureHasTypeTable, To: types.MeasureTypeTable, Columns: []string{"measure_type_id"}},
	{From: types.MeasureHasStakeholderTable, To: types.MeasureTable, Columns: []string{"measure_id"}},
	{From: types.MeasureHasStakeholderTable, To: types.StakeholderTable, Columns: []string{"stakeholder_id"}},
	{From: types.MeasureHasBenefitsTable, To: types.MeasureTable, Columns: []string{"measure_id"}},
	{From: types.MeasureHasBenefitsTable, To: types.BenefitsTable, Columns: []string{"benefit_id"}},
	{From: types.MeasureHasSpeciesTable, To: types.MeasureTable, Columns: []string{"measure_id"}},
	{From: types.MeasureHasSpeciesTable, To: types.SpeciesTable, Columns: []string{"species_id"}},
	{From: types.MeasureAreaPriorityTable, To: types.MeasureTable, Columns: []string{"measure_id"}},
	{From: types.MeasureAreaPriorityTable, To: types.AreaTable, Columns: []string{"area_id"}},
	{From: types.MeasureAreaPriorityTable, To: types.PriorityTable, Columns: []string{"priority_id"}},
	{From: types.MAPGrantTable, To: types.MeasureAreaPriorityTable, Columns: []string{"measure_id", "area_id", "priority_id"}},
	{From: types.MAPGrantTable, To: types.GrantTable, Columns: []string{"grant_id"}},
	{From: types.SpeciesAreaPriorityTable, To: types.SpeciesTable, Columns: []string{"species_id"}},
	{From: types.SpeciesAreaPriorityTable, To: types.AreaTable, Columns: []string{"area_id"}},
	{From: types.SpeciesAreaPriorityTable, To: types.PriorityTable, Columns: []string{"priority_id"}},
	{From: types.AreaFundingSchemesTable, To: types.AreaTable, Columns: []string{"area_id"}},
	{From: types.HabitatCreationAreaTable, To: types.HabitatTable, Columns: []string{"habitat_id"}},
	{From: types.HabitatCreationAreaTable, To: types.AreaTable, Columns: []string{"area_id"}},
	{From: types.HabitatManagementAreaTable, To: types.HabitatTable, Columns: []string{"habitat_id"}},
	{From: types.HabitatManagementAreaTable, To: types.AreaTable, Columns: []string{"area_id"}},
}

// Dependent is one table holding rows bound to an entity's root key.
type Dependent struct {
	Table  string
	Column string
}

// entityDecl declares an entity's root table, key column, and dependent
// tables in delete order: leaves first, so the root row goes last.
type entityDecl struct {
	entity     string
	root       string
	keyColumn  string
	dependents []Dependent
}

var entityDecls = []entityDecl{
	{
		entity:    types.EntityMeasure,
		root:      types.MeasureTable,
		keyColumn: "measure_id",
		dependents: []Dependent{
			{Table: types.MeasureHasTypeTable, Column: "measure_id"},
			{Table: types.MeasureHasStakeholderTable, Column: "measure_id"},
			{Table: types.MAPGrantTable, Column: "measure_id"},
			{Table: types.MeasureAreaPriorityTable, Column: "measure_id"},
			{Table: types.MeasureHasBenefitsTable, Column: "measure_id"},
			{Table: types.MeasureHasSpeciesTable, Column: "measure_id"},
		},
	},
	{
		entity:    types.EntityArea,
		root:      types.AreaTable,
		keyColumn: "area_id",
		dependents: []Dependent{
			{Table: types.MAPGrantTable, Column: "area_id"},
			{Table: types.MeasureAreaPriorityTable, Column: "area_id"},
			{Table: types.SpeciesAreaPriorityTable, Column: "area_id"},
			{Table: types.AreaFundingSchemesTable, Column: "area_id"},
			{Table: types.HabitatCreationAreaTable, Column: "area_id"},
			{Table: types.HabitatManagementAreaTable, Column: "area_id"},
		},
	},
	{
		entity:    types.EntityPriority,
		root:      types.PriorityTable,
		keyColumn: "priority_id",
		dependents: []Dependent{
			{Table: types.MAPGrantTable, Column: "priority_id"},
			{Table: types.MeasureAreaPriorityTable, Column: "priority_id"},
			{Table: types.SpeciesAreaPriorityTable, Column: "priority_id"},
		},
	},
	{
		entity:    types.EntitySpecies,
		root:      types.SpeciesTable,
		keyColumn: "species_id",
		dependents: []Dependent{
			{Table: types.SpeciesAreaPriorityTable, Column: "species_id"},
			{Table: types.MeasureHasSpeciesTable, Column: "species_id"},
		},
	},
	{
		entity:    types.EntityGrant,
		root:      types.GrantTable,
		keyColumn: "grant_id",
		dependents: []Dependent{
			{Table: types.MAPGrantTable, Column: "grant_id"},
		},
	},
	{
		entity:    types.EntityHabitat,
		root:      types.HabitatTable,
		keyColumn: "habitat_id",
		dependents: []Dependent{
			{Table: types.HabitatCreationAreaTable, Column: "habitat_id"},
			{Table: types.HabitatManagementAreaTable, Column: "habitat_id"},
		},
	},
	{
		entity:    types.EntityMeasureType,
		root:      types.MeasureTypeTable,
		keyColumn: "measure_type_id",
		dependents: []Dependent{
			{Table: types.MeasureHasTypeTable, Column: "measure_type_id"},
		},
	},
	{
		entity:    types.EntityStakeholder,
		root:      types.StakeholderTable,
		keyColumn: "stakeholder_id",
		dependents: []Dependent{
			{Table: types.MeasureHasStakeholderTable, Column: "stakeholder_id"},
		},
	},
	{
		entity:    types.EntityBenefit,
		root:      types.BenefitsTable,
		keyColumn: "benefit_id",
		dependents: []Dependent{
			{Table: types.MeasureHasBenefitsTable, Column: "benefit_id"},
		},
	},
}
