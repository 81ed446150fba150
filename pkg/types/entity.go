package types

// Entity type tags accepted by the cascade planner. Each tag selects one
// entry of the static dependency graph.
const (
	EntityMeasure     = "measure"
	EntityArea        = "area"
	EntityPriority    = "priority"
	EntitySpecies     = "species"
	EntityGrant       = "grant"
	EntityHabitat     = "habitat"
	EntityMeasureType = "measure_type"
	EntityStakeholder = "stakeholder"
	EntityBenefit     = "benefit"
)

// KnownEntities lists every entity type with a cascade declaration.
var KnownEntities = []string{
	EntityMeasure,
	EntityArea,
	EntityPriority,
	EntitySpecies,
	EntityGrant,
	EntityHabitat,
	EntityMeasureType,
	EntityStakeholder,
	EntityBenefit,
}

// Measure is the central LNRS entity: one nature-recovery measure with its
// descriptive fields. Link-table memberships are managed separately.
type Measure struct {
	MeasureID         int    `json:"measure_id"`
	Measure           string `json:"measure"`
	ConciseMeasure    string `json:"concise_measure"`
	CoreSupplementary string `json:"core_supplementary"`
	MappedUnmapped    string `json:"mapped_unmapped"`
}
