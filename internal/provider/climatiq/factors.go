package climatiq

import "github.com/derickschaefer/ecowise/internal/model"

// Factor is the emission-factor selector sent with each estimate.
type Factor struct {
	ActivityID string `json:"activity_id"`
	Source     string `json:"source"`
	Region     string `json:"region"`
	Year       string `json:"year"`
}

// FactorTable maps each activity kind to its emission factor. It is fixed at
// construction and read-only afterwards.
type FactorTable struct {
	entries map[model.ActivityKind]Factor
}

// NewFactorTable builds a table from entries. The map is copied.
func NewFactorTable(entries map[model.ActivityKind]Factor) FactorTable {
	m := make(map[model.ActivityKind]Factor, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return FactorTable{entries: m}
}

// Lookup returns the factor for kind and the zero Factor if none is set.
func (t *FactorTable) Lookup(kind model.ActivityKind) Factor {
	return t.entries[kind]
}

// DefaultFactors covers every model.ActivityKinds entry.
var DefaultFactors = NewFactorTable(map[model.ActivityKind]Factor{
	model.ActivityCarTransport: {
		ActivityID: "passenger_vehicle-vehicle_type_car-fuel_source_na-engine_size_na-vehicle_age_na-vehicle_weight_na",
		Source:     "BEIS",
		Region:     "GB",
		Year:       "2023",
	},
	model.ActivityBusTransport: {
		ActivityID: "passenger_vehicle-vehicle_type_bus-fuel_source_na-engine_size_na-vehicle_age_na-vehicle_weight_na",
		Source:     "BEIS",
		Region:     "GB",
		Year:       "2023",
	},
	model.ActivityMeatDiet: {
		ActivityID: "consumer_goods-type_meat_products",
		Source:     "EXIOBASE",
		Region:     "GB",
		Year:       "2023",
	},
	model.ActivityGridElectricity: {
		ActivityID: "electricity-supply_grid-source_grid_mix",
		Source:     "BEIS",
		Region:     "GB",
		Year:       "2023",
	},
})

// parameterSlot names the request parameter that carries each unit.
var parameterSlot = map[model.Unit]string{
	model.UnitKm:  "distance",
	model.UnitKg:  "weight",
	model.UnitKWh: "energy",
}
