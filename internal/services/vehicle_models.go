package services

import (
	"time"
)

// GroupName identifies one attribute group within a vehicle snapshot.
type GroupName string

const (
	GroupOdometer      GroupName = "odometer"
	GroupTires         GroupName = "tires"
	GroupDoors         GroupName = "doors"
	GroupWindows       GroupName = "windows"
	GroupElectric      GroupName = "electric"
	GroupBinarySensors GroupName = "binarysensors"
	GroupAuxHeat       GroupName = "auxheat"
	GroupPrecond       GroupName = "precond"
	GroupRemoteStart   GroupName = "remotestart"
	GroupLocation      GroupName = "location"
)

// Attribute is a single vehicle-reported datum together with the retrieval
// status the backend attached to it. Status is advisory: consumers must not
// use Value unless the status says VALID. Both Value and Status keep the
// backend's own typing (strings for delivered attributes, numeric sentinels
// for misses), so they stay any.
type Attribute struct {
	Value     any    `json:"value"`
	Status    any    `json:"status"`
	Timestamp *int64 `json:"ts,omitempty"`
}

// softMissAttribute marks an attribute the backend did not include in an
// otherwise successful document. Distinct from hardMissAttribute so consumers
// can tell "vehicle doesn't report this" from "we failed to ask".
func softMissAttribute() Attribute {
	ts := int64(0)
	return Attribute{Value: 0, Status: 4, Timestamp: &ts}
}

// hardMissAttribute marks an attribute whose entire group fetch failed. The
// timestamp is deliberately absent.
func hardMissAttribute() Attribute {
	return Attribute{Value: -1, Status: -1}
}

// Group maps attribute names onto their current values. Only names from the
// per-group option lists in the constants package ever appear as keys.
type Group map[string]Attribute

// Snapshot is the complete set of attribute groups known for one vehicle at a
// point in time. Snapshots are immutable once published; an update builds a
// new one and swaps the pointer.
type Snapshot struct {
	Groups  map[GroupName]Group `json:"groups"`
	Updated time.Time           `json:"updated"`
}

// FeatureSet holds the per-vehicle capability flags fetched once at
// registration. Lookups of unknown capabilities default to false.
type FeatureSet map[string]bool

// Enabled reports whether the named capability was activated for the vehicle.
func (f FeatureSet) Enabled(name string) bool {
	return f[name]
}

// Vehicle is one car on the authenticated account.
type Vehicle struct {
	FIN          string     `json:"fin"`
	LicensePlate string     `json:"licensePlate"`
	Title        string     `json:"vehicleTitle,omitempty"`
	Features     FeatureSet `json:"features"`

	snapshot *Snapshot
}

// DisplayName is the license plate, falling back to the FIN when the account
// has no plate recorded.
func (v *Vehicle) DisplayName() string {
	if v.LicensePlate != "" {
		return v.LicensePlate
	}
	return v.FIN
}

// groupSpec drives the generic fetch loop: which attribute names belong to a
// group and which capability flag, if any, gates fetching it.
type groupSpec struct {
	feature string // empty means always fetched
	options []string
}
