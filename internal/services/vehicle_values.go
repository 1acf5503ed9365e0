package services

import (
	"github.com/homeauto/mercedesme-api/internal/constants"
	"github.com/tidwall/gjson"
)

// snapshotGroups drives snapshot assembly: the order groups are fetched and
// mapped, which capability gates each one, and which attribute names are
// accepted. Location is the only group served by its own endpoint.
var snapshotGroups = []struct {
	name GroupName
	spec groupSpec
}{
	{GroupOdometer, groupSpec{options: constants.OdometerOptions}},
	{GroupTires, groupSpec{options: constants.TireOptions}},
	{GroupDoors, groupSpec{options: constants.DoorOptions}},
	{GroupWindows, groupSpec{options: constants.WindowOptions}},
	{GroupBinarySensors, groupSpec{options: constants.BinarySensorOptions}},
	{GroupElectric, groupSpec{feature: constants.FeatureChargingClimaControl, options: constants.ElectricOptions}},
	{GroupPrecond, groupSpec{feature: constants.FeatureChargingClimaControl, options: constants.PrecondOptions}},
	{GroupAuxHeat, groupSpec{feature: constants.FeatureAuxHeat, options: constants.AuxHeatOptions}},
	{GroupRemoteStart, groupSpec{feature: constants.FeatureRemoteEngineStart, options: constants.RemoteStartOptions}},
	{GroupLocation, groupSpec{feature: constants.FeatureVehicleLocator, options: constants.LocationOptions}},
}

// mapGroupValues extracts the named attributes from a vendor document.
// Attributes the document does not carry become soft misses; attributes it
// does carry keep the backend's value and status. Object entries without
// their own timestamp inherit the document-level vtime.
func mapGroupValues(doc []byte, options []string) Group {
	vtime := gjson.GetBytes(doc, "vtime")
	group := make(Group, len(options))
	for _, name := range options {
		group[name] = attributeFromEntry(gjson.GetBytes(doc, name), vtime)
	}
	return group
}

func attributeFromEntry(entry, vtime gjson.Result) Attribute {
	if !entry.Exists() {
		return softMissAttribute()
	}
	if entry.IsObject() {
		attr := Attribute{
			Value:  entry.Get("value").Value(),
			Status: entry.Get("status").Value(),
		}
		ts := entry.Get("ts")
		if !ts.Exists() {
			ts = vtime
		}
		if ts.Exists() {
			v := ts.Int()
			attr.Timestamp = &v
		}
		return attr
	}
	// The location endpoint reports flat scalars with no per-attribute status.
	attr := Attribute{Value: entry.Value(), Status: "VALID"}
	if vtime.Exists() {
		v := vtime.Int()
		attr.Timestamp = &v
	}
	return attr
}

// hardMissGroup marks every attribute of a group as unretrievable. Used when
// the fetch for the group's document failed outright.
func hardMissGroup(options []string) Group {
	group := make(Group, len(options))
	for _, name := range options {
		group[name] = hardMissAttribute()
	}
	return group
}

// applyTireWarning mirrors the configured tire pressure warning attribute
// into the binary sensor group under the stable name "tirewarning". Some
// model years report the lamp under a different field, hence the override.
func applyTireWarning(snapshot *Snapshot, field string) {
	if field == "" {
		field = constants.DefaultTireWarningField
	}
	tires, ok := snapshot.Groups[GroupTires]
	if !ok {
		return
	}
	sensors, ok := snapshot.Groups[GroupBinarySensors]
	if !ok {
		return
	}
	attr, ok := tires[field]
	if !ok {
		attr = softMissAttribute()
	}
	sensors["tirewarning"] = attr
}
