package constants

// Vendor endpoint naming. The vehicle (VHS) API serves telemetry and commands,
// the user (BFF) API serves account data and per-vehicle feature enablements.
const (
	LoginBaseURL = "https://login.secure.mercedes-benz.com"
	OAuthBaseURL = "https://api.secure.mercedes-benz.com/oidc10/auth/oauth/v2"

	OAuthClientID    = "4390b0db-4be9-40e9-9147-5845df537beb"
	OAuthScope       = "mma:backend:all openid ciam-uid profile email"
	OAuthAPIID       = "MCMAPP.FE_PROD"
	OAuthRedirectURI = "https://cgw.meapp.secure.mercedes-benz.com/endpoint/api/v1/redirect"

	AppUserAgent     = "MercedesMe/2.15.1+753 (Android 6.0)"
	AndroidUserAgent = "Mozilla/5.0 (Linux; Android 5.1; Google Nexus 5 Build/LMY47D) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/39.0.0.0 Mobile Safari/537.36"
)

// VehicleAPIBaseURL returns the VHS endpoint for the given region suffix.
func VehicleAPIBaseURL(region string) string {
	return "https://vhs.meapp" + region + ".secure.mercedes-benz.com/api/v1/vehicles"
}

// UserAPIBaseURL returns the BFF endpoint for the given region suffix.
func UserAPIBaseURL(region string) string {
	return "https://bff.meapp" + region + ".secure.mercedes-benz.com"
}

// RegionSuffix maps an ISO country code onto the vendor's regional deployment.
// Only North America is split out; everything else shares the EU deployment.
func RegionSuffix(countryCode string) string {
	if countryCode == "US" {
		return "-an"
	}
	return ""
}

// FeatureEnablementActivated is the sentinel the dashboard endpoint reports
// for a capability that is enabled on a vehicle. Anything else means disabled.
const FeatureEnablementActivated = "ACTIVATED"

// Per-vehicle capability flags, lower-cased the way the feature endpoint
// reports them.
const (
	FeatureVehicleLocator       = "vehicle_locator"
	FeatureChargingClimaControl = "charging_clima_control"
	FeatureAuxHeat              = "aux_heat"
	FeatureRemoteEngineStart    = "remote_engine_start"
	FeatureRemoteDoorLock       = "remote_door_lock"
)

// Command endpoint paths, relative to the per-vehicle VHS base.
const (
	CommandPathDoorsLock      = "doors/lock"
	CommandPathDoorsUnlock    = "doors/unlock"
	CommandPathAuxHeatStart   = "auxheat/start"
	CommandPathAuxHeatStop    = "auxheat/stop"
	CommandPathPrecondStart   = "precond/start"
	CommandPathPrecondStop    = "precondAtDeparture/disable"
	CommandPathRemoteStartOn  = "remoteengine/start"
	CommandPathRemoteStartOff = "remoteengine/stop"
)

// Command response statuses reported in the top-level status field.
const (
	CommandStatusPending = "PENDING"
	CommandStatusSuccess = "SUCCESS"
)

// DefaultTireWarningField is the binary-sensor attribute used as the tire
// warning indicator unless a per-vehicle override is configured.
const DefaultTireWarningField = "tirewarninglamp"

// Attribute names per group. These are the only names accepted from the
// dynamic status document; unknown keys in a response are ignored.
var (
	OdometerOptions = []string{
		"odo",
		"distanceReset",
		"distanceStart",
		"averageSpeedReset",
		"averageSpeedStart",
		"distanceZEReset",
		"drivenTimeZEReset",
		"drivenTimeReset",
		"drivenTimeStart",
		"ecoscoretotal",
		"ecoscorefreewhl",
		"ecoscorebonusrange",
		"ecoscoreconst",
		"ecoscoreaccel",
		"gasconsumptionstart",
		"gasconsumptionreset",
		"gasTankRange",
		"gasTankLevel",
		"liquidconsumptionstart",
		"liquidconsumptionreset",
		"liquidRangeSkipIndication",
		"rangeliquid",
		"serviceintervaldays",
		"tanklevelpercent",
		"tankReserveLamp",
		"batteryState",
	}

	LocationOptions = []string{
		"latitude",
		"longitude",
		"heading",
	}

	TireOptions = []string{
		"tirepressureRearLeft",
		"tirepressureRearRight",
		"tirepressureFrontRight",
		"tirepressureFrontLeft",
		"tirewarninglamp",
		"tirewarningsrdk",
		"tirewarningsprw",
		"tireMarkerFrontRight",
		"tireMarkerFrontLeft",
		"tireMarkerRearLeft",
		"tireMarkerRearRight",
		"tireWarningRollup",
		"lastTirepressureTimestamp",
	}

	WindowOptions = []string{
		"windowstatusrearleft",
		"windowstatusrearright",
		"windowstatusfrontright",
		"windowstatusfrontleft",
		"windowsClosed",
	}

	DoorOptions = []string{
		"doorStateFrontLeft",
		"doorStateFrontRight",
		"doorStateRearLeft",
		"doorStateRearRight",
		"frontLeftDoorLocked",
		"frontRightDoorLocked",
		"rearLeftDoorLocked",
		"rearRightDoorLocked",
		"frontLeftDoorClosed",
		"frontRightDoorClosed",
		"rearLeftDoorClosed",
		"rearRightDoorClosed",
		"doorsClosed",
		"trunkStateRollup",
		"sunroofstatus",
		"locked",
		"fuelLidClosed",
	}

	ElectricOptions = []string{
		"rangeelectric",
		"rangeElectricKm",
		"criticalStateOfSoc",
		"maxrange",
		"stateOfChargeElectricPercent",
		"endofchargetime",
		"criticalStateOfDeparturetimesoc",
		"warninglowbattery",
		"electricconsumptionreset",
		"maxStateOfChargeElectricPercent",
		"supplybatteryvoltage",
		"electricChargingStatus",
		"chargingstatus",
		"soc",
		"showChargingErrorAndDemand",
		"electricconsumptionstart",
	}

	BinarySensorOptions = []string{
		"warningwashwater",
		"warningenginelight",
		"warningbrakefluid",
		"warningcoolantlevellow",
		"parkbrakestatus",
		"readingLampFrontRight",
		"readingLampFrontLeft",
		"preWarningBrakeLiningWear",
	}

	AuxHeatOptions = []string{
		"auxheatActive",
		"auxheatwarnings",
		"auxheatruntime",
		"auxheatstatus",
		"auxheatwarningsPush",
		"auxheattimeselection",
		"auxheattime1",
		"auxheattime2",
		"auxheattime3",
	}

	PrecondOptions = []string{
		"preconditionState",
		"precondimmediate",
	}

	RemoteStartOptions = []string{
		"remoteEngine",
		"remoteStartEndtime",
		"remoteStartTemperature",
	}
)
