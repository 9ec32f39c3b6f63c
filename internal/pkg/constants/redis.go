package constants

// Redis key layout
const (
	// KeyDriverGeo is the geo set of available driver positions
	KeyDriverGeo = "drivers:geo"

	// KeyAvailableDrivers is the set of driver IDs currently matchable
	KeyAvailableDrivers = "drivers:available"

	// KeyDriverLocation is the hash holding a driver's last known position
	KeyDriverLocation = "driver:location:%s"
)

// Redis hash field names
const (
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldTimestamp = "timestamp"
)
