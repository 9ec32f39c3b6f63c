// Package errs defines the sentinel errors shared across services. Handlers
// map these to transport status codes with errors.Is rather than string
// comparison.
package errs

import "errors"

var (
	// ErrInvalidLocation indicates coordinates outside valid lat/lng ranges
	// or a malformed location payload.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNotRegistered indicates an actor sent a message before joining.
	ErrNotRegistered = errors.New("actor not registered")

	// ErrInvalidVehicleClass indicates an unknown vehicle class.
	ErrInvalidVehicleClass = errors.New("invalid vehicle class")

	// ErrGeocodeFailed indicates the pickup or destination address could not
	// be resolved to coordinates.
	ErrGeocodeFailed = errors.New("failed to geocode address")

	// ErrFareUnavailable indicates the fare could not be computed.
	ErrFareUnavailable = errors.New("fare unavailable")

	// ErrRideNotFound indicates the ride does not exist.
	ErrRideNotFound = errors.New("ride not found")

	// ErrRideAlreadyAccepted indicates another driver won the ride.
	ErrRideAlreadyAccepted = errors.New("ride already accepted")

	// ErrDriverUnavailable indicates the accepting driver is not registered
	// as an available driver.
	ErrDriverUnavailable = errors.New("driver unavailable")

	// ErrInvalidOTP indicates the start-ride OTP did not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrWrongState indicates the ride is not in a state that permits the
	// requested transition.
	ErrWrongState = errors.New("ride is not in a valid state for this operation")

	// ErrFareMismatch indicates a payment amount that does not match the
	// quoted fare.
	ErrFareMismatch = errors.New("payment amount does not match fare")
)

// Kind buckets an error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnavailable
)

// KindOf classifies a sentinel error into its transport bucket.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrInvalidVehicleClass),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrFareMismatch),
		errors.Is(err, ErrNotRegistered):
		return KindValidation
	case errors.Is(err, ErrRideNotFound):
		return KindNotFound
	case errors.Is(err, ErrRideAlreadyAccepted),
		errors.Is(err, ErrWrongState),
		errors.Is(err, ErrDriverUnavailable):
		return KindConflict
	case errors.Is(err, ErrGeocodeFailed),
		errors.Is(err, ErrFareUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
