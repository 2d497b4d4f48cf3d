// Package booking defines the request shapes of the six booking workflow steps.
package booking

// DefaultNationality is used when an availability search names none.
const DefaultNationality = "NP"

// AvailabilityRequest searches flights for an exact depart date.
type AvailabilityRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	// DepartDate is YYYY-MM-DD or YYYYMMDD.
	DepartDate string `json:"depart_date" validate:"required"`
	// ReturnDate is optional; empty means one-way.
	ReturnDate  string `json:"return_date,omitempty"`
	Adults      int    `json:"adults" validate:"min=0"`
	Children    int    `json:"children" validate:"min=0"`
	Infants     int    `json:"infants" validate:"min=0"`
	Others      int    `json:"others" validate:"min=0"`
	Nationality string `json:"nationality"`
}

// NewAvailabilityRequest returns a request carrying the search defaults.
// Decode JSON into it so absent fields keep their default.
func NewAvailabilityRequest() AvailabilityRequest {
	return AvailabilityRequest{Adults: 1, Nationality: DefaultNationality}
}

// FlightAddRequest selects a flight and fare into the backend session.
type FlightAddRequest struct {
	SearchID    string `json:"search_id" validate:"required"`
	FlightID    string `json:"flight_id" validate:"required"`
	FareID      string `json:"fare_id"`
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Adults      int    `json:"adults" validate:"min=0"`
	Children    int    `json:"children" validate:"min=0"`
	Infants     int    `json:"infants" validate:"min=0"`
}

// NewFlightAddRequest returns a request carrying the passenger-count defaults.
func NewFlightAddRequest() FlightAddRequest {
	return FlightAddRequest{Adults: 1}
}

// SessionRequest continues a workflow that needs nothing but its id.
type SessionRequest struct {
	SearchID string `json:"search_id" validate:"required"`
}

// ItineraryRequest fetches the itinerary of a saved booking.
type ItineraryRequest struct {
	SearchID string `json:"search_id" validate:"required"`
	PNR      string `json:"pnr" validate:"required"`
}

// BookingHeader holds the booking contact.
type BookingHeader struct {
	ContactName   string `json:"contact_name" validate:"required"`
	ContactEmail  string `json:"contact_email" validate:"required"`
	PhoneMobile   string `json:"phone_mobile" validate:"required"`
	PhoneHome     string `json:"phone_home"`
	PhoneBusiness string `json:"phone_business"`
}

// Passenger is one traveller on the booking.
type Passenger struct {
	PassengerID      string `json:"passenger_id" validate:"required"`
	PassengerTypeRcd string `json:"passenger_type_rcd" validate:"required"`
	Lastname         string `json:"lastname" validate:"required"`
	Firstname        string `json:"firstname" validate:"required"`
	GenderTypeRcd    string `json:"gender_type_rcd" validate:"required"`
	NationalityRcd   string `json:"nationality_rcd" validate:"required"`
	DateOfBirth      string `json:"date_of_birth" validate:"required"`
}

// Payment settles the booking.
type Payment struct {
	FormOfPaymentRcd string  `json:"form_of_payment_rcd" validate:"required"`
	CurrencyRcd      string  `json:"currency_rcd" validate:"required"`
	PaymentAmount    float64 `json:"payment_amount" validate:"gte=0"`
}

// SaveRequest commits the session's booking with contact, passengers and payment.
type SaveRequest struct {
	SearchID   string        `json:"search_id" validate:"required"`
	Header     BookingHeader `json:"booking_header" validate:"required"`
	Passengers []Passenger   `json:"passengers" validate:"required,dive"`
	Payment    Payment       `json:"payment" validate:"required"`
}
