// Package soap builds the reservation backend's SOAP envelopes and turns its
// XML answers back into plain Go values.
package soap

// Operation is a case-sensitive SOAP operation name of the reservation backend.
type Operation string

// The six operations of the booking workflow.
const (
	FlightAvailability  Operation = "FlightAvailability"
	ServiceInitialize   Operation = "ServiceInitialize"
	FlightAdd           Operation = "FlightAdd"
	BookingGetSession   Operation = "BookingGetSession"
	BookingSave         Operation = "BookingSave"
	BookingGetItinerary Operation = "BookingGetItinerary"
)

// Operations lists every known operation in workflow order.
var Operations = []Operation{
	FlightAvailability,
	ServiceInitialize,
	FlightAdd,
	BookingGetSession,
	BookingSave,
	BookingGetItinerary,
}

// Version selects the envelope flavor an operation expects.
type Version int

const (
	// SOAP11 uses the soapenv prefix and the xmlsoap.org envelope namespace.
	SOAP11 Version = iota
	// SOAP12 uses the soap prefix and the w3.org 2003/05 envelope namespace.
	SOAP12
)

// Envelope namespaces.
const (
	NamespaceSOAP11  = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceSOAP12  = "http://www.w3.org/2003/05/soap-envelope"
	NamespaceTempuri = "http://tempuri.org/"
)

// ContentType is sent with every envelope regardless of flavor.
const ContentType = "text/xml"

// Version returns the envelope flavor the backend accepts for o.
func (o Operation) Version() Version {
	if o == ServiceInitialize {
		return SOAP12
	}
	return SOAP11
}

// prefix returns the envelope element prefix for v.
func (v Version) prefix() string {
	if v == SOAP12 {
		return "soap"
	}
	return "soapenv"
}

func (v Version) namespace() string {
	if v == SOAP12 {
		return NamespaceSOAP12
	}
	return NamespaceSOAP11
}
