package soap

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/skyroute/airgate/internal/domain/booking"
)

// DefaultLanguageCode is sent when Credentials.LanguageCode is empty.
const DefaultLanguageCode = "EN"

// Credentials are the agency's static login, embedded in the operations that
// require them.
type Credentials struct {
	AgencyCode   string
	Username     string
	Password     string
	LanguageCode string
}

func (c Credentials) language() string {
	if c.LanguageCode == "" {
		return DefaultLanguageCode
	}
	return c.LanguageCode
}

// BuildFlightAvailability renders the exact-date availability search. The
// normalized depart date bounds both ends of the depart window, and likewise
// for the return date.
func BuildFlightAvailability(creds Credentials, req booking.AvailabilityRequest) string {
	depart := booking.NormalizeDate(req.DepartDate)
	ret := booking.NormalizeDate(req.ReturnDate)

	var f fields
	f.add("strAgencyCode", creds.AgencyCode)
	f.add("strPassword", creds.Password)
	f.add("strOrigin", req.Origin)
	f.add("strDestination", req.Destination)
	f.add("strDepartFrom", depart)
	f.add("strDepartTo", depart)
	f.add("strReturnFrom", ret)
	f.add("strReturnTo", ret)
	f.add("iAdult", strconv.Itoa(req.Adults))
	f.add("iChild", strconv.Itoa(req.Children))
	f.add("iInfant", strconv.Itoa(req.Infants))
	f.add("iOther", strconv.Itoa(req.Others))
	f.add("nationality", req.Nationality)
	f.add("strBookingClass", "")
	f.add("strBoardingClass", "")
	f.add("strPromoCode", "")
	f.add("strLanguageCode", creds.language())
	return render(FlightAvailability, &f)
}

// BuildServiceInitialize renders the login call that opens a backend session.
func BuildServiceInitialize(creds Credentials) string {
	var f fields
	f.add("strAgencyCode", creds.AgencyCode)
	f.add("strUserName", creds.Username)
	f.add("strPassword", creds.Password)
	f.add("strLanguageCode", creds.language())
	return render(ServiceInitialize, &f)
}

// BuildFlightAdd renders the flight selection. The booking document travels
// as CDATA inside tem:strXml.
func BuildFlightAdd(req booking.FlightAddRequest) string {
	var d document
	d.open("Booking")
	d.open("Header")
	d.leaf("adult", strconv.Itoa(req.Adults))
	d.leaf("child", strconv.Itoa(req.Children))
	d.leaf("infant", strconv.Itoa(req.Infants))
	d.close("Header")
	d.open("FlightSegment")
	d.leaf("flight_id", req.FlightID)
	d.leaf("fare_id", req.FareID)
	d.leaf("origin_rcd", req.Origin)
	d.leaf("destination_rcd", req.Destination)
	d.close("FlightSegment")
	d.close("Booking")

	var f fields
	f.addCDATA("strXml", d.String())
	return render(FlightAdd, &f)
}

// BuildBookingGetSession renders the parameterless session read.
func BuildBookingGetSession() string {
	return render(BookingGetSession, &fields{})
}

// BuildBookingSave renders the booking commit. Passengers appear in input
// order; optional phones render empty.
func BuildBookingSave(req booking.SaveRequest) string {
	var d document
	d.open("Booking")
	d.open("BookingHeader")
	d.leaf("contact_name", req.Header.ContactName)
	d.leaf("contact_email", req.Header.ContactEmail)
	d.leaf("phone_mobile", req.Header.PhoneMobile)
	d.leaf("phone_home", req.Header.PhoneHome)
	d.leaf("phone_business", req.Header.PhoneBusiness)
	d.close("BookingHeader")
	for _, p := range req.Passengers {
		d.open("Passenger")
		d.leaf("passenger_id", p.PassengerID)
		d.leaf("passenger_type_rcd", p.PassengerTypeRcd)
		d.leaf("lastname", p.Lastname)
		d.leaf("firstname", p.Firstname)
		d.leaf("gender_type_rcd", p.GenderTypeRcd)
		d.leaf("nationality_rcd", p.NationalityRcd)
		d.leaf("date_of_birth", p.DateOfBirth)
		d.close("Passenger")
	}
	d.open("Payment")
	d.leaf("form_of_payment_rcd", req.Payment.FormOfPaymentRcd)
	d.leaf("currency_rcd", req.Payment.CurrencyRcd)
	d.leaf("payment_amount", formatAmount(req.Payment.PaymentAmount))
	d.close("Payment")
	d.close("Booking")

	var f fields
	f.addCDATA("strXml", d.String())
	return render(BookingSave, &f)
}

// BuildBookingGetItinerary renders the itinerary lookup by record locator.
func BuildBookingGetItinerary(pnr string) string {
	var f fields
	f.add("strRecordLocator", pnr)
	return render(BookingGetItinerary, &f)
}

// formatAmount keeps at least one fractional digit: 100 -> "100.0".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// fields collects the tem: children of an operation element.
type fields struct {
	b strings.Builder
	n int
}

func (f *fields) add(name, value string) {
	f.n++
	f.b.WriteString("         <tem:")
	f.b.WriteString(name)
	f.b.WriteByte('>')
	f.b.WriteString(escape(value))
	f.b.WriteString("</tem:")
	f.b.WriteString(name)
	f.b.WriteString(">\n")
}

func (f *fields) addCDATA(name, inner string) {
	f.n++
	f.b.WriteString("         <tem:")
	f.b.WriteString(name)
	f.b.WriteString("><![CDATA[")
	f.b.WriteString(inner)
	f.b.WriteString("]]></tem:")
	f.b.WriteString(name)
	f.b.WriteString(">\n")
}

// render wraps the operation element in the envelope flavor op expects.
func render(op Operation, f *fields) string {
	v := op.Version()
	p := v.prefix()

	var b strings.Builder
	b.WriteString(`<` + p + `:Envelope xmlns:` + p + `="` + v.namespace() + `" xmlns:tem="` + NamespaceTempuri + `">` + "\n")
	b.WriteString("   <" + p + ":Header/>\n")
	b.WriteString("   <" + p + ":Body>\n")
	if f.n == 0 {
		b.WriteString("      <tem:" + string(op) + "/>\n")
	} else {
		b.WriteString("      <tem:" + string(op) + ">\n")
		b.WriteString(f.b.String())
		b.WriteString("      </tem:" + string(op) + ">\n")
	}
	b.WriteString("   </" + p + ":Body>\n")
	b.WriteString("</" + p + ":Envelope>")
	return b.String()
}

// document writes the inner booking XML carried inside tem:strXml.
type document struct {
	b strings.Builder
}

func (d *document) open(name string)  { d.b.WriteString("<" + name + ">") }
func (d *document) close(name string) { d.b.WriteString("</" + name + ">") }

func (d *document) leaf(name, value string) {
	d.open(name)
	d.b.WriteString(escape(value))
	d.close(name)
}

func (d *document) String() string { return d.b.String() }

func escape(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
