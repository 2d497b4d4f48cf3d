package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/skyroute/airgate/internal/domain/booking"
	"github.com/skyroute/airgate/internal/domain/session"
	"github.com/skyroute/airgate/internal/port/inbound"
)

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// DataResponse carries a normalized backend result.
type DataResponse struct {
	SearchID string `json:"search_id"`
	Data     any    `json:"data"`
}

// RawResponse carries the backend's reply verbatim.
type RawResponse struct {
	SearchID    string `json:"search_id"`
	RawResponse string `json:"raw_response"`
}

// FlightHandler serves the /flights routes.
type FlightHandler struct {
	workflow inbound.BookingWorkflow
	validate *validator.Validate
	newID    func() string
}

// NewFlightHandler creates a FlightHandler.
func NewFlightHandler(workflow inbound.BookingWorkflow) *FlightHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &FlightHandler{
		workflow: workflow,
		validate: v,
		newID:    session.NewID,
	}
}

// Register adds the flight routes to mux.
func (h *FlightHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /flights/availability", h.checkAvailability)
	mux.HandleFunc("POST /flights/init", h.initialize)
	mux.HandleFunc("POST /flights/add", h.addFlight)
	mux.HandleFunc("POST /flights/booking-session", h.bookingSession)
	mux.HandleFunc("POST /flights/save", h.saveBooking)
	mux.HandleFunc("POST /flights/itinerary", h.itinerary)
}

// checkAvailability starts a new search.
func (h *FlightHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	req := booking.NewAvailabilityRequest()
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	searchID := h.newID()
	res, err := h.workflow.CheckAvailability(r.Context(), searchID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, DataResponse{SearchID: searchID, Data: res.Payload()})
}

// initialize opens a new backend session under a new search id.
func (h *FlightHandler) initialize(w http.ResponseWriter, r *http.Request) {
	searchID := h.newID()
	raw, err := h.workflow.InitializeSession(r.Context(), searchID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, RawResponse{SearchID: searchID, RawResponse: raw})
}

func (h *FlightHandler) addFlight(w http.ResponseWriter, r *http.Request) {
	req := booking.NewFlightAddRequest()
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.workflow.AddFlight(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, DataResponse{SearchID: req.SearchID, Data: res.Payload()})
}

func (h *FlightHandler) bookingSession(w http.ResponseWriter, r *http.Request) {
	var req booking.SessionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	raw, err := h.workflow.GetBookingSession(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, RawResponse{SearchID: req.SearchID, RawResponse: raw})
}

func (h *FlightHandler) saveBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.SaveRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	raw, err := h.workflow.SaveBooking(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, RawResponse{SearchID: req.SearchID, RawResponse: raw})
}

func (h *FlightHandler) itinerary(w http.ResponseWriter, r *http.Request) {
	var req booking.ItineraryRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	raw, err := h.workflow.GetItinerary(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, RawResponse{SearchID: req.SearchID, RawResponse: raw})
}

// decode reads a size-limited JSON body into v and validates it.
func (h *FlightHandler) decode(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		return &badRequestError{err: err}
	}
	return h.validate.Struct(v)
}
