package server

import (
	"encoding/xml"
	"fmt"

	"github.com/jpalmerr/apiwrapper/internal/store"
)

type validationError struct {
	ParameterName string `json:"ParameterName" xml:"ParameterName"`
	Message       string `json:"Message" xml:"Message"`
}

type errorResponse struct {
	XMLName          xml.Name          `json:"-" xml:"ApiResponseDto"`
	ValidationErrors []validationError `json:"ValidationErrors" xml:"ValidationErrors>ValidationErrorDto"`
}

type itinerary struct {
	OutboundLegID string  `json:"OutboundLegId" xml:"OutboundLegId"`
	Agent         string  `json:"Agent" xml:"Agent"`
	Price         float64 `json:"Price" xml:"Price"`
	Currency      string  `json:"Currency" xml:"Currency"`
}

type sessionResponse struct {
	XMLName     xml.Name          `json:"-" xml:"PollSessionResponseDto"`
	SessionKey  string            `json:"SessionKey" xml:"SessionKey"`
	Status      string            `json:"Status" xml:"Status"`
	Query       map[string]string `json:"Query" xml:"-"`
	Itineraries []itinerary       `json:"Itineraries" xml:"Itineraries>ItineraryApiDto"`
}

type country struct {
	Code string `json:"Code" xml:"Code"`
	Name string `json:"Name" xml:"Name"`
}

type countriesResponse struct {
	XMLName   xml.Name  `json:"-" xml:"CountriesResponseDto"`
	Locale    string    `json:"Locale" xml:"Locale"`
	Countries []country `json:"Countries" xml:"Countries>CountryDto"`
}

var countries = []country{
	{Code: "DE", Name: "Germany"},
	{Code: "ES", Name: "Spain"},
	{Code: "FR", Name: "France"},
	{Code: "UK", Name: "United Kingdom"},
	{Code: "US", Name: "United States"},
}

var agents = []string{"Skyfare", "Cloudjet", "Northwind"}

// itineraries derives a fixed set of offers from the session query.
func itineraries(s store.Session) []itinerary {
	route := s.Query["originplace"] + "-" + s.Query["destinationplace"]
	out := make([]itinerary, 0, len(agents))
	for i, agent := range agents {
		out = append(out, itinerary{
			OutboundLegID: fmt.Sprintf("%s-%d", route, i+1),
			Agent:         agent,
			Price:         float64(79 + 35*i),
			Currency:      s.Query["currency"],
		})
	}
	return out
}
