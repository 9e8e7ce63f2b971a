package crawler

import "encoding/json"

// Payload is the wire representation of a Property shared by every transport.
type Payload struct {
	Source   string           `json:"source" bson:"source"`
	Date     int64            `json:"date" bson:"date"`
	City     City             `json:"city" bson:"city"`
	Data     *PayloadData     `json:"data" bson:"data"`
	Location *PayloadLocation `json:"location" bson:"location"`
}

// PayloadData mirrors PropertyData with the published field names.
type PayloadData struct {
	Price        float64 `json:"price" bson:"price"`
	SquareMeters float64 `json:"squaremeters" bson:"squaremeters"`
	Address      string  `json:"address" bson:"address"`
	Title        string  `json:"title" bson:"title"`
	ExternalID   string  `json:"externalid" bson:"externalid"`
	Rooms        float64 `json:"rooms" bson:"rooms"`
}

// PayloadLocation mirrors Location with the published field names.
type PayloadLocation struct {
	Latitude    float64 `json:"latitude" bson:"latitude"`
	Longitude   float64 `json:"longitude" bson:"longitude"`
	Uncertainty float64 `json:"uncertainty" bson:"uncertainty"`
}

// NewPayload converts a record into its wire representation.
func NewPayload(p Property) Payload {
	out := Payload{
		Source: p.Source,
		Date:   p.CapturedAt.Unix(),
		City:   p.City,
	}
	if p.Data != nil {
		out.Data = &PayloadData{
			Price:        p.Data.Price,
			SquareMeters: p.Data.SquareMeters,
			Address:      p.Data.Address,
			Title:        p.Data.Title,
			ExternalID:   p.Data.ExternalID,
			Rooms:        p.Data.Rooms,
		}
	}
	if p.Location != nil {
		out.Location = &PayloadLocation{
			Latitude:    p.Location.Latitude,
			Longitude:   p.Location.Longitude,
			Uncertainty: p.Location.UncertaintyMeters,
		}
	}
	return out
}

// MarshalJSON encodes the record as its Payload.
func (p Property) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewPayload(p))
}

// RoutingKey is the partition key transports derive from a city.
func RoutingKey(city City) string {
	return "flats_" + string(city)
}
