package models

// Connector describes one plug type offered by a station.
type Connector struct {
	TypeName      string `json:"type_name"`
	Level         string `json:"level,omitempty"`
	NumConnectors int    `json:"num_connectors"`
}

// Station is a charging station record as stored and served.
// Available is derived: it holds exactly when ReservedCount is zero.
type Station struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Address       string      `json:"address,omitempty"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	IsActive      bool        `json:"is_active"`
	Available     bool        `json:"available"`
	PricePerKWh   *float64    `json:"price_per_kwh,omitempty"`
	QueueTime     int         `json:"queue_time"`
	ReservedCount int         `json:"reserved_count"`
	Connections   []Connector `json:"connections"`
}

// Clone returns a deep copy.
func (s Station) Clone() Station {
	out := s
	if s.PricePerKWh != nil {
		price := *s.PricePerKWh
		out.PricePerKWh = &price
	}
	if s.Connections != nil {
		out.Connections = make([]Connector, len(s.Connections))
		copy(out.Connections, s.Connections)
	}
	return out
}

// Price returns the per-kWh price, or def when the station has none.
// A zero price counts as missing.
func (s Station) Price(def float64) float64 {
	if s.PricePerKWh == nil || *s.PricePerKWh == 0 {
		return def
	}
	return *s.PricePerKWh
}

// HasConnector reports whether any connector's type name equals typeName exactly.
func (s Station) HasConnector(typeName string) bool {
	if typeName == "" {
		return false
	}
	for _, c := range s.Connections {
		if c.TypeName == typeName {
			return true
		}
	}
	return false
}

// Hold takes one reservation slot. QueueTime only ever grows while slots are held.
func (s *Station) Hold(minutes int) {
	if s.ReservedCount < 0 {
		s.ReservedCount = 0
	}
	s.ReservedCount++
	s.Available = s.ReservedCount == 0
	if s.QueueTime < 0 {
		s.QueueTime = 0
	}
	if minutes > s.QueueTime {
		s.QueueTime = minutes
	}
}

// Release gives back one slot, never dropping below zero. QueueTime resets
// once the last slot is released.
func (s *Station) Release() {
	s.ReservedCount--
	if s.ReservedCount < 0 {
		s.ReservedCount = 0
	}
	s.Available = s.ReservedCount == 0
	if s.ReservedCount == 0 {
		s.QueueTime = 0
	}
}

// Normalize repairs records whose derived fields disagree with ReservedCount,
// e.g. seed data written by hand.
func (s *Station) Normalize() {
	if s.ReservedCount < 0 {
		s.ReservedCount = 0
	}
	s.Available = s.ReservedCount == 0
	if s.QueueTime < 0 {
		s.QueueTime = 0
	}
	if s.Connections == nil {
		s.Connections = []Connector{}
	}
}
