// Package domain contains the core data types for the occurrence and
// identification core. It has no dependencies on other internal packages and
// is imported by every other internal package.
package domain

import "time"

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// BoundingBox is an axis-aligned latitude/longitude rectangle.
type BoundingBox struct {
	Min GeoPoint
	Max GeoPoint
}

// Valid reports whether both corners are valid and Min is south-west of Max.
func (b BoundingBox) Valid() bool {
	return b.Min.Valid() && b.Max.Valid() &&
		b.Min.Latitude <= b.Max.Latitude &&
		b.Min.Longitude <= b.Max.Longitude
}

// Subject is one distinct organism depicted in an occurrence, addressed by
// its 0-based index. Every occurrence has at least subject 0.
type Subject struct {
	Index int `json:"index"`
}

// Occurrence is one recorded sighting. The core only reads occurrences; they
// are created and edited by their owner through the external record store.
type Occurrence struct {
	// ID is the globally unique record URI (e.g. an at:// URI).
	ID       string    `json:"id"`
	OwnerDID string    `json:"owner_did"`
	Location GeoPoint  `json:"location"`
	Subjects []Subject `json:"subjects"`

	// ScientificName is the observer's own declared name for subject 0.
	// It is the consensus fallback while subject 0 has no identifications.
	ScientificName string `json:"scientific_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasSubject reports whether the occurrence depicts a subject with the given index.
func (o Occurrence) HasSubject(index int) bool {
	if index == 0 {
		return true
	}
	for _, s := range o.Subjects {
		if s.Index == index {
			return true
		}
	}
	return false
}

// ExploreFilter narrows the public chronological feed.
// A zero value matches every occurrence.
type ExploreFilter struct {
	// NamePrefix matches occurrences whose declared scientific name starts with it.
	NamePrefix string

	// Near, when set, restricts results to RadiusMeters around the point.
	Near         *GeoPoint
	RadiusMeters float64
}
