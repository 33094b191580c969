package model

import "strings"

// Availability of a unit
type Availability string

const (
	Available Availability = "available"
	Pending   Availability = "pending"
	Sold      Availability = "sold"
)

// Valid reports whether a is one of the known states.
func (a Availability) Valid() bool {
	switch a {
	case Available, Pending, Sold:
		return true
	}
	return false
}

// Narrative topics a project can carry hand-written copy for.
const (
	TopicLocation       = "location"
	TopicDeveloper      = "developer"
	TopicEco            = "eco"
	TopicLayout         = "layout"
	TopicCommercial     = "commercial"
	TopicPenthouse      = "penthouse"
	TopicParking        = "parking"
	TopicConstruction   = "construction"
	TopicSpecifications = "specifications"
	TopicUtilities      = "utilities"
	TopicWorkFromHome   = "wfh"
	TopicFinancial      = "financial"
)

// ProjectTypeCommercial marks projects selling showrooms and offices.
const ProjectTypeCommercial = "commercial"

// Project represents a real-estate development
type Project struct {
	ID                   string                `json:"id" yaml:"id" db:"id"`
	Name                 string                `json:"name" yaml:"name" db:"name"`
	Location             string                `json:"location" yaml:"location" db:"location"`
	Type                 string                `json:"type,omitempty" yaml:"type" db:"type"`
	Status               string                `json:"status" yaml:"status" db:"status"`
	Description          string                `json:"description" yaml:"description" db:"description"`
	Features             JSONArray             `json:"features,omitempty" yaml:"features" db:"features"`
	Developer            string                `json:"developer,omitempty" yaml:"developer" db:"developer"`
	Certification        string                `json:"certification,omitempty" yaml:"certification" db:"certification"`
	Parking              string                `json:"parking,omitempty" yaml:"parking" db:"parking"`
	Connectivity         string                `json:"connectivity,omitempty" yaml:"connectivity" db:"connectivity"`
	TotalUnits           int                   `json:"totalUnits,omitempty" yaml:"totalUnits" db:"total_units"`
	AvailableUnits       int                   `json:"availableUnits,omitempty" yaml:"availableUnits" db:"available_units"`
	PriceRange           *PriceRange           `json:"priceRange,omitempty" yaml:"priceRange" db:"price_range"`
	CompletionDate       string                `json:"completionDate,omitempty" yaml:"completionDate" db:"completion_date"`
	TransportConnections *TransportConnections `json:"transportConnections,omitempty" yaml:"transportConnections" db:"transport_connections"`
	Amenities            Attributes            `json:"amenities,omitempty" yaml:"amenities" db:"amenities"`
	Specifications       Attributes            `json:"specifications,omitempty" yaml:"specifications" db:"specifications"`
	AmenityDigest        *AmenityDigest        `json:"amenityDigest,omitempty" yaml:"amenityDigest" db:"amenity_digest"`
	Narratives           Narratives            `json:"narratives,omitempty" yaml:"narratives" db:"narratives"`
}

// PriceRange holds the advertised price bounds in rupees
type PriceRange struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// TransportConnections lists roads, metro lines and named travel times
type TransportConnections struct {
	Roads     []string          `json:"roads,omitempty" yaml:"roads"`
	Metro     []string          `json:"metro,omitempty" yaml:"metro"`
	Distances map[string]string `json:"distances,omitempty" yaml:"distances"`
}

// AmenityDigest decides how the amenities answer reads for a project:
// an intro phrase followed by selected amenity groups in order.
type AmenityDigest struct {
	Intro  string        `json:"intro" yaml:"intro"`
	Groups []DigestGroup `json:"groups" yaml:"groups"`
}

// DigestGroup points at an Amenities category. An empty Label lists the
// items without a heading.
type DigestGroup struct {
	Category string `json:"category" yaml:"category"`
	Label    string `json:"label,omitempty" yaml:"label"`
}

// Narrative returns the copy stored for topic, or "".
func (p *Project) Narrative(topic string) string {
	if p == nil || p.Narratives == nil {
		return ""
	}
	return strings.TrimSpace(p.Narratives[topic])
}

// IsCommercial reports whether the project sells commercial space.
func (p *Project) IsCommercial() bool {
	return p != nil && strings.EqualFold(p.Type, ProjectTypeCommercial)
}

// Unit represents an individual sellable apartment, office or showroom
type Unit struct {
	ID             string       `json:"id" yaml:"id" db:"id"`
	ProjectID      string       `json:"projectId" yaml:"projectId" db:"project_id"`
	Type           string       `json:"type" yaml:"type" db:"type"`
	Bedrooms       int          `json:"bedrooms" yaml:"bedrooms" db:"bedrooms"`
	Bathrooms      int          `json:"bathrooms" yaml:"bathrooms" db:"bathrooms"`
	Area           float64      `json:"area" yaml:"area" db:"area"`
	Price          int64        `json:"price" yaml:"price" db:"price"`
	Availability   Availability `json:"availability" yaml:"availability" db:"availability"`
	Features       JSONArray    `json:"features" yaml:"features" db:"features"`
	Specifications Attributes   `json:"specifications,omitempty" yaml:"specifications" db:"specifications"`
}

// IsAvailable reports whether the unit can be booked now.
func (u Unit) IsAvailable() bool {
	return u.Availability == Available
}

// HasFeature reports whether any feature contains needle (case-insensitive).
func (u Unit) HasFeature(needle string) bool {
	needle = strings.ToLower(needle)
	for _, f := range u.Features {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// FAQ is a curated question/answer pair for a project
type FAQ struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	ProjectID string    `json:"projectId" yaml:"projectId" db:"project_id"`
	Question  string    `json:"question" yaml:"question" db:"question"`
	Answer    string    `json:"answer" yaml:"answer" db:"answer"`
	Tags      JSONArray `json:"tags" yaml:"tags" db:"tags"`
}

// QuickFilter is a predefined shortcut query
type QuickFilter struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Criteria    string `json:"criteria" yaml:"criteria"`
	Query       string `json:"query" yaml:"query"`
}

// Category is a topic grouping used to classify FAQs
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// CategoryCount is a category with the number of FAQs filed under it
type CategoryCount struct {
	Category
	Count int `json:"count"`
}
