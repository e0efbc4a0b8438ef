package models

import (
	"strings"
	"time"
)

type PropertyType string

const (
	PropertyTypeAppartement PropertyType = "Appartement"
	PropertyTypeVilla       PropertyType = "Villa"
	PropertyTypeMaison      PropertyType = "Maison"
	PropertyTypeStudio      PropertyType = "Studio"
	PropertyTypeDuplex      PropertyType = "Duplex"
)

// PropertyTypes is the closed set of listing types, in display order.
var PropertyTypes = []PropertyType{
	PropertyTypeAppartement,
	PropertyTypeVilla,
	PropertyTypeMaison,
	PropertyTypeStudio,
	PropertyTypeDuplex,
}

func ParsePropertyType(s string) (PropertyType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range PropertyTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

type AvailabilityStatus string

const (
	AvailabilityAvailable    AvailabilityStatus = "available"
	AvailabilityReserved     AvailabilityStatus = "reserved"
	AvailabilitySold         AvailabilityStatus = "sold"
	AvailabilityNotAvailable AvailabilityStatus = "not_available"
)

var AvailabilityStatuses = []AvailabilityStatus{
	AvailabilityAvailable,
	AvailabilityReserved,
	AvailabilitySold,
	AvailabilityNotAvailable,
}

func ParseAvailabilityStatus(s string) (AvailabilityStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range AvailabilityStatuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

type Property struct {
	ID                 int64              `json:"id"`
	ProjectID          *int64             `json:"project_id"`
	OwnerID            int64              `json:"owner_id" validate:"gte=0"`
	Title              string             `json:"title" validate:"required,max=255"`
	Description        string             `json:"description"`
	Reference          string             `json:"reference" validate:"max=50"`
	Type               PropertyType       `json:"type" validate:"required,oneof=Appartement Villa Maison Studio Duplex"`
	Price              float64            `json:"price" validate:"gte=0"`
	Surface            int                `json:"surface" validate:"gt=0"`
	City               string             `json:"city" validate:"max=100"`
	District           string             `json:"district" validate:"max=100"`
	Address            string             `json:"address"`
	Bedrooms           int                `json:"bedrooms" validate:"gte=0"`
	Bathrooms          int                `json:"bathrooms" validate:"gte=0"`
	Floor              int                `json:"floor"`
	Parking            bool               `json:"parking"`
	Elevator           bool               `json:"elevator"`
	Terrace            bool               `json:"terrace"`
	Garden             bool               `json:"garden"`
	IsVefa             bool               `json:"is_vefa"`
	Features           StringSet          `json:"features"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status" validate:"required,oneof=available reserved sold not_available"`
	Validated          bool               `json:"validated"`
	Views              int64              `json:"views"`
	Images             StringSet          `json:"images"`
	PublishedDate      *time.Time         `json:"published_date"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	// Joined from the parent project when ProjectID is set.
	ProjectName string `json:"-"`
	ProjectSlug string `json:"-"`
}

func (p *Property) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.AvailabilityStatus == "" {
		p.AvailabilityStatus = AvailabilityAvailable
	}
	p.Features = NewStringSet(p.Features...)
	return Validate(p)
}
