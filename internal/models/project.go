package models

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning          ProjectStatus = "planning"
	ProjectStatusUnderConstruction ProjectStatus = "under_construction"
	ProjectStatusNearCompletion    ProjectStatus = "near_completion"
	ProjectStatusCompleted         ProjectStatus = "completed"
	ProjectStatusOnHold            ProjectStatus = "on_hold"
)

var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusUnderConstruction,
	ProjectStatusNearCompletion,
	ProjectStatusCompleted,
	ProjectStatusOnHold,
}

// VefaTag marks projects sold before completion (vente en l'état futur d'achèvement).
const VefaTag = "VEFA"

// ParseProjectStatus matches case-insensitively and returns the canonical value.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range ProjectStatuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

type Project struct {
	ID             int64         `json:"id"`
	PromoterID     int64         `json:"promoter_id" validate:"gte=0"`
	Name           string        `json:"name" validate:"required,max=255"`
	Slug           string        `json:"slug" validate:"max=255"`
	Description    string        `json:"description"`
	City           string        `json:"city" validate:"max=100"`
	District       string        `json:"district" validate:"max=100"`
	Address        string        `json:"address"`
	Status         ProjectStatus `json:"status" validate:"required,oneof=planning under_construction near_completion completed on_hold"`
	TotalUnits     int           `json:"total_units" validate:"gte=0"`
	AvailableUnits int           `json:"available_units" validate:"gte=0,ltefield=TotalUnits"`
	StartingPrice  float64       `json:"starting_price" validate:"gte=0"`
	Amenities      StringSet     `json:"amenities"`
	Tags           StringSet     `json:"tags"`
	CoverImage     string        `json:"cover_image"`
	Images         StringSet     `json:"images"`
	Views          int64         `json:"views"`
	IsPublished    bool          `json:"is_published"`
	PublishedAt    *time.Time    `json:"published_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (p *Project) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = ProjectStatusPlanning
	}
	return Validate(p)
}

func (p *Project) IsVefa() bool {
	return p.Tags.Contains(VefaTag)
}

// UnitCounts is the recount of a project's units by availability.
type UnitCounts struct {
	Total         int
	Available     int
	Sold          int
	Reserved      int
	StartingPrice float64
}
