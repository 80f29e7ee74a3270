// Package smeta holds the estimates-service domain model, its REST resource
// client, and the write-path notifier that publishes bus events for
// successful mutations.
package smeta

import "time"

// Role is a user role. Foremen see only estimates for their assigned
// projects; managers and the director see everything.
type Role string

// User roles.
const (
	RoleForeman  Role = "foreman"
	RoleManager  Role = "manager"
	RoleDirector Role = "director"
)

// User is an account on the estimates service.
type User struct {
	UserID   int    `json:"user_id"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Project is a construction site.
type Project struct {
	ProjectID   int    `json:"project_id"`
	ProjectName string `json:"project_name"`
	Address     string `json:"address,omitempty"`
}

// WorkCategory groups work types in the catalog.
type WorkCategory struct {
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// WorkPrices are the current unit prices for a work type.
type WorkPrices struct {
	CostPrice   float64 `json:"cost_price,string"`
	ClientPrice float64 `json:"client_price,string"`
}

// WorkType is a catalog entry for a kind of work.
type WorkType struct {
	WorkTypeID        int          `json:"work_type_id"`
	WorkName          string       `json:"work_name"`
	UnitOfMeasurement string       `json:"unit_of_measurement"`
	Category          WorkCategory `json:"category"`
	Prices            WorkPrices   `json:"prices"`
}

// EstimateItem is one line of an estimate.
type EstimateItem struct {
	WorkTypeID      int     `json:"work_type_id"`
	WorkName        string  `json:"work_name,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitCostPrice   float64 `json:"unit_cost_price"`
	UnitClientPrice float64 `json:"unit_client_price"`
	TotalCost       float64 `json:"total_cost"`
	TotalClient     float64 `json:"total_client"`
}

// Estimate is a cost estimate for a project.
type Estimate struct {
	EstimateID     int            `json:"estimate_id"`
	EstimateNumber string         `json:"estimate_number"`
	Status         int            `json:"status,omitempty"`
	StatusName     string         `json:"status_name,omitempty"`
	ProjectID      int            `json:"project_id,omitempty"`
	ProjectName    string         `json:"project_name,omitempty"`
	ForemanID      int            `json:"foreman_id,omitempty"`
	ForemanName    string         `json:"foreman_name,omitempty"`
	CreatorID      int            `json:"creator_id,omitempty"`
	CreatorName    string         `json:"creator_name,omitempty"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
	Items          []EstimateItem `json:"items,omitempty"`
}

// Status is an estimate workflow status.
type Status struct {
	StatusID   int    `json:"status_id"`
	StatusName string `json:"status_name"`
}
