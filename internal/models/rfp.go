package models

import "time"

type RFPStatus string

const (
	RFPDraft     RFPStatus = "DRAFT"
	RFPPublished RFPStatus = "PUBLISHED"
	RFPClosed    RFPStatus = "CLOSED"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Timeline struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type EvaluationMetric struct {
	Name      string  `json:"name"`
	Weightage float64 `json:"weightage"`
}

// DraftRequest is the payload of POST /rfp/create.
type DraftRequest struct {
	Title                  string             `json:"title"`
	ShortDescription       string             `json:"shortDescription"`
	CategoryID             string             `json:"categoryId"`
	Budget                 float64            `json:"budget"`
	SubmissionDeadline     time.Time          `json:"submissionDeadline"`
	Timeline               Timeline           `json:"timeline"`
	TechnicalRequirements  []string           `json:"technicalRequirements"`
	ManagementRequirements []string           `json:"managementRequirements"`
	PricingDetails         string             `json:"pricingDetails"`
	EvaluationMetrics      []EvaluationMetric `json:"evaluationMetrics"`
	SpecialInstructions    string             `json:"specialInstructions,omitempty"`
}

// RFP is the server-side record. ID, Status and LongDescription are assigned
// by the backend.
type RFP struct {
	ID                     string             `json:"id"`
	Title                  string             `json:"title"`
	ShortDescription       string             `json:"shortDescription"`
	LongDescription        string             `json:"longDescription"`
	Status                 RFPStatus          `json:"status"`
	CategoryID             string             `json:"categoryId,omitempty"`
	Category               *Category          `json:"category,omitempty"`
	Budget                 float64            `json:"budget"`
	SubmissionDeadline     time.Time          `json:"submissionDeadline"`
	Timeline               Timeline           `json:"timeline"`
	TechnicalRequirements  []string           `json:"technicalRequirements,omitempty"`
	ManagementRequirements []string           `json:"managementRequirements,omitempty"`
	PricingDetails         string             `json:"pricingDetails,omitempty"`
	EvaluationMetrics      []EvaluationMetric `json:"evaluationMetrics,omitempty"`
	SpecialInstructions    string             `json:"specialInstructions,omitempty"`
	Bids                   []Bid              `json:"bids,omitempty"`
	CreatedAt              time.Time          `json:"createdAt"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type RFPPage struct {
	Data       []RFP      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListRFPsParams filters GET /rfp/list. Status may be a comma separated list
// such as "PUBLISHED,CLOSED".
type ListRFPsParams struct {
	Page   int
	Limit  int
	Status string
}
