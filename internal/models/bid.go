package models

import "time"

type BidStatus string

const (
	BidDraft     BidStatus = "DRAFT"
	BidSubmitted BidStatus = "SUBMITTED"
)

type BidVendor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BusinessName  string `json:"businessName"`
	BusinessEmail string `json:"businessEmail"`
}

type BidRFP struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	SubmissionDeadline time.Time `json:"submissionDeadline"`
}

type Bid struct {
	ID             string    `json:"id"`
	Status         BidStatus `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
	Vendor         BidVendor `json:"vendor"`
	RFP            *BidRFP   `json:"rfp,omitempty"`
	CostEstimate   string    `json:"costEstimate,omitempty"`
	Timeline       string    `json:"deliveryTimeline,omitempty"`
	Proposal       string    `json:"proposalDetails,omitempty"`
}

// BidForm is the vendor bid form on /vendor/bid/new.
type BidForm struct {
	RFPID            string `form:"rfpId" binding:"notblank"`
	CostEstimate     string `form:"costEstimate" binding:"notblank"`
	DeliveryTimeline string `form:"deliveryTimeline" binding:"notblank"`
	ProposalDetails  string `form:"proposalDetails" binding:"notblank,min=10"`
}
