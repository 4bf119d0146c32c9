// Package routes holds the portal's browser paths and the canonical landing
// page of each role.
package routes

import (
	"net/url"

	"procurement-portal/internal/models"
)

const (
	Index          = "/"
	Login          = "/login"
	Logout         = "/logout"
	Register       = "/register"
	Profile        = "/profile"
	OfficerHome    = "/dashboard"
	Categories     = "/categories"
	RFPCreate      = "/rfp/create"
	RFPReview      = "/rfp/create/review"
	RFPBackToEdit  = "/rfp/create/back"
	RFPPublish     = "/rfp/create/publish"
	RFPList        = "/rfp"
	Bids           = "/bids"
	Activity       = "/activity"
	VendorHome     = "/vendor/dashboard"
	VendorRFPs     = "/vendor/rfps"
	VendorBidNew   = "/vendor/bid/new"
	VendorBids     = "/vendor/bids"
	Verification   = "/verification/request"
	VerifyBusiness = "/vendor/verification/verify/:token"
)

// HomeFor returns the landing page for role. Unknown roles go to the login page.
func HomeFor(role models.UserRole) string {
	switch role {
	case models.RoleGPO:
		return OfficerHome
	case models.RoleVendor:
		return VendorHome
	default:
		return Login
	}
}

func RFPDetail(id string) string {
	return RFPList + "/" + url.PathEscape(id)
}

func BidDetail(rfpID, bidID string) string {
	return RFPDetail(rfpID) + "/bid/" + url.PathEscape(bidID)
}

func BidDocument(rfpID, bidID string) string {
	return BidDetail(rfpID, bidID) + "/document"
}
