package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"procurement-portal/internal/models"
)

// Login exchanges credentials for a bearer token. A 401 here does not trigger
// the unauthorized handler.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, LoginPath, nil, models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &Error{Op: "POST " + LoginPath, Err: errors.New("response carried no token")}
	}
	return &out, nil
}

// Profile returns the user owning the current token. The backend answers
// either {"user": {...}} or the bare user record.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &Error{Op: "GET /auth/profile", Err: fmt.Errorf("decode profile: %w", err)}
	}
	if user.ID == "" && user.Email == "" {
		return nil, &Error{Op: "GET /auth/profile", Err: errors.New("empty profile")}
	}
	return &user, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, req, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, "/rfp/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPost, "/rfp/categories/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRFP persists a draft. The response carries the server generated id,
// status DRAFT and long description.
func (c *Client) CreateRFP(ctx context.Context, req models.DraftRequest) (*models.RFP, error) {
	var out models.RFP
	if err := c.do(ctx, http.MethodPost, "/rfp/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublishRFP(ctx context.Context, id string) (*models.RFP, error) {
	var out models.RFP
	if err := c.do(ctx, http.MethodPatch, "/rfp/"+url.PathEscape(id)+"/publish", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRFPs accepts both the paginated {data, pagination} shape and a bare list.
func (c *Client) ListRFPs(ctx context.Context, params models.ListRFPsParams) (*models.RFPPage, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Status != "" {
		query.Set("status", params.Status)
	}

	raw, err := c.doBytes(ctx, http.MethodGet, "/rfp/list", query, nil)
	if err != nil {
		return nil, err
	}

	page := &models.RFPPage{}
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0:
	case raw[0] == '[':
		err = json.Unmarshal(raw, &page.Data)
	default:
		err = json.Unmarshal(raw, page)
	}
	if err != nil {
		return nil, &Error{Op: "GET /rfp/list", Err: fmt.Errorf("decode response: %w", err)}
	}

	if page.Pagination.ItemsPerPage == 0 {
		page.Pagination = models.Pagination{
			CurrentPage:  max(params.Page, 1),
			TotalPages:   1,
			TotalItems:   len(page.Data),
			ItemsPerPage: max(params.Limit, len(page.Data)),
		}
	}
	return page, nil
}

func (c *Client) GetRFP(ctx context.Context, id string) (*models.RFP, error) {
	var out models.RFP
	if err := c.do(ctx, http.MethodGet, "/rfp/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func bidsPath(rfpID string) string {
	return "/bids/rfp/" + url.PathEscape(rfpID)
}

func (c *Client) ListBids(ctx context.Context, rfpID string) ([]models.Bid, error) {
	var out []models.Bid
	if err := c.do(ctx, http.MethodGet, bidsPath(rfpID)+"/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBid(ctx context.Context, rfpID, bidID string) (*models.Bid, error) {
	var out models.Bid
	if err := c.do(ctx, http.MethodGet, bidsPath(rfpID)+"/bid/"+url.PathEscape(bidID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document is a downloadable bid attachment. Body must be closed.
type Document struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

func (c *Client) BidDocument(ctx context.Context, rfpID, bidID string) (*Document, error) {
	resp, err := c.send(ctx, http.MethodGet, bidsPath(rfpID)+"/bid/"+url.PathEscape(bidID)+"/document", nil, nil)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Filename:      "bid-" + bidID + ".pdf",
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/octet-stream"
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			doc.Filename = params["filename"]
		}
	}
	return doc, nil
}

func (c *Client) RequestVerification(ctx context.Context, req models.VerificationRequest) error {
	return c.do(ctx, http.MethodPost, "/vendor/verification/request", nil, req, nil)
}

func (c *Client) VerifyBusiness(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/vendor/verification/verify/"+url.PathEscape(token), nil, nil, nil)
}
