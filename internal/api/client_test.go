package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-portal/internal/logging"
	"procurement-portal/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]any{"data": []models.Category{}})
	})

	_, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no header without a token")
	assert.NotEmpty(t, gotRequestID)

	c.SetToken("tok-1")
	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	c.ClearToken()
	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedHandlerRunsBeforeErrorReturns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
	})

	var calls atomic.Int32
	c.OnUnauthorized(func() { calls.Add(1) })

	_, err := c.GetRFP(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, MsgSessionExpired, Message(err))
}

func TestClient_LoginUnauthorizedDoesNotInvalidate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	var calls atomic.Int32
	c.OnUnauthorized(func() { calls.Add(1) })

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Zero(t, calls.Load())
	assert.Equal(t, "Invalid credentials", LoginMessage(err))
}

func TestClient_Classification(t *testing.T) {
	tests := []struct {
		status int
		body   any
		kind   Kind
		msg    string
	}{
		{http.StatusBadRequest, map[string]any{"message": []string{"title should not be empty", "budget must be positive"}}, KindValidation, "title should not be empty; budget must be positive"},
		{http.StatusUnprocessableEntity, map[string]any{}, KindValidation, MsgInvalidInput},
		{http.StatusForbidden, map[string]any{"error": "Forbidden"}, KindValidation, "Forbidden"},
		{http.StatusNotFound, map[string]any{"message": "RFP not found"}, KindNotFound, MsgNotFound},
		{http.StatusInternalServerError, map[string]any{"message": "boom"}, KindServer, MsgServer},
		{http.StatusBadGateway, nil, KindServer, MsgServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.GetRFP(context.Background(), "1")
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, nil)
	_, err := c.ListCategories(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, MsgNetwork, Message(err))
}

func TestClient_TimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(srv.URL, NewHTTPClient(50*time.Millisecond), nil)
	_, err := c.ListCategories(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClient_Login(t *testing.T) {
	var got models.LoginRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, LoginPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok", "user": map[string]any{"id": "u1", "role": "GPO"}})
	})

	resp, err := c.Login(context.Background(), "officer@gov.example", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "officer@gov.example", got.Email)
}

func TestClient_LoginWithoutTokenFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "u1"}})
	})
	_, err := c.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestClient_ProfileShapes(t *testing.T) {
	bodies := map[string]any{
		"wrapped user":  map[string]any{"user": map[string]any{"id": "u1", "role": "VENDOR", "email": "v@x"}},
		"data envelope": map[string]any{"data": map[string]any{"id": "u1", "role": "VENDOR", "email": "v@x"}},
		"bare":          map[string]any{"id": "u1", "role": "VENDOR", "email": "v@x"},
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			user, err := c.Profile(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, models.RoleVendor, user.Role)
		})
	}
}

func TestClient_ListRFPs(t *testing.T) {
	t.Run("paginated", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "PUBLISHED,CLOSED", r.URL.Query().Get("status"))
			writeJSON(w, http.StatusOK, map[string]any{
				"data":       []map[string]any{{"id": "r1", "status": "PUBLISHED"}},
				"pagination": map[string]any{"currentPage": 2, "totalPages": 3, "totalItems": 11, "itemsPerPage": 5},
			})
		})
		page, err := c.ListRFPs(context.Background(), models.ListRFPsParams{Page: 2, Limit: 5, Status: "PUBLISHED,CLOSED"})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, models.RFPPublished, page.Data[0].Status)
		assert.Equal(t, 3, page.Pagination.TotalPages)
	})

	t.Run("bare list", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "r1"}, {"id": "r2"}})
		})
		page, err := c.ListRFPs(context.Background(), models.ListRFPsParams{})
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 1, page.Pagination.CurrentPage)
		assert.Equal(t, 2, page.Pagination.TotalItems)
	})
}

func TestClient_PublishRFP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rfp/r-9/publish", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "r-9", "status": "PUBLISHED"}})
	})
	rfp, err := c.PublishRFP(context.Background(), "r-9")
	require.NoError(t, err)
	assert.Equal(t, models.RFPPublished, rfp.Status)
}

func TestClient_BidDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bids/rfp/r1/bid/b2/document", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	})
	doc, err := c.BidDocument(context.Background(), "r1", "b2")
	require.NoError(t, err)
	defer doc.Body.Close()

	data, err := io.ReadAll(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "bid-b2.pdf", doc.Filename)
}

func TestClient_BidDocumentFilenameFromHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="proposal.pdf"`)
		_, _ = w.Write([]byte("x"))
	})
	doc, err := c.BidDocument(context.Background(), "r1", "b2")
	require.NoError(t, err)
	defer doc.Body.Close()
	assert.Equal(t, "proposal.pdf", doc.Filename)
}

func TestMessage_NonAPIError(t *testing.T) {
	assert.Equal(t, MsgUnexpected, Message(io.EOF))
	assert.Equal(t, "", Message(nil))
}

func TestClient_RegisterAndVerification(t *testing.T) {
	var got models.RegisterRequest
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/auth/register":
			_ = json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
		case "/vendor/verification/request":
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Registration number already used"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, models.RegisterRequest{CompanyName: "Acme", Email: "a@acme.io", Terms: true}))
	assert.Equal(t, "Acme", got.CompanyName)
	assert.True(t, got.Terms)

	err := c.RequestVerification(ctx, models.VerificationRequest{BusinessRegistrationNumber: "BRN-1"})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Registration number already used", Message(err))

	require.NoError(t, c.VerifyBusiness(ctx, "tok/1"))
	assert.Equal(t, []string{
		"POST /auth/register",
		"POST /vendor/verification/request",
		"GET /vendor/verification/verify/tok/1",
	}, paths)
}

func TestClient_ForwardsRequestIDFromContext(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]any{"data": []models.Category{}})
	})

	_, err := c.ListCategories(logging.WithRequestID(context.Background(), "req-7"))
	require.NoError(t, err)
	assert.Equal(t, "req-7", got)
}
