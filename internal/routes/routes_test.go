package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"procurement-portal/internal/models"
)

func TestHomeFor(t *testing.T) {
	assert.Equal(t, "/dashboard", HomeFor(models.RoleGPO))
	assert.Equal(t, "/vendor/dashboard", HomeFor(models.RoleVendor))
	assert.Equal(t, "/login", HomeFor("ADMIN"))
	assert.Equal(t, "/login", HomeFor(""))
}

func TestPathBuilders(t *testing.T) {
	assert.Equal(t, "/rfp/42", RFPDetail("42"))
	assert.Equal(t, "/rfp/42/bid/7", BidDetail("42", "7"))
	assert.Equal(t, "/rfp/42/bid/7/document", BidDocument("42", "7"))
	assert.Equal(t, "/rfp/a%2Fb", RFPDetail("a/b"))
}
