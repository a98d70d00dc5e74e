package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "p.created_at DESC", orderClause(""))
	assert.Equal(t, "p.created_at DESC", orderClause("-created_at"))
	assert.Equal(t, "p.created_at ASC", orderClause("created_at"))
	assert.Equal(t, "p.price ASC", orderClause("price"))
	assert.Equal(t, "p.price DESC", orderClause("-price"))
	assert.Equal(t, "p.name ASC", orderClause("name"))
	assert.Equal(t, "p.name DESC", orderClause("-name"))
}

func TestOrderClauseRejectsUnknownColumns(t *testing.T) {
	// anything outside the whitelist falls back to the default
	assert.Equal(t, "p.created_at DESC", orderClause("quantity"))
	assert.Equal(t, "p.created_at DESC", orderClause("-vendor_id"))
	assert.Equal(t, "p.created_at DESC", orderClause("price; DROP TABLE products"))
}
