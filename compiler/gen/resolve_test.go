package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaviz/schema"
)

func TestExtractMeta(t *testing.T) {
	t.Run("title and node id", func(t *testing.T) {
		m, err := ExtractMeta(&schema.Document{DollarID: "data://acct.biz/model/1/account", Title: "Account"})
		require.NoError(t, err)
		assert.Equal(t, &Meta{
			ID:      "data://acct.biz/model/1/account",
			Domain:  "acct.biz",
			Version: "1",
			Model:   "account",
			NodeID:  "acct_biz_account",
			Title:   "Account",
		}, m)
		assert.Equal(t, "acct.biz/account", m.Key())
	})

	t.Run("title defaults to model", func(t *testing.T) {
		m, err := ExtractMeta(&schema.Document{ID: "data://contact.biz/model/1/contact-details"})
		require.NoError(t, err)
		assert.Equal(t, "contact-details", m.Title)
	})

	t.Run("$id wins over id", func(t *testing.T) {
		m, err := ExtractMeta(&schema.Document{ID: "data://a/model/1/old", DollarID: "data://a/model/1/new"})
		require.NoError(t, err)
		assert.Equal(t, "new", m.Model)
	})

	t.Run("no identifier", func(t *testing.T) {
		m, err := ExtractMeta(&schema.Document{Title: "Orphan"})
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("malformed identifier propagates", func(t *testing.T) {
		m, err := ExtractMeta(&schema.Document{DollarID: "urn:acct:account"})
		require.Error(t, err)
		assert.Nil(t, m)
	})
}

func TestIndexResolve(t *testing.T) {
	contact := &Meta{Domain: "contact.biz", Model: "contact", NodeID: "contact_biz_contact"}
	account := &Meta{Domain: "acct.biz", Model: "account", NodeID: "acct_biz_account"}
	idx := NewIndex(contact, account)

	tests := []struct {
		name string
		ref  string
		want *Meta
	}{
		{"exact", "data://contact.biz/model/1/contact", contact},
		{"fragment stripped", "data://contact.biz/model/1/contact#/properties/contactId", contact},
		{"other version resolves", "data://acct.biz/model/9/account", account},
		{"absent model", "data://acct.biz/model/1/ledger", nil},
		{"absent domain", "data://other/model/1/account", nil},
		{"malformed", "#/definitions/address", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Resolve(tt.ref)
			if tt.want == nil {
				assert.False(t, ok)
				assert.Nil(t, got)
				return
			}
			assert.True(t, ok)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestIndexAddLastWins(t *testing.T) {
	v1 := &Meta{Domain: "a", Model: "b", Version: "1"}
	v2 := &Meta{Domain: "a", Model: "b", Version: "2"}
	idx := make(Index)

	assert.Nil(t, idx.Add(v1))
	assert.Same(t, v1, idx.Add(v2))

	got, ok := idx.Resolve("data://a/model/1/b")
	require.True(t, ok)
	assert.Same(t, v2, got)
}
