package contacts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	prev := db.Store
	store := db.NewMemStorage()
	require.NoError(t, db.Seed(context.Background(), store))
	db.Store = store
	t.Cleanup(func() { db.Store = prev })
}

func list(t *testing.T) []models.EmergencyContact {
	t.Helper()
	rec := httptest.NewRecorder()
	GetEmergencyContacts(rec, httptest.NewRequest(http.MethodGet, "/api/emergency-contacts", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []models.EmergencyContact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func create(body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	CreateEmergencyContact(rec, httptest.NewRequest(http.MethodPost, "/api/emergency-contacts", strings.NewReader(body)), nil)
	return rec
}

func TestEmergencyContacts_ActiveOnly(t *testing.T) {
	setup(t)
	seeded := list(t)
	require.Len(t, seeded, 3)

	rec := create(`{"name":"Old line","organization":"Closed office","phoneNumber":"+254 700 000000","contactType":"extension","isActive":"false"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = create(`{"name":"Vet on call","organization":"County Vet","phoneNumber":"+254 711 111111","contactType":"veterinary"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.EmergencyContact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "true", created.IsActive)

	got := list(t)
	require.Len(t, got, 4)
	for _, c := range got {
		assert.Equal(t, "true", c.IsActive)
		assert.NotEqual(t, "Old line", c.Name)
	}
	assert.Equal(t, "Vet on call", got[3].Name)
}

func TestCreateEmergencyContact_Validation(t *testing.T) {
	setup(t)

	rec := create(`{"name":"","organization":"x","phoneNumber":"1","contactType":"plumber","isActive":"maybe"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Invalid contact data", out.Error)
	assert.Contains(t, out.Details, "name")
	assert.Contains(t, out.Details, "contactType")
	assert.Contains(t, out.Details, "isActive")
}
