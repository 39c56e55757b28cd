package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"security-service/internal/models"
)

func TestStoreCredentialsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.accounts.accounts["acct-1"] = &models.TradingAccount{ID: "acct-1", UserID: "user-1"}

	body := bytes.NewBufferString(`{"userId":"user-1","credentials":"api-secret"}`)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acct-1/credentials", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "acct-1", resp["accountId"])

	saved := ts.accounts.accounts["acct-1"]
	require.NotNil(t, saved)
	assert.Equal(t, "enc:api-secret", saved.EncryptedCredentials)
	assert.Equal(t, "key-1", saved.EncryptionKeyID)
	assert.Equal(t, "digest:api-secret", saved.CredentialDigest)
}

func TestStoreCredentialsRejectsNonOwner(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.accounts.accounts["acct-1"] = &models.TradingAccount{ID: "acct-1", UserID: "user-1"}

	body := bytes.NewBufferString(`{"userId":"intruder","credentials":"api-secret"}`)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acct-1/credentials", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
	assert.Empty(t, ts.accounts.accounts["acct-1"].EncryptedCredentials)
}

func TestStoreCredentialsMissingFields(t *testing.T) {
	ts := newTestServer(t, nil)

	body := bytes.NewBufferString(`{"userId":"user-1"}`)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acct-1/credentials", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])
}

func TestEncryptionStatusAfterStore(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.accounts.accounts["acct-1"] = &models.TradingAccount{ID: "acct-1", UserID: "user-1"}

	body := bytes.NewBufferString(`{"userId":"user-1","credentials":"api-secret"}`)
	ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acct-1/credentials", body))

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acct-1/encryption-status?userId=user-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "acct-1", resp["accountId"])
	assert.Equal(t, true, resp["encrypted"])
}

func TestEncryptionStatusUnencryptedAccount(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.accounts.accounts["acct-2"] = &models.TradingAccount{ID: "acct-2", UserID: "user-2"}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acct-2/encryption-status?userId=user-2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["encrypted"])
}

func TestEncryptionStatusRequiresUserID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acct-1/encryption-status", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "userId parameter is required", decodeBody(t, rec)["error"])
}
