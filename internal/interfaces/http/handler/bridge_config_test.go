package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
)

func TestGetConfigBeforeConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/sync/config", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestPutConfigCreatesAndMasksCredentials(t *testing.T) {
	env := newTestEnv(t)

	put := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"system_name":       "quickbooks",
		"endpoint":          "https://bridge.example.com/push",
		"credentials":       "tok-123",
		"auto_sync_enabled": true,
		"sync_interval_sec": 300,
	})
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())

	var cfg appsync.BridgeConfigResponse
	decodeData(t, put, &cfg)
	assert.Equal(t, "quickbooks", cfg.SystemName)
	assert.Equal(t, "https://bridge.example.com/push", cfg.Endpoint)
	assert.True(t, cfg.HasCredentials)
	assert.True(t, cfg.AutoSyncEnabled)
	assert.Equal(t, int64(300), cfg.SyncIntervalSec)
	assert.NotContains(t, put.Body.String(), "tok-123", "credential blob must never be returned")

	get := env.do(t, http.MethodGet, "/sync/config", nil)
	require.Equal(t, http.StatusOK, get.Code)
	decodeData(t, get, &cfg)
	assert.True(t, cfg.HasCredentials)
	assert.NotContains(t, get.Body.String(), "tok-123")
}

func TestPutConfigEmptyCredentialsKeepsStoredBlob(t *testing.T) {
	env := newTestEnv(t)
	env.configureBridge(t)

	put := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"system_name": "xero",
		"endpoint":    "https://bridge.example.com/v2/push",
	})
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())

	var cfg appsync.BridgeConfigResponse
	decodeData(t, put, &cfg)
	assert.Equal(t, "xero", cfg.SystemName)
	assert.Equal(t, "https://bridge.example.com/v2/push", cfg.Endpoint)
	assert.True(t, cfg.HasCredentials, "update without credentials must keep the stored blob")

	stored := env.configRepo.configs[env.tenantID]
	assert.Equal(t, []byte("tok-123"), stored.Credentials)
}

func TestPutConfigValidation(t *testing.T) {
	env := newTestEnv(t)

	missingName := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"endpoint": "https://bridge.example.com/push",
	})
	assert.Equal(t, http.StatusBadRequest, missingName.Code)

	badEndpoint := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"system_name": "quickbooks",
		"endpoint":    "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, badEndpoint.Code)

	shortInterval := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"system_name":       "quickbooks",
		"endpoint":          "https://bridge.example.com/push",
		"sync_interval_sec": 5,
	})
	assert.Equal(t, http.StatusBadRequest, shortInterval.Code)
}
