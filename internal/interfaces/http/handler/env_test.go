package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires real services over in-memory fakes behind a gin engine
type testEnv struct {
	tenantID   uuid.UUID
	operatorID uuid.UUID

	clientRepo   *fakeClientRepo
	refRepo      *fakeExternalRefRepo
	queueRepo    *fakeQueueRepo
	conflictRepo *fakeConflictRepo
	historyRepo  *fakeHistoryRepo
	configRepo   *fakeConfigRepo
	runLogRepo   *fakeRunLogRepo
	counter      *fakeCounter
	bridgeClient *fakeBridgeClient

	dispatchService *appsync.DispatchService
	router          *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tenantID:     uuid.New(),
		operatorID:   uuid.New(),
		clientRepo:   newFakeClientRepo(),
		refRepo:      newFakeExternalRefRepo(),
		queueRepo:    newFakeQueueRepo(),
		conflictRepo: newFakeConflictRepo(),
		historyRepo:  newFakeHistoryRepo(),
		configRepo:   newFakeConfigRepo(),
		runLogRepo:   newFakeRunLogRepo(),
		counter:      newFakeCounter(),
		bridgeClient: &fakeBridgeClient{},
	}

	scope := appsync.NewNoOpTransactionScope(env.clientRepo, env.refRepo, env.queueRepo, env.conflictRepo, env.historyRepo)

	ingestService := appsync.NewIngestService(scope, env.runLogRepo, env.counter, nil)
	env.dispatchService = appsync.NewDispatchService(scope, env.queueRepo, env.clientRepo, env.configRepo, env.bridgeClient, nil)
	env.dispatchService.SetPacingDelay(0)
	conflictService := appsync.NewConflictService(scope, env.conflictRepo, env.clientRepo, nil)
	configService := appsync.NewConfigService(env.configRepo, nil)
	statusService := appsync.NewStatusService(env.queueRepo, env.conflictRepo, env.historyRepo, env.runLogRepo)

	ingestHandler := NewIngestHandler(ingestService)
	bridgeHandler := NewBridgeHandler(env.dispatchService, 50)
	syncHandler := NewSyncHandler(env.dispatchService, statusService, 50)
	conflictHandler := NewConflictHandler(conflictService, statusService)
	configHandler := NewBridgeConfigHandler(configService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, env.tenantID.String())
		c.Set(middleware.JWTOperatorIDKey, env.operatorID.String())
	})

	router.POST("/bridge/ingest", ingestHandler.Ingest)
	router.GET("/bridge/pending", bridgeHandler.FetchPending)
	router.POST("/bridge/outcome", bridgeHandler.ReportOutcome)
	router.POST("/bridge/conflicts", conflictHandler.Report)

	router.GET("/sync/queue", syncHandler.ListQueue)
	router.GET("/sync/queue/stats", syncHandler.QueueStats)
	router.POST("/sync/queue/:id/retry", syncHandler.RetryItem)
	router.POST("/sync/dispatch", syncHandler.Dispatch)
	router.GET("/sync/clients/:id/history", syncHandler.ClientHistory)
	router.GET("/sync/runs", syncHandler.RunLogs)
	router.GET("/sync/conflicts", conflictHandler.List)
	router.POST("/sync/conflicts/:id/resolve", conflictHandler.Resolve)
	router.GET("/sync/config", configHandler.Get)
	router.PUT("/sync/config", configHandler.Put)

	env.router = router
	return env
}

// do runs a request against the test router and returns the recorder
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a response envelope
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, got %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// configureBridge stores a usable bridge configuration for the env tenant
func (env *testEnv) configureBridge(t *testing.T) {
	t.Helper()
	rec := env.do(t, http.MethodPut, "/sync/config", gin.H{
		"system_name": "quickbooks",
		"endpoint":    "https://bridge.example.com/push",
		"credentials": "tok-123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
