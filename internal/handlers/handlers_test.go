package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/storage"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/types"
)

const testUploadKey = "workbooks/latest.xlsx"

type testService struct {
	router *gin.Engine
	store  *store.DocumentStore
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	docStore, err := store.NewDocumentStore(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	runStore, err := reconcile.NewFileRunStore(filepath.Join(dir, "runs.json"))
	require.NoError(t, err)
	uploads, err := storage.NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	engine, err := reconcile.NewEngine(docStore, runStore, pricing.DefaultSchedule(), reconcile.Options{
		Template:        "truper-v1",
		DefaultDiscount: 0.20,
		MaxDiscount:     0.95,
		ExchangeRate:    6.96,
		MaxRowErrors:    50,
	})
	require.NoError(t, err)

	h := New(docStore, engine, uploads, testUploadKey, store.ModeDocument)

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.GET("/catalog", h.GetCatalog)
	router.GET("/catalog/search", h.SearchCatalog)
	router.GET("/catalog/:code", h.GetCatalogEntry)
	router.POST("/internal/admin/reconcile", h.TriggerReconcile)
	router.GET("/internal/admin/templates", h.ListTemplates)
	router.POST("/internal/admin/workbooks", h.UploadWorkbook)
	router.GET("/internal/admin/workbooks", h.GetWorkbookInfo)
	router.GET("/internal/reconcile/runs", h.ListRuns)
	router.GET("/internal/reconcile/runs/:runId", h.GetRun)
	router.GET("/internal/catalog/:code/override", h.GetOverride)
	router.PUT("/internal/catalog/:code/override", h.PutOverride)

	return &testService{router: router, store: docStore}
}

func (s *testService) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// supplierWorkbookBytes builds a truper-v1 shaped workbook in memory.
func supplierWorkbookBytes(t *testing.T, discount string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("NUEVA LISTA DE PRECIOS")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(3+j, 13+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("NUEVA LISTA DE PRECIOS", cell, val))
		}
	}
	if discount != "" {
		_, err := f.NewSheet("HOJA PEDIDO")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("HOJA PEDIDO", "G6", discount))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func (s *testService) uploadWorkbook(t *testing.T, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/internal/admin/workbooks", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckDocumentMode(t *testing.T) {
	s := newTestService(t)

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "document", resp.Store)
	assert.Empty(t, resp.Database)
}

func TestUploadThenReconcile(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
		{"10511", "MARTILLO UNA", "PRETUL", "PZA", "", nil, 50.0},
	})

	w := s.uploadWorkbook(t, "lista-precios.xlsx", content)
	require.Equal(t, http.StatusOK, w.Code)

	var uploadResp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploadResp))
	assert.Equal(t, testUploadKey, uploadResp.Key)
	assert.Equal(t, "lista-precios.xlsx", uploadResp.OriginalName)
	assert.NotEmpty(t, uploadResp.Checksum)

	w = s.do(t, http.MethodGet, "/internal/admin/workbooks", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/internal/admin/reconcile", []byte(`{}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, types.DiscountSourceSheet, result.DiscountSource)
	assert.InDelta(t, 0.20, result.Discount, 1e-9)

	// 100 USD at 6.96 with 20% discount costs 556.80, priced at 20% margin
	w = s.do(t, http.MethodGet, "/catalog/22090", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.InDelta(t, 668.16, entry.BsPriceWeb, 1e-9)
}

func TestReconcileWithoutUpload(t *testing.T) {
	s := newTestService(t)

	w := s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileRejectsUnknownTemplate(t *testing.T) {
	s := newTestService(t)

	w := s.do(t, http.MethodPost, "/internal/admin/reconcile", []byte(`{"template":"no-such"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown template")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s := newTestService(t)

	w := s.uploadWorkbook(t, "lista.pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestUploadCSVKeepsExtensionForDetection(t *testing.T) {
	s := newTestService(t)

	// A workbook upload first, then a CSV replacing it
	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)

	var csvBody bytes.Buffer
	for i := 0; i < 12; i++ {
		csvBody.WriteString("x,x,x\n")
	}
	csvBody.WriteString(",,PR-22090,TALADRO 1/2,TRUPER,PZA,,100,\n")
	csvBody.WriteString(",,10511,MARTILLO UNA,PRETUL,PZA,,,50\n")

	w := s.uploadWorkbook(t, "lista-precios.csv", csvBody.Bytes())
	require.Equal(t, http.StatusOK, w.Code)

	var uploadResp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploadResp))
	assert.Equal(t, "workbooks/latest.csv", uploadResp.Key)

	// The CSV is now the one stored workbook
	w = s.do(t, http.MethodGet, "/internal/admin/workbooks", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info storage.FileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "workbooks/latest.csv", info.Key)

	// No template given: the .csv extension routes extraction, the default
	// discount applies since a CSV has no discount cell
	w = s.do(t, http.MethodPost, "/internal/admin/reconcile", []byte(`{}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "latest.csv", result.WorkbookFile)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, types.DiscountSourceDefault, result.DiscountSource)

	w = s.do(t, http.MethodGet, "/catalog/22090", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.InDelta(t, 668.16, entry.BsPriceWeb, 1e-9)
}

func TestReconcileReportsIgnoredDiscountOverride(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "15", [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)

	w := s.do(t, http.MethodPost, "/internal/admin/reconcile", []byte(`{"discount":"veinte"}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, types.DiscountSourceSheet, result.DiscountSource)
	assert.InDelta(t, 0.15, result.Discount, 1e-9)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], `"veinte"`)
}

func TestCatalogETagRevalidation(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil).Code)

	w := s.do(t, http.MethodGet, "/catalog", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=600")

	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = s.do(t, http.MethodGet, "/catalog", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)

	// A curated edit changes the catalog hash, so the old ETag stops matching
	w = s.do(t, http.MethodPut, "/internal/catalog/22090/override", []byte(`{"featured":true}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/catalog", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestSearchCatalogIgnoresAccents(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO PERCUTOR", "TRUPER", "PZA", "", 100.0, nil},
		{"10511", "MARTILLO UÑA RECTA", "PRETUL", "PZA", "", nil, 50.0},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil).Code)

	w := s.do(t, http.MethodGet, "/catalog/search?q=una+martillo", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchCatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "10511", resp.Entries[0].Code)

	w = s.do(t, http.MethodGet, "/catalog/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchCatalogHidesHiddenEntries(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO PERCUTOR", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil).Code)

	w := s.do(t, http.MethodPut, "/internal/catalog/22090/override", []byte(`{"hidden":true}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/catalog/search?q=taladro", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp SearchCatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestRunHistoryEndpoints(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO PERCUTOR", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)

	w := s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.RunID)

	w = s.do(t, http.MethodGet, "/internal/reconcile/runs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp ListRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Count)
	assert.Equal(t, result.RunID, listResp.Runs[0].ID)
	assert.Nil(t, listResp.Runs[0].Detail)

	w = s.do(t, http.MethodGet, "/internal/reconcile/runs/"+result.RunID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run types.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, types.StatusCompleted, run.Status)
	require.NotNil(t, run.Detail)
	assert.Equal(t, []string{"22090"}, run.Detail.CreatedCodes)

	w = s.do(t, http.MethodGet, "/internal/reconcile/runs/run_nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/internal/reconcile/runs?limit=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverrideEndpoints(t *testing.T) {
	s := newTestService(t)

	content := supplierWorkbookBytes(t, "20", [][]interface{}{
		{"22090", "TALADRO PERCUTOR", "TRUPER", "PZA", "", 100.0, nil},
	})
	require.Equal(t, http.StatusOK, s.uploadWorkbook(t, "lista.xlsx", content).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/internal/admin/reconcile", nil, nil).Code)

	body := []byte(`{"sale_label":"OFERTA","box_qty":12,"promo_price":599.9,"featured":true}`)
	w := s.do(t, http.MethodPut, "/internal/catalog/22090/override", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	require.NotNil(t, entry.SaleLabel)
	assert.Equal(t, "OFERTA", *entry.SaleLabel)
	require.NotNil(t, entry.BoxQty)
	assert.Equal(t, 12, *entry.BoxQty)
	assert.True(t, entry.Featured)

	// Clearing with an empty string removes the label
	w = s.do(t, http.MethodPut, "/internal/catalog/22090/override", []byte(`{"sale_label":""}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Nil(t, entry.SaleLabel)
	require.NotNil(t, entry.BoxQty)
	assert.Equal(t, 12, *entry.BoxQty)

	w = s.do(t, http.MethodPut, "/internal/catalog/22090/override", []byte(`{"promo_price":-5}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/internal/catalog/99999/override", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTemplates(t *testing.T) {
	s := newTestService(t)

	w := s.do(t, http.MethodGet, "/internal/admin/templates", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "truper-v1"))
}
