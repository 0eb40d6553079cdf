package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgertrace/internal/export/service"
	dErrors "ledgertrace/pkg/domain-errors"
)

type fakeService struct {
	result  *service.ExportResult
	exports []service.ExportFile
	path    string
	err     error
	lastReq service.ExportRequest
}

func (f *fakeService) Export(ctx context.Context, req service.ExportRequest) (*service.ExportResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeService) FilePath(filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeService) ListExports() ([]service.ExportFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exports, nil
}

func newTestRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleExport(t *testing.T) {
	t.Run("returns the export result", func(t *testing.T) {
		svc := &fakeService{result: &service.ExportResult{
			FileName:    "Acme_LLC_report_2024-12-01_10-30-00.json",
			Format:      "json",
			RiskScore:   40,
			DownloadURL: "/exports/Acme_LLC_report_2024-12-01_10-30-00.json",
		}}
		router := newTestRouter(svc)

		body := `{
			"entity": {"name": "Acme LLC", "ein": "12-3456789"},
			"include_sections": ["court_activity"]
		}`
		req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Acme LLC", svc.lastReq.Entity.Name)
		assert.Equal(t, "12-3456789", svc.lastReq.Entity.EIN)
		assert.Equal(t, []string{"court_activity"}, svc.lastReq.Sections)

		var resp service.ExportResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "json", resp.Format)
		assert.Equal(t, 40, resp.RiskScore)
	})

	t.Run("validation failure maps to 400", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeBadRequest, "entity name is required")}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`{"entity": {}}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleList(t *testing.T) {
	svc := &fakeService{exports: []service.ExportFile{{
		FileName: "Acme_LLC_report_2024-12-01_10-30-00.json",
		Size:     512,
		Created:  time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC),
		Format:   "json",
	}}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/exports", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Exports []service.ExportFile `json:"exports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Exports, 1)
	assert.Equal(t, int64(512), resp.Exports[0].Size)
}

func TestHandleDownload(t *testing.T) {
	t.Run("serves the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "report.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ok": true}`), 0o640))

		router := newTestRouter(&fakeService{path: path})
		req := httptest.NewRequest(http.MethodGet, "/exports/report.json", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.json")
	})

	t.Run("missing export maps to 404", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeNotFound, "export not found")}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/exports/ghost.json", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
