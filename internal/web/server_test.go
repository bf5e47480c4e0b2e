package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/config"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/stress"
)

const goodCSV = "type,name,amount,rate,duration,category,fixed_float,float_share,repricing_bucket\n" +
	"loan,Mortgages,1000,0.04,60,asset,fixed,0,>5y\n" +
	"deposit,Current Accounts,800,0.01,0,liability,float,1,0-1m\n"

const badCSV = "type,name,amount,rate,duration,category,fixed_float,float_share,repricing_bucket\n" +
	"loan,Mortgages,abc,0.04,60,asset,fixed,0,>5y\n"

// fakeStress records the submitted CSV and returns a canned outcome.
type fakeStress struct {
	gotCSV string
	err    error
}

func (f *fakeStress) Run(ctx context.Context, csvText string, params stress.Params) (*stress.Outcome, error) {
	f.gotCSV = csvText
	if f.err != nil {
		return nil, f.err
	}
	return &stress.Outcome{Equity: 500, Results: []stress.ShockResult{{ShockBps: 0}}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: time.Minute},
		Ingest:  config.IngestConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Preview: config.PreviewConfig{PageSize: 50, MaxPageSize: 500},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeStress) {
	t.Helper()
	cfg := testConfig()
	fs := &fakeStress{}
	svc := NewService(cfg, schema.Synonyms, fs, nil)
	return NewServer(svc, cfg), fs
}

// uploadCSV posts text as a multipart file and returns the decoded summary.
func uploadCSV(t *testing.T, srv *Server, fileName, text string, fields map[string]string) (RunSummary, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(text))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var summary RunSummary
	if rec.Code == http.StatusCreated {
		if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
	}
	return summary, rec
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestIngest_HappyPath(t *testing.T) {
	srv, _ := newTestServer(t)

	summary, rec := uploadCSV(t, srv, "book.csv", goodCSV, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if summary.RunID == "" || !summary.Ready {
		t.Errorf("summary = %+v, want run id and ready", summary)
	}
	if summary.ValidCount != 2 || summary.DiagnosticCount != 0 {
		t.Errorf("summary = %+v, want 2 valid rows", summary)
	}
	if summary.Delimiter != "," {
		t.Errorf("delimiter = %q, want comma", summary.Delimiter)
	}

	rec = get(t, srv, "/api/runs/"+summary.RunID)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
}

func TestIngest_DelimiterField(t *testing.T) {
	srv, _ := newTestServer(t)

	tabCSV := strings.ReplaceAll(goodCSV, ",", "\t")
	summary, rec := uploadCSV(t, srv, "book.csv", tabCSV, map[string]string{"delimiter": "tab"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if summary.Delimiter != "\t" || summary.ValidCount != 2 {
		t.Errorf("summary = %+v, want tab delimiter and 2 valid rows", summary)
	}

	_, rec = uploadCSV(t, srv, "book.csv", goodCSV, map[string]string{"delimiter": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown delimiter", rec.Code)
	}
}

func TestIngest_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		fileName   string
		text       string
		wantStatus int
		wantCode   string
	}{
		{"wrong extension", "book.xlsx", goodCSV, http.StatusBadRequest, "FILE003"},
		{"empty file", "book.csv", "", http.StatusBadRequest, "FILE005"},
		{"broken quoting", "book.csv", "type,name\n\"bad,row\nmore", http.StatusBadRequest, "FILE002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rec := uploadCSV(t, srv, tt.fileName, tt.text, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestIngest_NoFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("delimiter", ";")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunSummary_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/runs/no-such-run")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "RUN001" {
		t.Errorf("code = %q, want RUN001", resp.Code)
	}
}

func TestPreview(t *testing.T) {
	srv, _ := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	rec := get(t, srv, "/api/runs/"+summary.RunID+"/preview?query=mortgages")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Headers []string `json:"headers"`
		Page    struct {
			TotalRows int `json:"totalRows"`
			Page      int `json:"page"`
		} `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Page.TotalRows != 1 {
		t.Errorf("totalRows = %d, want 1 filtered match", resp.Page.TotalRows)
	}
	if len(resp.Headers) != 9 {
		t.Errorf("headers = %v, want 9 mapped", resp.Headers)
	}
}

func TestPreview_Virtualized(t *testing.T) {
	srv, _ := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	rec := get(t, srv, "/api/runs/"+summary.RunID+"/preview?scroll_top=0&viewport_height=320&row_height=32&overscan=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Window struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"window"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || resp.Window.End != 2 {
		t.Errorf("resp = %+v, want both rows in window", resp)
	}
}

func TestDiagnostics(t *testing.T) {
	srv, _ := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", badCSV, nil)

	if summary.Ready {
		t.Fatal("run with a bad amount must not be ready")
	}

	rec := get(t, srv, "/api/runs/"+summary.RunID+"/diagnostics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Total    int `json:"total"`
		ByColumn []struct {
			Field string `json:"field"`
		} `json:"byColumn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.ByColumn) != 1 || resp.ByColumn[0].Field != "amount" {
		t.Errorf("report = %+v, want one amount issue", resp)
	}

	rec = get(t, srv, "/api/runs/"+summary.RunID+"/diagnostics?format=text")
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("content type = %q, want text/plain", got)
	}
	if !strings.Contains(rec.Body.String(), "amount") {
		t.Errorf("text report missing column:\n%s", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	rec := get(t, srv, "/api/runs/"+summary.RunID+"/export?format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("lines = %d, want header + 2 rows", len(lines))
	}

	rec = get(t, srv, "/api/runs/"+summary.RunID+"/export?format=pdf")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown format", rec.Code)
	}
}

func TestTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/template")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "type,name,amount") {
		t.Errorf("template = %q, want canonical header", rec.Body.String())
	}

	rec = get(t, srv, "/api/template?format=json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for json template", rec.Code)
	}
}

func TestStress(t *testing.T) {
	srv, fs := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+summary.RunID+"/stress", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fs.gotCSV != goodCSV {
		t.Error("stress service must receive the original raw CSV text")
	}

	var out stress.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Equity != 500 {
		t.Errorf("equity = %v, want relayed 500", out.Equity)
	}
}

func TestStress_BlockedByDiagnostics(t *testing.T) {
	srv, fs := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", badCSV, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+summary.RunID+"/stress", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if fs.gotCSV != "" {
		t.Error("stress service must not be called while diagnostics are outstanding")
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "VAL003" {
		t.Errorf("code = %q, want VAL003", resp.Code)
	}
}

func TestStress_ServiceFailure(t *testing.T) {
	srv, fs := newTestServer(t)
	fs.err = errors.New("stress service: connection refused")
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+summary.RunID+"/stress", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestStress_CustomParams(t *testing.T) {
	srv, _ := newTestServer(t)
	summary, _ := uploadCSV(t, srv, "book.csv", goodCSV, nil)

	body := `{"shocks_bps":[0,100],"afs_haircut":0.2,"deposit_runoff":0.1,"deposit_beta_core":0.3,"deposit_beta_noncore":0.5,"lag_months":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+summary.RunID+"/stress", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	bad := `{"shocks_bps":[0],"afs_haircut":0.9}`
	req = httptest.NewRequest(http.MethodPost, "/api/runs/"+summary.RunID+"/stress", strings.NewReader(bad))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for out-of-range params", rec.Code)
	}
}

func TestSchema(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/schema")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Fields []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Fields) != 12 {
		t.Errorf("fields = %d, want 12", len(resp.Fields))
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestCurrentRunReplacement(t *testing.T) {
	srv, _ := newTestServer(t)

	first, _ := uploadCSV(t, srv, "a.csv", goodCSV, nil)
	second, _ := uploadCSV(t, srv, "b.csv", goodCSV, nil)

	cur := srv.service.Current()
	if cur == nil || cur.Result.RunID != second.RunID {
		t.Error("current run must be the latest upload")
	}
	// Earlier runs remain addressable.
	if _, err := srv.service.Run(first.RunID); err != nil {
		t.Errorf("first run lookup error = %v", err)
	}
}
