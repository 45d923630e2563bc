package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"debtors/internal/analytics"
	"debtors/internal/ingest"
	"debtors/internal/risk"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/sheet-123_abc/edit#gid=0"

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "edit url", url: testSheetURL, want: "sheet-123_abc"},
		{name: "bare url", url: "https://docs.google.com/spreadsheets/d/XYZ", want: "XYZ"},
		{name: "not a sheet", url: "https://example.com/doc", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewSheetsServiceWithOptions(context.Background(), testSheetURL,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestReadRowsAndSources(t *testing.T) {
	worksheets := map[string][][]interface{}{
		"customers": {{"id", "name"}, {"C1", "Acme"}, {"C2", "Globex"}},
		"invoices":  {{"id", "customerId", "invoiceNumber", "value", "deductions", "issueDate", "dueDate", "status"}, {"I1", "C1", "INV-1", "100", "", "2024-01-01", "2024-01-31", "Pending"}},
		"Zahlungen": {{"id", "invoiceId", "amount", "paymentDate"}},
	}

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		prefix := "/v4/spreadsheets/sheet-123_abc/values/"
		require.True(t, strings.HasPrefix(r.URL.Path, prefix), r.URL.Path)
		rng := strings.TrimPrefix(r.URL.Path, prefix)
		name := strings.TrimSuffix(rng, "!A:Z")
		values, ok := worksheets[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]interface{}{"range": rng, "majorDimension": "ROWS", "values": values})
	})

	rows, err := svc.ReadRows(context.Background(), "customers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Globex", rows[1].Text("name"))

	sources := svc.Sources(ingest.ModeRaw, map[ingest.Role]string{ingest.RolePayments: "Zahlungen"})
	require.Len(t, sources, 3)
	assert.Equal(t, "Zahlungen", sources[ingest.RolePayments].Name())

	ds, err := ingest.NewLoader().Load(context.Background(), ingest.ModeRaw, sources)
	require.NoError(t, err)
	assert.Equal(t, map[ingest.Role]int{ingest.RoleCustomers: 2, ingest.RoleInvoices: 1, ingest.RolePayments: 0}, ds.Counts())
}

func TestReadRowsUnformattedValues(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		assert.Equal(t, "FORMATTED_STRING", r.URL.Query().Get("dateTimeRenderOption"))
		writeJSON(w, map[string]interface{}{
			"range":          "invoices!A1:H2",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"id", "customerId", "invoiceNumber", "value", "deductions", "issueDate", "dueDate", "status"},
				{"I1", 1234567, "INV-1", 60000, 0, "2024-01-01", "2024-01-31", "Overdue"},
			},
		})
	})

	rows, err := svc.ReadRows(context.Background(), "invoices")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	value, ok := rows[0].Float("value")
	assert.True(t, ok)
	assert.Equal(t, 60000.0, value)
	assert.Equal(t, "1234567", rows[0].Text("customerId"))
}

func TestReadRangeError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := svc.ReadRows(context.Background(), "customers")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReadRange")
}

func TestWriteCustomers(t *testing.T) {
	var (
		mu      sync.Mutex
		cleared bool
		written [][]interface{}
	)

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/sheet-123_abc":
			writeJSON(w, map[string]interface{}{
				"spreadsheetId": "sheet-123_abc",
				"sheets":        []interface{}{map[string]interface{}{"properties": map[string]interface{}{"title": "Risk", "sheetId": 7}}},
			})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/values/Risk!A1:J1"):
			writeJSON(w, map[string]interface{}{"values": [][]interface{}{{"Customer ID"}}})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/values/Risk!A2:J:clear"):
			cleared = true
			writeJSON(w, map[string]interface{}{})
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/values/Risk!A2"):
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			written = body.Values
			writeJSON(w, map[string]interface{}{})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	rollups := []analytics.CustomerRollup{
		{Key: "C1", Name: "Acme", Outstanding: decimal.NewFromInt(60000), OverdueCount: 1, InvoiceCount: 2, Risk: risk.High},
	}
	require.NoError(t, svc.WriteCustomers(context.Background(), rollups, "Risk"))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, cleared)
	require.Len(t, written, 1)
	assert.Equal(t, "C1", written[0][0])
	assert.Equal(t, 60000.0, written[0][4])
	assert.Equal(t, "High", written[0][8])
}
