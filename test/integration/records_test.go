package integration

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/export"
)

type recordResponse struct {
	Status string `json:"status"`
	Data   struct {
		Record api.Record `json:"record"`
	} `json:"data"`
}

type recordsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Records []api.Record `json:"records"`
	} `json:"data"`
}

func createRecord(t *testing.T, tok string, fields api.RecordFields) api.Record {
	t.Helper()
	resp := doJSON(t, http.DefaultClient, http.MethodPost, testEnv.BaseURL()+"/api/records",
		api.CreateRecordRequest{RecordFields: fields}, tok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create record: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var body recordResponse
	decodeJSON(t, resp, &body)
	return body.Data.Record
}

func TestRecordLifecycle(t *testing.T) {
	register(t, "Cashier Hana", "hana@school.test", "hana-pass")
	userTok := login(t, newClient(t), "hana@school.test", "hana-pass")
	adminTok := login(t, newClient(t), adminEmail, adminPassword)

	rec := createRecord(t, userTok, api.RecordFields{
		FirstName: "Ivo", LastName: "Reyes", Course: "BSCS", YearLevel: "2",
		PaymentFor: "tuition", Amount: "1500.00", ReceivedBy: "Hana",
	})
	if rec.ID == 0 {
		t.Fatal("record id not assigned")
	}
	if rec.LastUpdatedBy != "Cashier Hana" {
		t.Errorf("last_updated_by = %q, want the caller's name", rec.LastUpdatedBy)
	}

	path := fmt.Sprintf("%s/api/records/%d", testEnv.BaseURL(), rec.ID)

	resp := doJSON(t, http.DefaultClient, http.MethodPut, path, api.UpdateRecordRequest{
		RecordFields: api.RecordFields{FirstName: "Ivo", LastName: "Reyes", Amount: "1750.00"},
	}, userTok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var updated recordResponse
	decodeJSON(t, resp, &updated)
	if updated.Data.Record.Amount != "1750.00" {
		t.Errorf("amount = %q, want 1750.00", updated.Data.Record.Amount)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPut, path, api.UpdateRecordRequest{
		ID:           rec.ID + 1000,
		RecordFields: api.RecordFields{FirstName: "Ivo", LastName: "Reyes"},
	}, userTok)
	expectFail(t, resp, http.StatusBadRequest, "")

	// Deleting is reserved for admins.
	resp = doJSON(t, http.DefaultClient, http.MethodDelete, path, nil, userTok)
	expectFail(t, resp, http.StatusForbidden, "You are not allowed to perform this action")

	resp = doJSON(t, http.DefaultClient, http.MethodDelete, path, nil, adminTok)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = doJSON(t, http.DefaultClient, http.MethodDelete, path, nil, adminTok)
	expectFail(t, resp, http.StatusNotFound, "No record with that Id exists")
}

func TestListRecords(t *testing.T) {
	register(t, "Cashier Jun", "jun@school.test", "jun-pass")
	tok := login(t, newClient(t), "jun@school.test", "jun-pass")

	createRecord(t, tok, api.RecordFields{FirstName: "Kai", LastName: "Lim", Amount: "10"})

	resp := doJSON(t, http.DefaultClient, http.MethodGet, testEnv.BaseURL()+"/api/records", nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var body recordsResponse
	decodeJSON(t, resp, &body)

	found := false
	for _, r := range body.Data.Records {
		if r.FirstName == "Kai" && r.LastName == "Lim" {
			found = true
		}
	}
	if !found {
		t.Errorf("created record missing from list of %d", len(body.Data.Records))
	}
}

func TestListUsersAdminOnly(t *testing.T) {
	register(t, "Lea", "lea@school.test", "lea-pass")
	userTok := login(t, newClient(t), "lea@school.test", "lea-pass")
	adminTok := login(t, newClient(t), adminEmail, adminPassword)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, testEnv.BaseURL()+"/api/users", nil, userTok)
	expectFail(t, resp, http.StatusForbidden, "")

	resp = doJSON(t, http.DefaultClient, http.MethodGet, testEnv.BaseURL()+"/api/users", nil, adminTok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	body := readBody(t, resp)
	if bytes.Contains([]byte(body), []byte(`"password"`)) {
		t.Error("user listing leaks password field")
	}
}

func TestExportWorkbook(t *testing.T) {
	register(t, "Cashier Mo", "mo@school.test", "mo-pass")
	userTok := login(t, newClient(t), "mo@school.test", "mo-pass")
	adminTok := login(t, newClient(t), adminEmail, adminPassword)

	createRecord(t, userTok, api.RecordFields{FirstName: "Nia", LastName: "Ortiz", Amount: "99"})

	resp := doJSON(t, http.DefaultClient, http.MethodPost, testEnv.BaseURL()+"/api/records/export", nil, adminTok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create export: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = doJSON(t, http.DefaultClient, http.MethodGet, testEnv.BaseURL()+"/api/records/export", nil, adminTok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download export: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Content-Type = %q, want %q", ct, export.ContentType)
	}

	f, err := excelize.OpenReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("workbook has %d rows, want header plus records", len(rows))
	}
	if rows[0][0] != export.Headers[0] {
		t.Errorf("first header = %q, want %q", rows[0][0], export.Headers[0])
	}
}
