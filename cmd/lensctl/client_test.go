package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunDecode_SendsPayloadAndToken(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/decode" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := runDecode(srv.URL, "secret", "", "450 oak st, portland, or", "100 main st", &out)
	if err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["address"] != "450 oak st, portland, or" {
		t.Errorf("address = %v", gotBody["address"])
	}
	prefs, _ := gotBody["preferences"].(map[string]interface{})
	if prefs["workAddress"] != "100 main st" {
		t.Errorf("preferences = %v", gotBody["preferences"])
	}
	if !strings.Contains(out.String(), "abc123") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunDecode_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"listing is missing required fields","code":"data_quality_error"}`))
	}))
	defer srv.Close()

	err := runDecode(srv.URL, "", "", "1 nowhere rd", "", io.Discard)
	if err == nil || !strings.Contains(err.Error(), "http 422") {
		t.Fatalf("expected http 422 error, got %v", err)
	}
}

func TestRunReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/report/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"abc123","slug":"portland-oak-74"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := runReport(srv.URL, "abc123", &out); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	if !strings.Contains(out.String(), "portland-oak-74") {
		t.Errorf("output = %q", out.String())
	}
}
