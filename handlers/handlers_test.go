package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"simulacro-server/bank"
	"simulacro-server/exam"
	"simulacro-server/models"
)

type stubSource struct {
	bank *bank.QuestionBank
	err  error
}

func (s *stubSource) Load(context.Context) (*bank.QuestionBank, error) { return s.bank, s.err }
func (s *stubSource) Invalidate()                                      {}

func testRecords() []models.QuestionRecord {
	return []models.QuestionRecord{
		{ID: "Q1", Area: "Civil", Type: "Teoria", Prompt: "Capital of France?", OptionA: "London", OptionB: "Paris", CorrectOption: "B", Explanation: "Paris is the capital."},
		{ID: "Q2", Area: "Civil", Type: "Caso", CaseContext: "narrative", Prompt: "Pick one", OptionA: "Yes", OptionB: "No", CorrectOption: "A"},
		{ID: "Q3", Area: "Penal", Type: "Teoria", Prompt: "Another", OptionA: "x", OptionB: "y", CorrectOption: "B"},
	}
}

func newTestAPI(src bank.Source) (*gin.Engine, *exam.Registry) {
	gin.SetMode(gin.TestMode)
	registry := exam.NewRegistry(time.Minute)

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	apiV1.GET("/bank", GetBankInfo(src))
	apiV1.POST("/sessions", StartSession(src, registry))
	apiV1.POST("/sessions/:session_id/answer", RecordSessionAnswer(registry))
	apiV1.GET("/sessions/:session_id/status", GetSessionStatus(registry))
	apiV1.POST("/sessions/:session_id/submit", SubmitSession(registry))
	apiV1.DELETE("/sessions/:session_id", DeleteSession(registry))
	return router, registry
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetBankInfo(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodGet, "/api/v1/bank", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var info models.BankInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.QuestionCount != 3 || len(info.Areas) != 2 {
		t.Fatalf("unexpected bank info: %+v", info)
	}
}

func TestGetBankInfoLoadError(t *testing.T) {
	src := &stubSource{err: errors.New("sheet not public")}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodGet, "/api/v1/bank", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("load failure must halt with 502, got %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", models.StartSessionRequest{
		AreaFilter:      "Civil",
		QuestionCount:   2,
		DurationMinutes: 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var started models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	if len(started.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(started.Questions))
	}
	for _, q := range started.Questions {
		if q.Area != "Civil" {
			t.Fatalf("question escaped the area filter: %+v", q)
		}
	}

	// Answer the first question with one of its options.
	answer := models.AnswerRequest{QuestionIndex: 0, Selection: started.Questions[0].Options[0]}
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/answer", answer)
	if w.Code != http.StatusOK {
		t.Fatalf("answer failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+started.SessionID+"/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status failed: %d", w.Code)
	}
	var status models.SessionStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Phase != "in_progress" || status.AnsweredCount != 1 || status.RemainingCount != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.TimeRemaining) != 5 || status.TimeRemaining[2] != ':' {
		t.Fatalf("time remaining not MM:SS formatted: %q", status.TimeRemaining)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit failed: %d %s", w.Code, w.Body.String())
	}
	var first models.ResultsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to decode results: %v", err)
	}
	if first.Total != 2 || first.FinishedBy != "submit" {
		t.Fatalf("unexpected results: %+v", first)
	}

	// Submitting again re-scores identically.
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/submit", nil)
	var second models.ResultsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to decode second results: %v", err)
	}
	if first.CorrectCount != second.CorrectCount || first.Percentage != second.Percentage {
		t.Fatalf("re-submit diverged: %+v vs %+v", first, second)
	}

	// Answers are frozen once finished.
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/answer", answer)
	if w.Code != http.StatusConflict {
		t.Fatalf("answer after submit should conflict, got %d", w.Code)
	}
}

func TestStartSessionEmptyPoolKeepsConfiguring(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, registry := newTestAPI(src)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", models.StartSessionRequest{
		AreaFilter:      "Mercantil",
		QuestionCount:   5,
		DurationMinutes: 5,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty pool should be 422, got %d: %s", w.Code, w.Body.String())
	}
	if registry.Count() != 0 {
		t.Fatalf("no session may be created on an empty pool, got %d", registry.Count())
	}
}

func TestStartSessionWarnsAndReduces(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", models.StartSessionRequest{
		QuestionCount:   50,
		DurationMinutes: 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("reduction is non-fatal, got %d: %s", w.Code, w.Body.String())
	}
	var started models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(started.Questions) != 3 {
		t.Fatalf("expected all 3 available questions, got %d", len(started.Questions))
	}
	if started.Note == "" {
		t.Fatal("reduction must be surfaced in the note, never silent")
	}
}

func TestRecordAnswerRejectsBadSelection(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", models.StartSessionRequest{
		QuestionCount:   1,
		DurationMinutes: 5,
	})
	var started models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	w = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/sessions/%s/answer", started.SessionID),
		models.AnswerRequest{QuestionIndex: 0, Selection: "not an option"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid selection should be 400, got %d", w.Code)
	}
}

func TestDeleteSessionClears(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, registry := newTestAPI(src)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", models.StartSessionRequest{
		QuestionCount:   1,
		DurationMinutes: 5,
	})
	var started models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+started.SessionID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", w.Code)
	}
	if registry.Count() != 0 {
		t.Fatalf("session should be discarded, got %d live", registry.Count())
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+started.SessionID+"/status", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status of a discarded session should be 404, got %d", w.Code)
	}

	// The bank itself is untouched by the reset.
	w = doJSON(t, router, http.MethodGet, "/api/v1/bank", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bank should still be available after reset: %d", w.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	src := &stubSource{bank: bank.FromRecords(testRecords(), time.Now())}
	router, _ := newTestAPI(src)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessions/nope/status", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}
