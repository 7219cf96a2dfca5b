package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

type stubInvoker struct {
	mu     sync.Mutex
	calls  int
	result *llm.Result
	err    error
}

func (s *stubInvoker) Invoke(_ context.Context, _ llm.Request) (*llm.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubInvoker) InvokeStream(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
	return nil, apperrors.NewInvocationFailedError("streaming not supported in stub", nil)
}

type handlerFixture struct {
	router     *gin.Engine
	agents     repository.AgentRepository
	executions repository.ExecutionRepository
	invoker    *stubInvoker
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agents := persistence.NewMemoryAgentRepository()
	skills := persistence.NewMemorySkillRepository()
	executions := persistence.NewMemoryExecutionRepository()
	invoker := &stubInvoker{result: &llm.Result{
		Output: "done",
		Model:  "claude-sonnet-4-5",
		Usage:  entity.Usage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7},
	}}

	handler := NewAgentHandler(agents, skills, executions, invoker, zap.NewNop())

	router := gin.New()
	router.POST("/api/agents", handler.Create)
	router.GET("/api/agents", handler.List)
	router.GET("/api/agents/:id", handler.Get)
	router.PUT("/api/agents/:id", handler.Update)
	router.DELETE("/api/agents/:id", handler.Delete)
	router.POST("/api/agents/:id/execute", handler.Execute)
	router.POST("/api/execute", handler.ExecuteAdHoc)

	return &handlerFixture{router: router, agents: agents, executions: executions, invoker: invoker}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func createAgent(t *testing.T, f *handlerFixture, name string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/agents", CreateAgentRequest{
		Name:           name,
		PromptTemplate: "Summarize {doc} in {language}",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["id"].(string)
}

func TestCreateAgentAppliesDefaults(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/agents", CreateAgentRequest{
		Name:           "summarizer",
		PromptTemplate: "Summarize {doc}",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["model"] != entity.DefaultModel {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"].(float64) != float64(entity.DefaultMaxTokens) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	vars, _ := body["variables"].([]interface{})
	if len(vars) != 1 || vars[0] != "doc" {
		t.Errorf("variables = %v, want [doc]", vars)
	}
}

func TestCreateAgentExplicitZeroTemperature(t *testing.T) {
	f := newHandlerFixture(t)
	zero := 0.0
	rec := f.do(t, http.MethodPost, "/api/agents", CreateAgentRequest{
		Name:           "deterministic",
		PromptTemplate: "Classify {doc}",
		Temperature:    &zero,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if temp := decodeBody(t, rec)["temperature"].(float64); temp != 0 {
		t.Errorf("temperature = %v, want explicit 0 preserved", temp)
	}
}

func TestCreateAgentDuplicateName(t *testing.T) {
	f := newHandlerFixture(t)
	createAgent(t, f, "summarizer")
	rec := f.do(t, http.MethodPost, "/api/agents", CreateAgentRequest{
		Name:           "summarizer",
		PromptTemplate: "whatever {x}",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestCreateAgentMissingTemplate(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/agents", map[string]string{"name": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/agents/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateAgentPartial(t *testing.T) {
	f := newHandlerFixture(t)
	id := createAgent(t, f, "summarizer")

	rec := f.do(t, http.MethodPut, "/api/agents/"+id, map[string]interface{}{
		"description": "summarizes things",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["description"] != "summarizes things" {
		t.Errorf("description = %v", body["description"])
	}
	if body["name"] != "summarizer" {
		t.Errorf("name should be unchanged, got %v", body["name"])
	}
}

func TestDeleteAgentKeepsHistory(t *testing.T) {
	f := newHandlerFixture(t)
	id := createAgent(t, f, "summarizer")

	rec := f.do(t, http.MethodPost, "/api/agents/"+id+"/execute", ExecuteRequest{
		Variables: map[string]string{"doc": "text", "language": "en"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("execute status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodDelete, "/api/agents/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/agents/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}

	records, err := f.executions.FindAll(context.Background(), id, 0, 0)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("history records = %d, want 1 after agent deletion", len(records))
	}
}

func TestExecuteMissingVariable(t *testing.T) {
	f := newHandlerFixture(t)
	id := createAgent(t, f, "summarizer")

	rec := f.do(t, http.MethodPost, "/api/agents/"+id+"/execute", ExecuteRequest{
		Variables: map[string]string{"doc": "text"}, // language missing
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if errText, _ := body["error"].(string); !strings.Contains(errText, "language") {
		t.Errorf("error should name the missing variable, got %v", body["error"])
	}
	if f.invoker.calls != 0 {
		t.Errorf("invoker calls = %d, want 0", f.invoker.calls)
	}
	records, _ := f.executions.FindAll(context.Background(), "", 0, 0)
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestExecuteInvocationFailure(t *testing.T) {
	f := newHandlerFixture(t)
	id := createAgent(t, f, "summarizer")
	f.invoker.err = apperrors.NewInvocationFailedError("model API request failed", nil)

	rec := f.do(t, http.MethodPost, "/api/agents/"+id+"/execute", ExecuteRequest{
		Variables: map[string]string{"doc": "text", "language": "en"},
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	records, _ := f.executions.FindAll(context.Background(), id, 0, 0)
	if len(records) != 1 || records[0].Status != entity.ExecutionFailed {
		t.Fatalf("expected one failed record, got %v", records)
	}
	if records[0].ErrorMessage != "model API request failed" {
		t.Errorf("error message = %q, want the bare message without a code prefix", records[0].ErrorMessage)
	}
}

func TestAdHocExecutePersistsAgentlessRecord(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/execute", AdHocExecuteRequest{
		Prompt: "Say hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["output"] != "done" {
		t.Errorf("output = %v", body["output"])
	}

	records, err := f.executions.FindAll(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	got := records[0]
	if got.AgentID != "" || got.AgentName != "" {
		t.Errorf("agent identity = (%q, %q), want empty for an ad-hoc run", got.AgentID, got.AgentName)
	}
	if got.Prompt != "Say hello" {
		t.Errorf("recorded prompt = %q", got.Prompt)
	}
	if got.Model != entity.DefaultModel || got.Temperature != entity.DefaultTemperature {
		t.Errorf("defaults not applied: model %q temperature %v", got.Model, got.Temperature)
	}
}

func TestAdHocExecuteFailureRecordsFailure(t *testing.T) {
	f := newHandlerFixture(t)
	f.invoker.err = apperrors.NewInvocationFailedError("model API request failed", nil)

	rec := f.do(t, http.MethodPost, "/api/execute", AdHocExecuteRequest{Prompt: "Say hello"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	records, _ := f.executions.FindAll(context.Background(), "", 0, 0)
	if len(records) != 1 || records[0].Status != entity.ExecutionFailed {
		t.Fatalf("expected one failed record, got %v", records)
	}
	if records[0].ErrorMessage != "model API request failed" {
		t.Errorf("error message = %q", records[0].ErrorMessage)
	}
}

func TestAdHocExecuteRequiresPrompt(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/execute", map[string]string{"model": "claude-sonnet-4-5"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if f.invoker.calls != 0 {
		t.Errorf("invoker calls = %d, want 0", f.invoker.calls)
	}
}

func TestExecuteSuccessPersistsRecord(t *testing.T) {
	f := newHandlerFixture(t)
	id := createAgent(t, f, "summarizer")

	rec := f.do(t, http.MethodPost, "/api/agents/"+id+"/execute", ExecuteRequest{
		Variables: map[string]string{"doc": "text", "language": "en"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["output"] != "done" {
		t.Errorf("output = %v", body["output"])
	}

	records, _ := f.executions.FindAll(context.Background(), id, 0, 0)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Prompt != "Summarize text in en" {
		t.Errorf("recorded prompt = %q", records[0].Prompt)
	}
	if records[0].Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d, want 7", records[0].Usage.TotalTokens)
	}
}
