package skills

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm/anthropic"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

type fakeVendorClient struct {
	uploadCalls int
	uploadErr   error
	vendorID    string
	catalog     []anthropic.VendorSkill
}

func (f *fakeVendorClient) UploadSkill(_ context.Context, _, _ string) (string, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.vendorID, nil
}

func (f *fakeVendorClient) ListSkills(_ context.Context) ([]anthropic.VendorSkill, error) {
	return f.catalog, nil
}

func newTestService(vendor *fakeVendorClient) (*Service, *persistence.MemoryAgentRepository) {
	agents := persistence.NewMemoryAgentRepository()
	skills := persistence.NewMemorySkillRepository()
	return NewService(skills, agents, vendor, zap.NewNop()), agents.(*persistence.MemoryAgentRepository)
}

func writeBundle(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "name: " + name + "\ndescription: test bundle\nversion: \"1.0\"\n"
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

func seedAgent(t *testing.T, agents *persistence.MemoryAgentRepository) *entity.Agent {
	t.Helper()
	agent, err := entity.NewAgent("agent-1", "summarizer", "", "Summarize {doc}", "", 0, -1)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	if err := agents.Save(context.Background(), agent); err != nil {
		t.Fatalf("save agent: %v", err)
	}
	return agent
}

func TestRegisterPrebuilt(t *testing.T) {
	svc, _ := newTestService(&fakeVendorClient{})
	ctx := context.Background()

	skill, err := svc.RegisterPrebuilt(ctx, "pptx")
	if err != nil {
		t.Fatalf("RegisterPrebuilt: %v", err)
	}
	if skill.Kind() != entity.SkillKindPrebuilt {
		t.Errorf("kind = %s, want prebuilt", skill.Kind())
	}
	if !skill.IsReady() {
		t.Error("prebuilt skill should be ready immediately")
	}
	if skill.VendorID() != "pptx" {
		t.Errorf("vendor id = %q, want %q", skill.VendorID(), "pptx")
	}

	if _, err := svc.RegisterPrebuilt(ctx, "pptx"); !domainErrors.IsAlreadyExists(err) {
		t.Errorf("duplicate registration error = %v, want ALREADY_EXISTS", err)
	}
	if _, err := svc.RegisterPrebuilt(ctx, "sketchup"); !domainErrors.IsInvalidInput(err) {
		t.Errorf("unknown prebuilt error = %v, want INVALID_INPUT", err)
	}
}

func TestIngestCustomSuccess(t *testing.T) {
	vendor := &fakeVendorClient{vendorID: "skill_abc123"}
	svc, _ := newTestService(vendor)
	dir := writeBundle(t, "report-writer")

	skill, err := svc.IngestCustom(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestCustom: %v", err)
	}
	if !skill.IsReady() {
		t.Fatalf("status = %s, want uploaded", skill.Status())
	}
	if skill.VendorID() != "skill_abc123" {
		t.Errorf("vendor id = %q, want %q", skill.VendorID(), "skill_abc123")
	}
	if vendor.uploadCalls != 1 {
		t.Errorf("upload calls = %d, want 1", vendor.uploadCalls)
	}
}

func TestIngestCustomUploadFailureKeepsFailedRecord(t *testing.T) {
	vendor := &fakeVendorClient{uploadErr: errors.New("api unreachable")}
	svc, _ := newTestService(vendor)
	dir := writeBundle(t, "report-writer")
	ctx := context.Background()

	skill, err := svc.IngestCustom(ctx, dir)
	if err != nil {
		t.Fatalf("IngestCustom: %v", err)
	}
	if skill.Status() != entity.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", skill.Status())
	}
	if skill.UploadError() == "" {
		t.Error("upload error should be recorded")
	}

	// The failed record stays visible in the registry.
	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("registry size = %d, want 1", len(all))
	}

	// Retry succeeds once the vendor recovers.
	vendor.uploadErr = nil
	vendor.vendorID = "skill_retry"
	retried, err := svc.RetryUpload(ctx, skill.ID())
	if err != nil {
		t.Fatalf("RetryUpload: %v", err)
	}
	if !retried.IsReady() || retried.VendorID() != "skill_retry" {
		t.Errorf("retried skill status = %s vendor = %q", retried.Status(), retried.VendorID())
	}
}

func TestIngestCustomDuplicateName(t *testing.T) {
	svc, _ := newTestService(&fakeVendorClient{vendorID: "skill_1"})
	ctx := context.Background()

	if _, err := svc.IngestCustom(ctx, writeBundle(t, "report-writer")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := svc.IngestCustom(ctx, writeBundle(t, "report-writer")); !domainErrors.IsAlreadyExists(err) {
		t.Errorf("duplicate ingest error = %v, want ALREADY_EXISTS", err)
	}
}

func TestAttachDetachLifecycle(t *testing.T) {
	vendor := &fakeVendorClient{vendorID: "skill_1"}
	svc, agents := newTestService(vendor)
	ctx := context.Background()
	agent := seedAgent(t, agents)

	skill, err := svc.RegisterPrebuilt(ctx, "xlsx")
	if err != nil {
		t.Fatalf("RegisterPrebuilt: %v", err)
	}

	if err := svc.Attach(ctx, agent.ID(), skill.ID()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := svc.Attach(ctx, agent.ID(), skill.ID()); !domainErrors.IsAlreadyExists(err) {
		t.Errorf("double attach error = %v, want ALREADY_EXISTS", err)
	}

	attached, err := svc.ListByAgent(ctx, agent.ID())
	if err != nil {
		t.Fatalf("ListByAgent: %v", err)
	}
	if len(attached) != 1 || attached[0].ID() != skill.ID() {
		t.Fatalf("attached = %v, want [%s]", attached, skill.ID())
	}

	// Attached skills cannot be deleted.
	if err := svc.Delete(ctx, skill.ID()); !domainErrors.IsInvalidInput(err) {
		t.Errorf("delete attached error = %v, want INVALID_INPUT", err)
	}

	if err := svc.Detach(ctx, agent.ID(), skill.ID()); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if err := svc.Detach(ctx, agent.ID(), skill.ID()); !domainErrors.IsNotFound(err) {
		t.Errorf("double detach error = %v, want NOT_FOUND", err)
	}
	if err := svc.Delete(ctx, skill.ID()); err != nil {
		t.Fatalf("Delete after detach: %v", err)
	}
}

func TestAttachRejectsNotReadySkill(t *testing.T) {
	vendor := &fakeVendorClient{uploadErr: errors.New("api unreachable")}
	svc, agents := newTestService(vendor)
	ctx := context.Background()
	agent := seedAgent(t, agents)

	skill, err := svc.IngestCustom(ctx, writeBundle(t, "broken"))
	if err != nil {
		t.Fatalf("IngestCustom: %v", err)
	}
	if err := svc.Attach(ctx, agent.ID(), skill.ID()); !domainErrors.IsInvalidInput(err) {
		t.Errorf("attach failed skill error = %v, want INVALID_INPUT", err)
	}
}

func TestAttachUnknownAgent(t *testing.T) {
	svc, _ := newTestService(&fakeVendorClient{})
	ctx := context.Background()

	skill, err := svc.RegisterPrebuilt(ctx, "pdf")
	if err != nil {
		t.Fatalf("RegisterPrebuilt: %v", err)
	}
	if err := svc.Attach(ctx, "missing", skill.ID()); !domainErrors.IsNotFound(err) {
		t.Errorf("attach to missing agent error = %v, want NOT_FOUND", err)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadManifest(dir); err == nil {
		t.Error("expected error for missing manifest")
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("description: nameless\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Error("expected error for manifest without name")
	}
}
