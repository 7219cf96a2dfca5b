package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

func TestMemorySkillRepositoryAttachmentOrder(t *testing.T) {
	repo := NewMemorySkillRepository()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		skill, err := entity.NewPrebuiltSkill(
			fmt.Sprintf("skill-%d", i),
			fmt.Sprintf("skill-name-%d", i),
			"",
			fmt.Sprintf("vendor-%d", i),
		)
		if err != nil {
			t.Fatalf("new skill: %v", err)
		}
		if err := repo.Save(ctx, skill); err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, skill.ID())
	}

	// Attach out of creation order; listing must follow attachment order.
	for _, id := range []string{ids[2], ids[0], ids[1]} {
		if err := repo.Attach(ctx, "agent-1", id); err != nil {
			t.Fatalf("attach %s: %v", id, err)
		}
	}

	attached, err := repo.FindByAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("FindByAgent: %v", err)
	}
	got := make([]string, 0, len(attached))
	for _, skill := range attached {
		got = append(got, skill.ID())
	}
	want := []string{ids[2], ids[0], ids[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("attachment order = %v, want %v", got, want)
		}
	}

	if err := repo.Attach(ctx, "agent-1", ids[0]); !domainErrors.IsAlreadyExists(err) {
		t.Errorf("duplicate attach err = %v", err)
	}

	count, err := repo.AttachedAgentCount(ctx, ids[0])
	if err != nil {
		t.Fatalf("AttachedAgentCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestMemoryExecutionRepositoryNewestFirst(t *testing.T) {
	repo := NewMemoryExecutionRepository()
	ctx := context.Background()

	agent, err := entity.NewAgent("agent-1", "summarizer", "", "Summarize {doc}", "", 0, -1)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		execution := entity.NewSuccessExecution(
			fmt.Sprintf("exec-%d", i), agent, "prompt", "model", "out",
			entity.Usage{}, 0.1, nil,
		)
		execution.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Save(ctx, execution); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := repo.FindAll(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	for i, wantID := range []string{"exec-2", "exec-1", "exec-0"} {
		if all[i].ID != wantID {
			t.Errorf("all[%d].ID = %s, want %s", i, all[i].ID, wantID)
		}
	}

	// Pagination applies after ordering.
	page, err := repo.FindAll(ctx, "", 1, 1)
	if err != nil {
		t.Fatalf("FindAll paged: %v", err)
	}
	if len(page) != 1 || page[0].ID != "exec-1" {
		t.Errorf("page = %v, want [exec-1]", page)
	}

	// Agent filter.
	filtered, err := repo.FindAll(ctx, "other-agent", 0, 0)
	if err != nil {
		t.Fatalf("FindAll filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("filtered = %d, want 0", len(filtered))
	}
}

func TestMemoryAgentRepositoryNotFound(t *testing.T) {
	repo := NewMemoryAgentRepository()
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, "missing"); !domainErrors.IsNotFound(err) {
		t.Errorf("FindByID err = %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !domainErrors.IsNotFound(err) {
		t.Errorf("Delete err = %v", err)
	}
}
