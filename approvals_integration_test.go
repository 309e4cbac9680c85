package approvals_test

import (
	"context"
	"strings"
	"testing"

	approvals "github.com/goliatone/go-approvals"
	"github.com/goliatone/go-approvals/internal/di"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/google/uuid"
)

func TestModuleRunsTwoStepWorkflowOverMemoryStorage(t *testing.T) {
	ctx := context.Background()

	nodeRepo := nodes.NewMemoryNodeRepository()
	module, err := approvals.New(approvals.DefaultConfig(), di.WithNodeRepository(nodeRepo))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	author := uuid.New()
	editor := uuid.New()
	publisher := uuid.New()

	nodeID := uuid.New()
	nodeRepo.Put(&approvals.Node{ID: nodeID, Depth: 1, Slug: "annual-report", Title: "Annual Report"})

	for step, member := range []uuid.UUID{editor, publisher} {
		if _, err := module.Groups().Create(ctx, &approvals.ApproverGroup{
			ID:        uuid.New(),
			Name:      "Step Reviewers",
			NodeID:    &nodeID,
			StepIndex: step,
			MemberIDs: []uuid.UUID{member},
		}); err != nil {
			t.Fatalf("seed group %d: %v", step, err)
		}
	}

	instance, err := module.Engine().Initiate(ctx, approvals.InitiateInput{
		NodeID:   nodeID,
		AuthorID: author,
		Comment:  "ready for review",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if instance.Status != approvals.WorkflowStatusPendingApproval {
		t.Fatalf("status = %q, want pending_approval", instance.Status)
	}

	pending, total, err := module.Queries().PendingTasksForUser(ctx, editor, 10, 0)
	if err != nil {
		t.Fatalf("PendingTasksForUser: %v", err)
	}
	if total != 1 || len(pending) != 1 {
		t.Fatalf("pending for editor = %d (total %d), want 1", len(pending), total)
	}

	instance, err = module.Engine().Action(ctx, instance, approvals.ActionApprove, editor, "looks good")
	if err != nil {
		t.Fatalf("editor approve: %v", err)
	}
	if instance.Status != approvals.WorkflowStatusPendingApproval {
		t.Fatalf("status after step one = %q, want pending_approval", instance.Status)
	}

	instance, err = module.Engine().Action(ctx, instance, approvals.ActionApprove, publisher, "ship it")
	if err != nil {
		t.Fatalf("publisher approve: %v", err)
	}
	if instance.Status != approvals.WorkflowStatusCompleted {
		t.Fatalf("final status = %q, want completed", instance.Status)
	}

	submissions, _, err := module.Queries().SubmissionsByAuthor(ctx, author, 10, 0)
	if err != nil {
		t.Fatalf("SubmissionsByAuthor: %v", err)
	}
	if len(submissions) != 1 {
		t.Fatalf("submissions = %d, want 1", len(submissions))
	}
}

func TestModuleSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()

	module, err := approvals.New(approvals.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := `{
		"version": 1,
		"groups": [
			{"name": "Default Approvers", "step_index": 0, "member_ids": ["` + uuid.NewString() + `"]}
		]
	}`
	if _, err := module.Settings().ImportJSON(ctx, []byte(doc)); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	exported, err := module.Settings().ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !strings.Contains(string(exported), "Default Approvers") {
		t.Fatalf("exported document missing group: %s", exported)
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := approvals.GetMigrationsFS().ReadDir("data/sql/migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) < 4 {
		t.Fatalf("expected the approvals schema migrations, got %d files", len(entries))
	}
}
