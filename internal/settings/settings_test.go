package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/settings"
	"github.com/google/uuid"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := approvals.NewMemoryGroupRepository()
	svc := settings.New(repo, settings.WithClock(fixedClock))

	nodeID := uuid.New()
	reviewer := uuid.New()
	doc := &settings.Document{
		Version: settings.DocumentVersion,
		Groups: []settings.GroupEntry{
			{Name: "Editors", NodeID: nodeID.String(), StepIndex: 0, MemberIDs: []string{reviewer.String()}},
			{Name: "Publishers", NodeID: nodeID.String(), StepIndex: 1, MemberIDs: []string{reviewer.String()}},
			{Name: "Default Approvers", StepIndex: 0, MemberIDs: []string{reviewer.String()}},
		},
	}

	result, err := svc.Import(ctx, doc)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Groups != 3 {
		t.Fatalf("imported groups = %d, want 3", result.Groups)
	}

	exported, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(exported.Groups) != 3 {
		t.Fatalf("exported groups = %d, want 3", len(exported.Groups))
	}

	defaultGroup, err := repo.GetDefault(ctx)
	if err != nil {
		t.Fatalf("GetDefault() error = %v", err)
	}
	if defaultGroup.Name != "Default Approvers" {
		t.Fatalf("default group = %q, want Default Approvers", defaultGroup.Name)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := approvals.NewMemoryGroupRepository()
	svc := settings.New(repo, settings.WithClock(fixedClock))

	nodeID := uuid.New()
	doc := &settings.Document{
		Version: settings.DocumentVersion,
		Groups: []settings.GroupEntry{
			{Name: "Editors", NodeID: nodeID.String(), StepIndex: 0, MemberIDs: []string{uuid.New().String()}},
		},
	}

	if _, err := svc.Import(ctx, doc); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	first, _, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if _, err := svc.Import(ctx, doc); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	second, _, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("group counts = %d then %d, want 1 and 1", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("group id changed across imports: %s then %s", first[0].ID, second[0].ID)
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	svc := settings.New(approvals.NewMemoryGroupRepository(), settings.WithClock(fixedClock))

	cases := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"version": `, settings.ErrInvalidDocument},
		{"missing groups", `{"version": 1}`, settings.ErrInvalidDocument},
		{"unknown field", `{"version": 1, "groups": [], "extra": true}`, settings.ErrInvalidDocument},
		{"bad member id", `{"version": 1, "groups": [{"name": "A", "step_index": 0, "member_ids": ["nope"]}]}`, settings.ErrInvalidDocument},
		{"future version", `{"version": 9, "groups": []}`, settings.ErrUnsupportedVersion},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ImportJSON(ctx, []byte(tc.data)); !errors.Is(err, tc.want) {
				t.Fatalf("ImportJSON() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestImportRejectsBrokenChains(t *testing.T) {
	ctx := context.Background()
	svc := settings.New(approvals.NewMemoryGroupRepository(), settings.WithClock(fixedClock))

	nodeID := uuid.New()
	doc := &settings.Document{
		Version: settings.DocumentVersion,
		Groups: []settings.GroupEntry{
			{Name: "Editors", NodeID: nodeID.String(), StepIndex: 0, MemberIDs: []string{uuid.New().String()}},
			{Name: "Publishers", NodeID: nodeID.String(), StepIndex: 2, MemberIDs: []string{uuid.New().String()}},
		},
	}

	if _, err := svc.Import(ctx, doc); !errors.Is(err, settings.ErrBrokenChain) {
		t.Fatalf("Import() error = %v, want ErrBrokenChain", err)
	}
}
