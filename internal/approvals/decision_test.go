package approvals_test

import (
	"testing"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/google/uuid"
)

func TestIsMember(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	group := &approvals.ApproverGroup{
		ID:        uuid.New(),
		Name:      "Editors",
		MemberIDs: []uuid.UUID{uuid.New(), member},
	}

	if !approvals.IsMember(group, member) {
		t.Fatal("IsMember() = false for a member")
	}
	if approvals.IsMember(group, outsider) {
		t.Fatal("IsMember() = true for an outsider")
	}
	if approvals.IsMember(nil, member) {
		t.Fatal("IsMember(nil, ...) = true")
	}
	if approvals.IsMember(&approvals.ApproverGroup{}, member) {
		t.Fatal("IsMember() = true for an empty group")
	}
}

func TestRequiresApproval(t *testing.T) {
	author := uuid.New()
	reviewer := uuid.New()

	withAuthor := &approvals.TaskInstance{
		Group: &approvals.ApproverGroup{MemberIDs: []uuid.UUID{author, reviewer}},
	}
	withoutAuthor := &approvals.TaskInstance{
		Group: &approvals.ApproverGroup{MemberIDs: []uuid.UUID{reviewer}},
	}

	if approvals.RequiresApproval(withAuthor, author) {
		t.Fatal("RequiresApproval() = true when the author is a group member")
	}
	if !approvals.RequiresApproval(withoutAuthor, author) {
		t.Fatal("RequiresApproval() = false when the author is not a group member")
	}

	groupless := &approvals.TaskInstance{}
	if !approvals.RequiresApproval(groupless, author) {
		t.Fatal("RequiresApproval() = false for a task with no resolved group")
	}
}
