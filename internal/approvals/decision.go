package approvals

import "github.com/google/uuid"

// IsMember reports whether the user belongs to the group's member set.
func IsMember(group *ApproverGroup, userID uuid.UUID) bool {
	if group == nil {
		return false
	}
	for _, member := range group.MemberIDs {
		if member == userID {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether a task needs explicit human sign-off.
// A submitter cannot be required to approve their own submission, so a group
// containing the author resolves the step without a human action. The task
// must carry its resolved group; callers resolve before deciding.
func RequiresApproval(task *TaskInstance, authorID uuid.UUID) bool {
	if task == nil || task.Group == nil {
		return true
	}
	return !IsMember(task.Group, authorID)
}
