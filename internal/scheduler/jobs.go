package scheduler

import "github.com/google/uuid"

// JobTypeNodePublish releases an approved content node for publication.
const JobTypeNodePublish = "approvals.node.publish"

// NodePublishJobKey builds the per-node job key so re-approving a node
// replaces any earlier publish schedule.
func NodePublishJobKey(id uuid.UUID) string {
	return "node:" + id.String() + ":publish"
}
