// Package settings imports and exports approver group assignments as a JSON
// document so operators can version approval topology alongside site content.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/identity"
	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentVersion is the only accepted document version.
const DocumentVersion = 1

var (
	// ErrInvalidDocument reports a document that failed schema validation.
	ErrInvalidDocument = errors.New("settings: invalid approvals document")
	// ErrUnsupportedVersion reports an unknown document version.
	ErrUnsupportedVersion = errors.New("settings: unsupported document version")
	// ErrBrokenChain reports non-contiguous step indices within one scope.
	ErrBrokenChain = errors.New("settings: approval chain steps must be contiguous from 0")
)

// Document is the serialized approval topology.
type Document struct {
	Version int          `json:"version"`
	Groups  []GroupEntry `json:"groups"`
}

// GroupEntry is one approver assignment. An entry without node and content
// type scope is the system-wide default approver.
type GroupEntry struct {
	Name          string   `json:"name"`
	NodeID        string   `json:"node_id,omitempty"`
	ContentTypeID string   `json:"content_type_id,omitempty"`
	StepIndex     int      `json:"step_index"`
	MemberIDs     []string `json:"member_ids"`
}

// ImportResult summarizes an applied import.
type ImportResult struct {
	Groups int
}

// Service round-trips approver assignments through the document format.
type Service interface {
	Export(ctx context.Context) (*Document, error)
	ExportJSON(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, doc *Document) (ImportResult, error)
	ImportJSON(ctx context.Context, data []byte) (ImportResult, error)
}

type service struct {
	groups approvals.GroupRepository
	clock  func() time.Time
	logger interfaces.Logger
}

// Option configures the settings service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger overrides the settings logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the settings service over the approver group store.
func New(groups approvals.GroupRepository, opts ...Option) Service {
	s := &service{
		groups: groups,
		clock:  time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Export(ctx context.Context) (*Document, error) {
	groups, _, err := s.groups.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	doc := &Document{Version: DocumentVersion, Groups: make([]GroupEntry, 0, len(groups))}
	for _, group := range groups {
		entry := GroupEntry{
			Name:      group.Name,
			StepIndex: group.StepIndex,
			MemberIDs: make([]string, 0, len(group.MemberIDs)),
		}
		if group.NodeID != nil {
			entry.NodeID = group.NodeID.String()
		}
		if group.ContentTypeID != nil {
			entry.ContentTypeID = group.ContentTypeID.String()
		}
		for _, member := range group.MemberIDs {
			entry.MemberIDs = append(entry.MemberIDs, member.String())
		}
		doc.Groups = append(doc.Groups, entry)
	}

	sort.Slice(doc.Groups, func(i, j int) bool {
		a, b := doc.Groups[i], doc.Groups[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.StepIndex < b.StepIndex
	})
	return doc, nil
}

func (s *service) ExportJSON(ctx context.Context) ([]byte, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *service) Import(ctx context.Context, doc *Document) (ImportResult, error) {
	if doc == nil {
		return ImportResult{}, fmt.Errorf("%w: missing document", ErrInvalidDocument)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return s.ImportJSON(ctx, encoded)
}

// ImportJSON validates the raw document against the embedded schema and
// replaces the full assignment set. Imported groups get deterministic
// identifiers derived from name, scope, and step, so repeated imports of the
// same document are idempotent.
func (s *service) ImportJSON(ctx context.Context, data []byte) (ImportResult, error) {
	if err := validateDocument(data); err != nil {
		return ImportResult{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version != DocumentVersion {
		return ImportResult{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	groups, err := s.buildGroups(doc.Groups)
	if err != nil {
		return ImportResult{}, err
	}

	if err := s.groups.ReplaceAll(ctx, groups); err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("approver assignments imported", "groups", len(groups))
	return ImportResult{Groups: len(groups)}, nil
}

func (s *service) buildGroups(entries []GroupEntry) ([]*approvals.ApproverGroup, error) {
	now := s.clock()
	groups := make([]*approvals.ApproverGroup, 0, len(entries))
	chains := map[string][]int{}

	for i, entry := range entries {
		group := &approvals.ApproverGroup{
			Name:      entry.Name,
			StepIndex: entry.StepIndex,
			CreatedAt: now,
			UpdatedAt: now,
		}

		scope := "default"
		if entry.NodeID != "" {
			nodeID, err := uuid.Parse(entry.NodeID)
			if err != nil {
				return nil, fmt.Errorf("%w: groups[%d].node_id: %v", ErrInvalidDocument, i, err)
			}
			group.NodeID = &nodeID
			scope = "node:" + nodeID.String()
		} else if entry.ContentTypeID != "" {
			contentTypeID, err := uuid.Parse(entry.ContentTypeID)
			if err != nil {
				return nil, fmt.Errorf("%w: groups[%d].content_type_id: %v", ErrInvalidDocument, i, err)
			}
			group.ContentTypeID = &contentTypeID
			scope = "type:" + contentTypeID.String()
		}

		if scope == "default" {
			group.ID = identity.DefaultGroupUUID()
		} else {
			group.ID = identity.GroupUUID(entry.Name, scope, entry.StepIndex)
		}

		group.MemberIDs = make([]uuid.UUID, 0, len(entry.MemberIDs))
		for j, member := range entry.MemberIDs {
			memberID, err := uuid.Parse(member)
			if err != nil {
				return nil, fmt.Errorf("%w: groups[%d].member_ids[%d]: %v", ErrInvalidDocument, i, j, err)
			}
			group.MemberIDs = append(group.MemberIDs, memberID)
		}

		chains[scope] = append(chains[scope], entry.StepIndex)
		groups = append(groups, group)
	}

	for scope, steps := range chains {
		if err := checkChain(scope, steps); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// checkChain enforces contiguous zero-based step indices within one scope.
func checkChain(scope string, steps []int) error {
	sort.Ints(steps)
	for i, step := range steps {
		if step != i {
			return fmt.Errorf("%w: scope %s has steps %v", ErrBrokenChain, scope, steps)
		}
	}
	return nil
}

func validateDocument(data []byte) error {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := documentSchema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

var documentSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("approvals-settings.json", bytes.NewReader([]byte(documentSchemaJSON))); err != nil {
		panic(err)
	}
	return compiler.MustCompile("approvals-settings.json")
}

const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "groups"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "step_index", "member_ids"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "node_id": {"type": "string"},
          "content_type_id": {"type": "string"},
          "step_index": {"type": "integer", "minimum": 0},
          "member_ids": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
