package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/repository"
)

const (
	defaultMaxBranches = 6
	defaultMaxDepth    = 3
)

type MindMapService struct {
	repo repository.Repository
	llm  TextGenerator
}

func NewMindMapService(repo repository.Repository, llm TextGenerator) *MindMapService {
	return &MindMapService{repo: repo, llm: llm}
}

// Generate builds a concept map for a lecture. A lecture keeps at most one
// mind map: a second generate without regenerate is a conflict, with
// regenerate the stored map is replaced in place.
func (s *MindMapService) Generate(ctx context.Context, req dto.MindMapGenerateRequest) (*dto.MindMapResponse, error) {
	lecture, err := s.repo.FindLectureById(ctx, req.LectureID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindMindMapByLectureId(ctx, req.LectureID)
	if err == nil && existing != nil && !req.Regenerate {
		return nil, apperr.New(apperr.KindConflict, "MINDMAP_EXISTS",
			"mind map already exists for lecture %s, pass regenerate to replace it", req.LectureID)
	}
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	maxBranches := req.MaxBranches
	if maxBranches == 0 {
		maxBranches = defaultMaxBranches
	}
	maxDepth := req.MaxDepth
	if maxDepth == 0 {
		maxDepth = defaultMaxDepth
	}

	data, err := s.generateData(ctx, lecture, maxBranches, maxDepth)
	if err != nil {
		return nil, err
	}

	enforceCaps(data, maxBranches, maxDepth)
	mermaid := BuildMermaid(data)
	meta := computeMetadata(data, maxDepth)

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	mindMap := &entities.MindMap{
		ID:              uuid.New(),
		LectureID:       req.LectureID,
		Data:            raw,
		MermaidSyntax:   mermaid,
		NodeCount:       meta.NodeCount,
		BranchCount:     meta.BranchCount,
		MaxDepth:        meta.MaxDepth,
		ConnectionCount: meta.ConnectionCount,
	}
	if err := s.repo.UpsertMindMap(ctx, mindMap); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindMindMapByLectureId(ctx, req.LectureID)
	if err != nil {
		return nil, err
	}

	return &dto.MindMapResponse{
		LectureID:     req.LectureID,
		MindMapID:     stored.ID,
		MindMap:       *data,
		MermaidSyntax: mermaid,
		Metadata:      meta,
		CreatedAt:     stored.CreatedAt,
	}, nil
}

// Get returns the stored mind map.
func (s *MindMapService) Get(ctx context.Context, lectureID uuid.UUID) (*dto.MindMapResponse, error) {
	stored, err := s.repo.FindMindMapByLectureId(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	var data dto.MindMapData
	if err := json.Unmarshal(stored.Data, &data); err != nil {
		return nil, fmt.Errorf("decode stored mind map: %w", err)
	}

	return &dto.MindMapResponse{
		LectureID:     lectureID,
		MindMapID:     stored.ID,
		MindMap:       data,
		MermaidSyntax: stored.MermaidSyntax,
		Metadata: dto.MindMapMetadata{
			NodeCount:       stored.NodeCount,
			BranchCount:     stored.BranchCount,
			MaxDepth:        stored.MaxDepth,
			ConnectionCount: stored.ConnectionCount,
		},
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (s *MindMapService) Delete(ctx context.Context, lectureID uuid.UUID) error {
	if _, err := s.repo.FindMindMapByLectureId(ctx, lectureID); err != nil {
		return err
	}
	return s.repo.DeleteMindMap(ctx, lectureID)
}

func (s *MindMapService) generateData(ctx context.Context, lecture *entities.Lecture, maxBranches, maxDepth int) (*dto.MindMapData, error) {
	slides, err := s.repo.GetSlidesByLectureId(ctx, lecture.ID)
	if err != nil {
		return nil, err
	}

	var material strings.Builder
	for _, slide := range slides {
		material.WriteString(slide.Title)
		material.WriteString(": ")
		material.WriteString(slide.Narration)
		material.WriteString("\n")
	}
	source := material.String()
	if source == "" {
		source = lecture.Topic
	}

	prompt := fmt.Sprintf(`Build a concept mind map from this lecture.

Topic: %s
Material:
%s

Produce a JSON object:
{
  "central": {"id": "central", "label": "...", "description": "..."},
  "branches": [
    {"id": "b1", "label": "...", "parent": "central", "description": "...",
     "children": [{"id": "b1c1", "label": "...", "children": []}]}
  ],
  "connections": [{"from": "b1", "to": "b2", "type": "relates"}]
}

Rules:
- At most %d top-level branches.
- At most %d levels deep counting the central node as level 1.
- Node ids are short, unique, and alphanumeric.
- "connections" lists cross-branch relationships only.
- Respond with ONLY the JSON object.`, lecture.Topic, source, maxBranches, maxDepth)

	raw, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
	}

	data, parseErr := parseMindMap(raw)
	if parseErr != nil {
		zerolog.Ctx(ctx).Warn().Err(parseErr).Msg("malformed mind map, re-prompting once")
		raw, err = s.llm.GenerateJSON(ctx, fmt.Sprintf(
			"The previous response was invalid (%v). Return ONLY the corrected JSON object.\n\nPrevious response:\n%s",
			parseErr, raw))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
		}
		data, parseErr = parseMindMap(raw)
		if parseErr != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "MALFORMED_CONTENT", parseErr)
		}
	}
	return data, nil
}

func parseMindMap(raw string) (*dto.MindMapData, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var data dto.MindMapData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("decode mind map: %w", err)
	}
	if strings.TrimSpace(data.Central.Label) == "" {
		return nil, fmt.Errorf("mind map has no central node")
	}
	if len(data.Branches) == 0 {
		return nil, fmt.Errorf("mind map has no branches")
	}
	return &data, nil
}

// enforceCaps trims the model output to the requested branch count and depth
// instead of failing; the caps are presentation limits, not correctness.
func enforceCaps(data *dto.MindMapData, maxBranches, maxDepth int) {
	if len(data.Branches) > maxBranches {
		data.Branches = data.Branches[:maxBranches]
	}
	for i := range data.Branches {
		// Branch children start at level 3.
		data.Branches[i].Children = trimDepth(data.Branches[i].Children, 3, maxDepth)
	}

	ids := collectIDs(data)
	kept := data.Connections[:0]
	for _, c := range data.Connections {
		if ids[c.From] && ids[c.To] {
			kept = append(kept, c)
		}
	}
	data.Connections = kept
}

func trimDepth(children []dto.MindMapChild, level, maxDepth int) []dto.MindMapChild {
	if level > maxDepth {
		return nil
	}
	for i := range children {
		children[i].Children = trimDepth(children[i].Children, level+1, maxDepth)
	}
	return children
}

func collectIDs(data *dto.MindMapData) map[string]bool {
	ids := map[string]bool{data.Central.ID: true}
	var walk func(children []dto.MindMapChild)
	walk = func(children []dto.MindMapChild) {
		for _, c := range children {
			ids[c.ID] = true
			walk(c.Children)
		}
	}
	for _, b := range data.Branches {
		ids[b.ID] = true
		walk(b.Children)
	}
	return ids
}

func computeMetadata(data *dto.MindMapData, requestedDepth int) dto.MindMapMetadata {
	nodeCount := 1
	depth := 1

	var walk func(children []dto.MindMapChild, level int)
	walk = func(children []dto.MindMapChild, level int) {
		for _, c := range children {
			nodeCount++
			if level > depth {
				depth = level
			}
			walk(c.Children, level+1)
		}
	}
	for _, b := range data.Branches {
		nodeCount++
		if depth < 2 {
			depth = 2
		}
		walk(b.Children, 3)
	}

	return dto.MindMapMetadata{
		NodeCount:       nodeCount,
		BranchCount:     len(data.Branches),
		MaxDepth:        depth,
		ConnectionCount: len(data.Connections),
	}
}

// BuildMermaid renders the map as a Mermaid "graph TD" definition, ready for
// client-side rendering.
func BuildMermaid(data *dto.MindMapData) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "    %s[%q]\n", mermaidID(data.Central.ID), data.Central.Label)

	var walk func(parentID string, children []dto.MindMapChild)
	walk = func(parentID string, children []dto.MindMapChild) {
		for _, c := range children {
			fmt.Fprintf(&b, "    %s --> %s[%q]\n", mermaidID(parentID), mermaidID(c.ID), c.Label)
			walk(c.ID, c.Children)
		}
	}

	for _, branch := range data.Branches {
		parent := branch.Parent
		if parent == "" {
			parent = data.Central.ID
		}
		fmt.Fprintf(&b, "    %s --> %s[%q]\n", mermaidID(parent), mermaidID(branch.ID), branch.Label)
		walk(branch.ID, branch.Children)
	}

	for _, c := range data.Connections {
		fmt.Fprintf(&b, "    %s -.->|%s| %s\n", mermaidID(c.From), c.Type, mermaidID(c.To))
	}
	return b.String()
}

// mermaidID strips characters that break Mermaid node identifiers.
func mermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}
