package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

const validMindMapDoc = `{
  "central": {"id": "central", "label": "Photosynthesis"},
  "branches": [
    {"id": "b1", "label": "Light Reactions", "parent": "central"},
    {"id": "b2", "label": "Calvin Cycle", "parent": "central"}
  ],
  "connections": [{"from": "b1", "to": "b2", "type": "feeds"}]
}`

func TestMindMapGenerateConflictsOnDuplicate(t *testing.T) {
	repo := newMemRepo()
	lecture := &entities.Lecture{ID: uuid.New(), Topic: "Photosynthesis"}
	if err := repo.CreateLecture(context.Background(), lecture); err != nil {
		t.Fatal(err)
	}
	llm := &fakeLLM{responses: []string{validMindMapDoc}}
	svc := NewMindMapService(repo, llm)
	ctx := context.Background()

	first, err := svc.Generate(ctx, dto.MindMapGenerateRequest{LectureID: lecture.ID})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Generate(ctx, dto.MindMapGenerateRequest{LectureID: lecture.ID})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate generate: kind = %v, want conflict", apperr.KindOf(err))
	}
	if apperr.CodeOf(err) != "MINDMAP_EXISTS" {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
	if llm.calls != 1 {
		t.Errorf("conflict must not call the model, calls = %d", llm.calls)
	}

	replaced, err := svc.Generate(ctx, dto.MindMapGenerateRequest{LectureID: lecture.ID, Regenerate: true})
	if err != nil {
		t.Fatal(err)
	}
	if replaced.MindMapID != first.MindMapID {
		t.Error("regenerate should replace the row in place, not create a second map")
	}
}

func sampleMap() *dto.MindMapData {
	return &dto.MindMapData{
		Central: dto.MindMapNode{ID: "central", Label: "Photosynthesis"},
		Branches: []dto.MindMapBranch{
			{ID: "b1", Label: "Light Reactions", Parent: "central", Children: []dto.MindMapChild{
				{ID: "b1c1", Label: "Chlorophyll", Children: []dto.MindMapChild{
					{ID: "b1c1c1", Label: "Pigments"},
				}},
			}},
			{ID: "b2", Label: "Calvin Cycle", Parent: "central"},
		},
		Connections: []dto.MindMapConnection{
			{From: "b1", To: "b2", Type: "feeds"},
		},
	}
}

func TestBuildMermaid(t *testing.T) {
	out := BuildMermaid(sampleMap())

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Error("mermaid output must start with graph TD")
	}
	for _, want := range []string{
		`central["Photosynthesis"]`,
		`central --> b1["Light Reactions"]`,
		`b1 --> b1c1["Chlorophyll"]`,
		`b1 -.->|feeds| b2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMermaidIDSanitizes(t *testing.T) {
	if got := mermaidID("b-1.x"); got != "b1x" {
		t.Errorf("mermaidID = %q", got)
	}
	if got := mermaidID("!!!"); got != "node" {
		t.Errorf("mermaidID fallback = %q", got)
	}
}

func TestEnforceCapsTrimsBranchesAndDepth(t *testing.T) {
	data := sampleMap()
	enforceCaps(data, 1, 2)

	if len(data.Branches) != 1 {
		t.Fatalf("branches = %d, want 1", len(data.Branches))
	}
	if len(data.Branches[0].Children) != 0 {
		t.Error("depth 2 should remove all branch children")
	}
	// b2 was trimmed, so the cross connection must go too.
	if len(data.Connections) != 0 {
		t.Errorf("connections = %d, want 0", len(data.Connections))
	}
}

func TestEnforceCapsKeepsWithinLimits(t *testing.T) {
	data := sampleMap()
	enforceCaps(data, 6, 4)

	if len(data.Branches) != 2 {
		t.Errorf("branches = %d", len(data.Branches))
	}
	if len(data.Connections) != 1 {
		t.Errorf("connections = %d", len(data.Connections))
	}
	if len(data.Branches[0].Children[0].Children) != 1 {
		t.Error("level 4 child should survive maxDepth 4")
	}
}

func TestComputeMetadata(t *testing.T) {
	meta := computeMetadata(sampleMap(), 5)

	// central + b1 + b2 + b1c1 + b1c1c1
	if meta.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", meta.NodeCount)
	}
	if meta.BranchCount != 2 {
		t.Errorf("BranchCount = %d, want 2", meta.BranchCount)
	}
	if meta.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", meta.MaxDepth)
	}
	if meta.ConnectionCount != 1 {
		t.Errorf("ConnectionCount = %d, want 1", meta.ConnectionCount)
	}
}
