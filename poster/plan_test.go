package poster

import (
	"reflect"
	"testing"
)

func TestParseBody(t *testing.T) {
	got := ParseBody("# Intro\n  body text  \n\n## Part\nmore")
	want := []Block{
		{Kind: BlockHeading1, Text: "Intro"},
		{Kind: BlockBody, Text: "body text"},
		{Kind: BlockSpacer},
		{Kind: BlockHeading2, Text: "Part"},
		{Kind: BlockBody, Text: "more"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseBody = %+v, want %+v", got, want)
	}
}

func TestParseBodyBlank(t *testing.T) {
	if got := ParseBody(" \n \n"); got != nil {
		t.Errorf("ParseBody(blank) = %+v, want nil", got)
	}
}

func TestParseBodyMarkerNeedsSpace(t *testing.T) {
	got := ParseBody("#tag\n###deep")
	for _, b := range got {
		if b.Kind != BlockBody {
			t.Errorf("block %q kind = %d, want body", b.Text, b.Kind)
		}
	}
}

// describe flattens a plan into short tokens for comparison.
func describe(steps []Step) []string {
	var out []string
	for _, s := range steps {
		switch s.Kind {
		case StepTitle:
			out = append(out, "title")
		case StepSubtitle:
			out = append(out, "subtitle")
		case StepBlock:
			if s.Block.Kind == BlockSpacer {
				out = append(out, "spacer")
			} else {
				out = append(out, s.Block.Text)
			}
		case StepImage:
			out = append(out, "img"+string(rune('A'+s.Image)))
		}
	}
	return out
}

func TestPlanImagePositions(t *testing.T) {
	req := Request{
		Mode:  ModeContent,
		Title: "T",
		Body:  "p1\np2\np3",
		Images: []Image{
			{Data: "a", Position: 0},
			{Data: "b", Position: 2},
			{Data: "c", Position: 10},
		},
	}
	got := describe(Plan(req))
	want := []string{"title", "imgA", "p1", "p2", "imgB", "p3", "imgC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan = %v, want %v", got, want)
	}
}

func TestPlanOrdersByPositionThenInput(t *testing.T) {
	req := Request{
		Mode:  ModeContent,
		Title: "T",
		Body:  "p1\np2",
		Images: []Image{
			{Data: "a", Position: 2},
			{Data: "b", Position: 1},
			{Data: "c", Position: 1},
		},
	}
	got := describe(Plan(req))
	want := []string{"title", "p1", "imgB", "imgC", "p2", "imgA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan = %v, want %v", got, want)
	}
}

func TestPlanNegativePositionClampsToTop(t *testing.T) {
	req := Request{
		Mode:     ModeContent,
		Title:    "T",
		Subtitle: "S",
		Body:     "p1",
		Images:   []Image{{Data: "a", Position: -3}},
	}
	got := describe(Plan(req))
	want := []string{"title", "subtitle", "imgA", "p1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan = %v, want %v", got, want)
	}
}

func TestPlanSpacersDoNotCountAsParagraphs(t *testing.T) {
	req := Request{
		Mode:   ModeContent,
		Title:  "T",
		Body:   "p1\n\np2",
		Images: []Image{{Data: "a", Position: 2}},
	}
	got := describe(Plan(req))
	want := []string{"title", "p1", "spacer", "p2", "imgA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan = %v, want %v", got, want)
	}
}

func TestPlanImagesWithoutBody(t *testing.T) {
	req := Request{
		Mode:   ModeContent,
		Title:  "T",
		Images: []Image{{Data: "a", Position: 0}, {Data: "b", Position: 5}},
	}
	got := describe(Plan(req))
	want := []string{"title", "imgA", "imgB"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan = %v, want %v", got, want)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"cover", ModeCover, false},
		{"content", ModeContent, false},
		{"", ModeContent, false},
		{" Cover ", ModeCover, false},
		{"banner", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"cover with title", Request{Mode: ModeCover, Title: "x"}, nil},
		{"cover without title", Request{Mode: ModeCover, Body: "x"}, ErrTitleRequired},
		{"cover blank title", Request{Mode: ModeCover, Title: "  "}, ErrTitleRequired},
		{"content body only", Request{Mode: ModeContent, Body: "x"}, nil},
		{"content title only", Request{Mode: ModeContent, Title: "x"}, nil},
		{"content empty", Request{Mode: ModeContent, Subtitle: "x"}, ErrContentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Validate(); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}
