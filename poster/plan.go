package poster

import (
	"sort"
	"strings"
)

// BlockKind classifies one paragraph of the body.
type BlockKind int

const (
	BlockSpacer BlockKind = iota
	BlockBody
	BlockHeading1
	BlockHeading2
)

// Block is a classified body paragraph with its marker stripped.
type Block struct {
	Kind BlockKind
	Text string
}

// ParseBody splits body text on line breaks and classifies each trimmed
// paragraph by its leading marker. Blank paragraphs become spacers.
func ParseBody(body string) []Block {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	lines := strings.Split(body, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case t == "":
			blocks = append(blocks, Block{Kind: BlockSpacer})
		case strings.HasPrefix(t, "# "):
			blocks = append(blocks, Block{Kind: BlockHeading1, Text: t[2:]})
		case strings.HasPrefix(t, "## "):
			blocks = append(blocks, Block{Kind: BlockHeading2, Text: t[3:]})
		default:
			blocks = append(blocks, Block{Kind: BlockBody, Text: t})
		}
	}
	return blocks
}

// StepKind identifies one element of the content-mode flow.
type StepKind int

const (
	StepTitle StepKind = iota
	StepSubtitle
	StepBlock
	StepImage
)

// Step is one element of the content-mode flow, in drawing order.
type Step struct {
	Kind StepKind
	// Block is set for StepBlock.
	Block Block
	// Paragraph is the 1-based number of a non-spacer block, 0 for spacers.
	Paragraph int
	// Image indexes Request.Images for StepImage.
	Image int
}

// Plan computes the content-mode drawing order: title, subtitle, images at
// position 0, then each paragraph followed by the images anchored to it, then
// the images appended at the end.
func Plan(req Request) []Step {
	var steps []Step
	if strings.TrimSpace(req.Title) != "" {
		steps = append(steps, Step{Kind: StepTitle})
	}
	if strings.TrimSpace(req.Subtitle) != "" {
		steps = append(steps, Step{Kind: StepSubtitle})
	}

	blocks := ParseBody(req.Body)
	paragraphs := 0
	for _, b := range blocks {
		if b.Kind != BlockSpacer {
			paragraphs++
		}
	}
	slots := anchorImages(req.Images, paragraphs)

	appendImages := func(slot int) {
		for _, i := range slots[slot] {
			steps = append(steps, Step{Kind: StepImage, Image: i})
		}
	}

	appendImages(0)
	n := 0
	for _, b := range blocks {
		if b.Kind == BlockSpacer {
			steps = append(steps, Step{Kind: StepBlock, Block: b})
			continue
		}
		n++
		steps = append(steps, Step{Kind: StepBlock, Block: b, Paragraph: n})
		appendImages(n)
	}
	appendImages(paragraphs + 1)
	return steps
}

// anchorImages buckets image indexes by flow slot. Slot 0 is after the title,
// slot k is after paragraph k, slot paragraphs+1 is the end. Negative
// positions clamp to 0 and large ones to the end. Within a slot images keep
// ascending position order, ties in input order.
func anchorImages(images []Image, paragraphs int) [][]int {
	order := make([]int, len(images))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return images[order[a]].Position < images[order[b]].Position
	})

	slots := make([][]int, paragraphs+2)
	for _, i := range order {
		slot := min(max(images[i].Position, 0), paragraphs+1)
		slots[slot] = append(slots[slot], i)
	}
	return slots
}
