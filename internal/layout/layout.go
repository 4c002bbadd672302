package layout

import (
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
)

// PageKind distinguishes the two alternating pages of a group.
type PageKind string

const (
	PromptPage PageKind = "prompt"
	AnswerPage PageKind = "answer"
)

// Labels printed above card text.
const (
	PromptLabel = "PROMPT:"
	AnswerLabel = "THE ANSWER:"
)

// Align is horizontal text alignment relative to Text.X.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// Page is one printed sheet side.
type Page struct {
	Kind   PageKind `json:"kind"`
	Group  int      `json:"group"`
	Blocks []Block  `json:"blocks"`
}

// Block is one card on a page.
type Block struct {
	Slot   int    `json:"slot"`
	CardID int    `json:"card_id"`
	Frame  Rect   `json:"frame"`
	Label  *Text  `json:"label,omitempty"`
	Body   *Text  `json:"body,omitempty"`
	Meta   *Text  `json:"meta,omitempty"`
	Board  *Image `json:"board,omitempty"`
}

// Empty reports whether the block draws nothing but its frame.
func (b Block) Empty() bool {
	return b.Label == nil && b.Body == nil && b.Meta == nil && b.Board == nil
}

// Text is a run of text with its first baseline at Y.
// Width is the wrap width; targets wrap with their own font metrics.
type Text struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Content string  `json:"content"`
	Font    Font    `json:"font"`
	Align   Align   `json:"align"`
}

// Image is a board picture drawn into Rect.
type Image struct {
	Rect
	FEN string `json:"fen"`
}

// Group splits cards into consecutive runs of at most n, keeping order.
func Group(cards []card.Flashcard, n int) [][]card.Flashcard {
	if n < 1 {
		n = 1
	}
	groups := make([][]card.Flashcard, 0, (len(cards)+n-1)/n)
	for start := 0; start < len(cards); start += n {
		end := min(start+n, len(cards))
		groups = append(groups, cards[start:end])
	}
	return groups
}

// Paginate lays cards out with the A4 geometry.
func Paginate(cards []card.Flashcard) []Page {
	return A4().Paginate(cards)
}

// Paginate emits, for each group of cards, a prompt page followed by its answer page.
func (g Geometry) Paginate(cards []card.Flashcard) []Page {
	groups := Group(cards, g.GroupSize)
	pages := make([]Page, 0, 2*len(groups))
	for gi, group := range groups {
		prompt := Page{Kind: PromptPage, Group: gi, Blocks: make([]Block, 0, len(group))}
		answer := Page{Kind: AnswerPage, Group: gi, Blocks: make([]Block, 0, len(group))}
		for slot, c := range group {
			prompt.Blocks = append(prompt.Blocks, g.PromptBlock(slot, c))
			answer.Blocks = append(answer.Blocks, g.AnswerBlock(slot, c))
		}
		pages = append(pages, prompt, answer)
	}
	return pages
}

// PromptBlock lays out the front of c in slot.
func (g Geometry) PromptBlock(slot int, c card.Flashcard) Block {
	frame := g.Frame(slot)
	x := frame.X + g.TextInset
	board := g.BoardRect(frame.Y)
	return Block{
		Slot:   slot,
		CardID: c.CardID,
		Frame:  frame,
		Label: &Text{
			X: x, Y: frame.Y + g.LabelOffset,
			Content: PromptLabel, Font: g.LabelFont, Align: AlignLeft,
		},
		Body: &Text{
			X: x, Y: frame.Y + g.BodyOffset, Width: g.PromptTextWidth(),
			Content: `"` + c.Front.CommentText + `"`,
			Font:    g.PromptFont, Align: AlignLeft,
		},
		Meta: &Text{
			X: x, Y: frame.Y + g.CardHeight - g.MetaOffset,
			Content: c.Back.Meta(), Font: g.MetaFont, Align: AlignLeft,
		},
		Board: &Image{Rect: board, FEN: c.Back.PositionFEN},
	}
}

// AnswerBlock lays out the back of c in slot. Cards without an answer get a bare frame.
func (g Geometry) AnswerBlock(slot int, c card.Flashcard) Block {
	frame := g.Frame(slot)
	b := Block{Slot: slot, CardID: c.CardID, Frame: frame}
	if !c.Back.HasAnswer() {
		return b
	}
	centre := g.PageWidth / 2
	b.Label = &Text{
		X: centre, Y: frame.Y + g.AnswerLabelOffset,
		Content: AnswerLabel, Font: g.AnswerLabelFont, Align: AlignCenter,
	}
	b.Body = &Text{
		X: centre, Y: frame.Y + g.CardHeight/2 + g.AnswerBodyOffset, Width: g.AnswerTextWidth(),
		Content: c.Back.VariationsText, Font: g.AnswerFont, Align: AlignCenter,
	}
	return b
}
