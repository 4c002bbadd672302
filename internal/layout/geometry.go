// Package layout arranges flashcards into alternating prompt and answer pages.
//
// Every output target reads positions from one Geometry table, so the print
// view on screen and the generated PDF place each block at the same millimetre
// coordinates.
package layout

// Font describes a text style. Family and Style use PDF core font names
// ("helvetica", "times"; "", "B", "I", "BI"). Size is in points, Gray is 0-255.
type Font struct {
	Family string  `json:"family"`
	Style  string  `json:"style"`
	Size   float64 `json:"size"`
	Gray   int     `json:"gray"`
}

// PointsPerMM converts millimetres to points.
const PointsPerMM = 72 / 25.4

// SizeMM returns the font size in millimetres.
func (f Font) SizeMM() float64 {
	return f.Size / PointsPerMM
}

// Bold reports whether the style includes bold.
func (f Font) Bold() bool {
	return f.Style == "B" || f.Style == "BI"
}

// Italic reports whether the style includes italic.
func (f Font) Italic() bool {
	return f.Style == "I" || f.Style == "BI"
}

// Geometry is the fixed layout table. All lengths are millimetres.
type Geometry struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	SideMargin float64 `json:"side_margin"`
	TopMargin  float64 `json:"top_margin"`
	CardHeight float64 `json:"card_height"`
	Gap        float64 `json:"gap"`
	GroupSize  int     `json:"group_size"`

	CornerRadius float64 `json:"corner_radius"`
	BorderWidth  float64 `json:"border_width"`
	BorderGray   int     `json:"border_gray"`

	BoardSize   float64 `json:"board_size"`
	BoardInset  float64 `json:"board_inset"`
	TextInset   float64 `json:"text_inset"`
	LabelOffset float64 `json:"label_offset"`
	BodyOffset  float64 `json:"body_offset"`
	MetaOffset  float64 `json:"meta_offset"`
	ImageGutter float64 `json:"image_gutter"`

	AnswerLabelOffset float64 `json:"answer_label_offset"`
	AnswerBodyOffset  float64 `json:"answer_body_offset"`
	AnswerTextInset   float64 `json:"answer_text_inset"`

	// LineHeight is the baseline distance of wrapped lines relative to the font size.
	LineHeight float64 `json:"line_height"`

	LabelFont       Font `json:"label_font"`
	PromptFont      Font `json:"prompt_font"`
	MetaFont        Font `json:"meta_font"`
	AnswerLabelFont Font `json:"answer_label_font"`
	AnswerFont      Font `json:"answer_font"`
}

// A4 returns the layout used for printed cards.
func A4() Geometry {
	return Geometry{
		PageWidth:  210,
		PageHeight: 297,
		SideMargin: 35,
		TopMargin:  15,
		CardHeight: 65,
		Gap:        10.58,
		GroupSize:  3,

		CornerRadius: 10,
		BorderWidth:  1.8,
		BorderGray:   20,

		BoardSize:   48,
		BoardInset:  8,
		TextInset:   10,
		LabelOffset: 12,
		BodyOffset:  22,
		MetaOffset:  10,
		ImageGutter: 65,

		AnswerLabelOffset: 15,
		AnswerBodyOffset:  6,
		AnswerTextInset:   30,

		LineHeight: 1.15,

		LabelFont:       Font{Family: "helvetica", Style: "B", Size: 8, Gray: 150},
		PromptFont:      Font{Family: "times", Style: "I", Size: 16, Gray: 30},
		MetaFont:        Font{Family: "helvetica", Style: "", Size: 7, Gray: 150},
		AnswerLabelFont: Font{Family: "helvetica", Style: "B", Size: 8, Gray: 150},
		AnswerFont:      Font{Family: "times", Style: "BI", Size: 26, Gray: 0},
	}
}

// CardWidth is the width of every card frame.
func (g Geometry) CardWidth() float64 {
	return g.PageWidth - 2*g.SideMargin
}

// SlotY is the top edge of slot i on any page.
func (g Geometry) SlotY(slot int) float64 {
	return g.TopMargin + float64(slot)*(g.CardHeight+g.Gap)
}

// PromptTextWidth is the wrap width of prompt text, leaving the board gutter free.
func (g Geometry) PromptTextWidth() float64 {
	return g.CardWidth() - g.ImageGutter
}

// AnswerTextWidth is the wrap width of answer text.
func (g Geometry) AnswerTextWidth() float64 {
	return g.CardWidth() - g.AnswerTextInset
}

// LineAdvance returns the distance between wrapped baselines for f.
func (g Geometry) LineAdvance(f Font) float64 {
	return f.SizeMM() * g.LineHeight
}

// Frame returns the card rectangle of a slot.
func (g Geometry) Frame(slot int) Rect {
	return Rect{X: g.SideMargin, Y: g.SlotY(slot), W: g.CardWidth(), H: g.CardHeight}
}

// BoardRect returns the board image rectangle in a card starting at top:
// flush with the right inset and vertically centred.
func (g Geometry) BoardRect(top float64) Rect {
	return Rect{
		X: g.PageWidth - g.BoardSize - g.SideMargin - g.BoardInset,
		Y: top + (g.CardHeight-g.BoardSize)/2,
		W: g.BoardSize,
		H: g.BoardSize,
	}
}

// Rect is an axis-aligned rectangle in millimetres.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
