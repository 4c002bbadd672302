// Package card defines the flashcard data model and decodes extraction output into it.
package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

// Flashcard is one prompt/answer pair derived from an annotated position.
type Flashcard struct {
	CardID int          `json:"card_id"`
	Front  FrontContent `json:"front_content"`
	Back   BackContent  `json:"back_content"`
}

// FrontContent is the prompt side of a card.
type FrontContent struct {
	CommentText string `json:"comment_text"`
}

// BackContent is the answer side of a card.
type BackContent struct {
	PositionFEN    string `json:"position_fen"`
	MainLineMove   string `json:"main_line_move"`
	VariationsText string `json:"variations_text"`
	MoveNumber     int    `json:"move_number"`
	PlayerToMove   string `json:"player_to_move"`
}

// HasAnswer reports whether the answer side has any content to render.
func (b BackContent) HasAnswer() bool {
	return strings.TrimSpace(b.VariationsText) != ""
}

// Meta returns the "Move N | Side" line printed under a prompt.
func (b BackContent) Meta() string {
	return fmt.Sprintf("Move %d | %s", b.MoveNumber, b.PlayerToMove)
}

// FENs returns the position of every card, in card order.
func FENs(cards []Flashcard) []string {
	fens := make([]string, len(cards))
	for i, c := range cards {
		fens[i] = c.Back.PositionFEN
	}
	return fens
}

// raw* mirror the wire shape with pointers so missing required fields are detectable.
type rawCard struct {
	CardID *int      `json:"card_id"`
	Front  *rawFront `json:"front_content"`
	Back   *rawBack  `json:"back_content"`
}

type rawFront struct {
	CommentText *string `json:"comment_text"`
}

type rawBack struct {
	PositionFEN    *string `json:"position_fen"`
	MainLineMove   *string `json:"main_line_move"`
	VariationsText *string `json:"variations_text"`
	MoveNumber     *int    `json:"move_number"`
	PlayerToMove   *string `json:"player_to_move"`
}

type rawEnvelope struct {
	Flashcards []rawCard `json:"flashcards"`
}

// Decode parses extraction output into flashcards.
// It accepts a bare array or an object with a "flashcards" array.
// Empty input returns EMPTY_RESPONSE; anything not matching the card shape returns MALFORMED_RESPONSE.
func Decode(data []byte) ([]Flashcard, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.NewEmptyResponse()
	}

	var raws []rawCard
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, errors.NewMalformedResponse("invalid JSON", err)
		}
	case '{':
		var env rawEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, errors.NewMalformedResponse("invalid JSON", err)
		}
		if env.Flashcards == nil {
			return nil, errors.NewMalformedResponse("missing flashcards array", nil)
		}
		raws = env.Flashcards
	default:
		return nil, errors.NewMalformedResponse("expected a JSON array of cards", nil)
	}

	cards := make([]Flashcard, 0, len(raws))
	seen := make(map[int]bool, len(raws))
	for i, r := range raws {
		c, err := r.toFlashcard()
		if err != nil {
			return nil, errors.NewMalformedResponse(fmt.Sprintf("card %d: %v", i, err), err)
		}
		if seen[c.CardID] {
			return nil, errors.NewMalformedResponse(fmt.Sprintf("card %d: duplicate card_id %d", i, c.CardID), nil)
		}
		seen[c.CardID] = true
		cards = append(cards, c)
	}
	return cards, nil
}

// DecodeString is Decode for text responses.
func DecodeString(text string) ([]Flashcard, error) {
	return Decode([]byte(text))
}

func (r rawCard) toFlashcard() (Flashcard, error) {
	switch {
	case r.CardID == nil:
		return Flashcard{}, fmt.Errorf("missing card_id")
	case r.Front == nil:
		return Flashcard{}, fmt.Errorf("missing front_content")
	case r.Front.CommentText == nil:
		return Flashcard{}, fmt.Errorf("missing front_content.comment_text")
	case strings.TrimSpace(*r.Front.CommentText) == "":
		return Flashcard{}, fmt.Errorf("empty front_content.comment_text")
	case r.Back == nil:
		return Flashcard{}, fmt.Errorf("missing back_content")
	case r.Back.PositionFEN == nil:
		return Flashcard{}, fmt.Errorf("missing back_content.position_fen")
	}

	c := Flashcard{
		CardID: *r.CardID,
		Front:  FrontContent{CommentText: *r.Front.CommentText},
		Back:   BackContent{PositionFEN: *r.Back.PositionFEN},
	}
	// variations_text may legitimately be null
	if r.Back.VariationsText != nil {
		c.Back.VariationsText = *r.Back.VariationsText
	}
	if r.Back.MainLineMove != nil {
		c.Back.MainLineMove = *r.Back.MainLineMove
	}
	if r.Back.MoveNumber != nil {
		c.Back.MoveNumber = *r.Back.MoveNumber
	}
	if r.Back.PlayerToMove != nil {
		c.Back.PlayerToMove = *r.Back.PlayerToMove
	}
	return c, nil
}

// Encode writes cards in the extraction output shape.
func Encode(cards []Flashcard) ([]byte, error) {
	if cards == nil {
		cards = []Flashcard{}
	}
	return json.MarshalIndent(cards, "", "  ")
}
