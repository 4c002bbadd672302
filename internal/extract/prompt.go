package extract

import (
	"fmt"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
)

const instructions = `You are a chess data verification expert.
Extract educational flashcards from the PGN below.

For every annotator comment inside braces {}:
1. Take the comment text as the prompt.
2. Compute the exact FEN of the position after the move the comment follows.
3. Attach the variations in parentheses () that belong to that move, or "" when there are none.
4. Record the move actually played, its move number, and the side that just moved ("White" or "Black").

Fields: card_id (incrementing integer), front_content.comment_text,
back_content.position_fen, back_content.main_line_move, back_content.variations_text,
back_content.move_number, back_content.player_to_move.`

// jsonOnly is appended for providers without a structured output mode.
const jsonOnly = `Respond with a JSON array of flashcard objects and nothing else.`

// BuildPrompt returns the extraction prompt for pgn.
func BuildPrompt(pgn string) string {
	return fmt.Sprintf("%s\n\nINPUT PGN:\n%s\n", instructions, pgn)
}

// responseSchema is the structured output schema sent to Gemini.
func responseSchema() map[string]any {
	str := map[string]any{"type": "STRING"}
	integer := map[string]any{"type": "INTEGER"}
	return map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"card_id": integer,
				"front_content": map[string]any{
					"type":       "OBJECT",
					"properties": map[string]any{"comment_text": str},
					"required":   []string{"comment_text"},
				},
				"back_content": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"position_fen":    str,
						"main_line_move":  str,
						"variations_text": str,
						"move_number":     integer,
						"player_to_move":  str,
					},
					"required": []string{"position_fen", "main_line_move", "variations_text", "move_number", "player_to_move"},
				},
			},
			"required": []string{"card_id", "front_content", "back_content"},
		},
	}
}

// decodeText strips a Markdown code fence, if any, and decodes the cards.
func decodeText(text string) ([]card.Flashcard, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return card.DecodeString(text)
}
