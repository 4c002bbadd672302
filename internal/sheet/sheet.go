// Package sheet writes a card batch as an XLSX deck, one row per card.
package sheet

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
)

// SheetName is the name of the single worksheet in the deck.
const SheetName = "Cards"

// Headers are the deck's column labels.
var Headers = []string{"Card", "Prompt", "Position (FEN)", "Move", "To Move", "Answer"}

// Write streams cards into a workbook and writes it to w.
func Write(ctx context.Context, w io.Writer, cards []card.Flashcard) error {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	if first := file.GetSheetName(0); first != SheetName {
		if err := file.SetSheetName(first, SheetName); err != nil {
			return err
		}
	}

	stream, err := file.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	wrapID, err := file.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	if err := stream.SetColWidth(2, 2, 60); err != nil {
		return err
	}
	if err := stream.SetColWidth(3, 3, 45); err != nil {
		return err
	}
	if err := stream.SetColWidth(6, 6, 40); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, label := range Headers {
		header[i] = excelize.Cell{StyleID: headerID, Value: label}
	}
	if err := stream.SetRow("A1", header); err != nil {
		return err
	}

	for i, c := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []interface{}{
			c.CardID,
			excelize.Cell{StyleID: wrapID, Value: c.Front.CommentText},
			c.Back.PositionFEN,
			c.Back.MoveNumber,
			c.Back.PlayerToMove,
			excelize.Cell{StyleID: wrapID, Value: c.Back.VariationsText},
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			return err
		}
	}

	if err := stream.Flush(); err != nil {
		return err
	}
	_, err = file.WriteTo(w)
	return err
}
