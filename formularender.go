package ssengine

import (
	"fmt"
	"strings"
)

// renderFormula renders ast as the spreadsheet syntax a user would type,
// resolving relative cell/range offsets against anchor (the cell the
// formula is stored at). ASTNode.ToString() can't do this itself: it
// renders cell references as their bare relative offsets (e.g. "REF(0,-1)")
// because that's what formula interning keys on - two formulas with the
// same shape but different anchors must produce the same key so they
// share one entry in the formula table. renderFormula is for display
// (GetFormula, codec export, the REPL), not interning.
func renderFormula(node ASTNode, anchor CellAddress, worksheets *WorksheetTable) string {
	switch n := node.(type) {
	case *StringNode:
		return n.ToString()
	case *NumberNode:
		return n.ToString()
	case *BooleanNode:
		return n.ToString()
	case *ErrorLiteralNode:
		return n.ToString()
	case *NamedRangeNode:
		return n.ToString()

	case *CellRefNode:
		worksheetID := n.WorksheetID
		if worksheetID == 0 {
			worksheetID = anchor.WorksheetID
		}
		row := int32(anchor.Row) + n.RowOffset
		col := int32(anchor.Column) + n.ColOffset
		ref := cellRefString(row, col)
		if worksheetID != anchor.WorksheetID {
			if name, ok := worksheets.GetWorksheetName(worksheetID); ok {
				return name + "!" + ref
			}
		}
		return ref

	case *RangeNode:
		worksheetID := n.WorksheetID
		if worksheetID == 0 {
			worksheetID = anchor.WorksheetID
		}
		startRow := int32(anchor.Row) + n.StartRowOffset
		startCol := int32(anchor.Column) + n.StartColOffset
		endRow := int32(anchor.Row) + n.EndRowOffset
		endCol := int32(anchor.Column) + n.EndColOffset
		rangeStr := cellRefString(startRow, startCol) + ":" + cellRefString(endRow, endCol)
		if worksheetID != anchor.WorksheetID {
			if name, ok := worksheets.GetWorksheetName(worksheetID); ok {
				return name + "!" + rangeStr
			}
		}
		return rangeStr

	case *BinaryOpNode:
		opStr := binaryOpString(n.Op)
		return fmt.Sprintf("%s%s%s", renderFormula(n.Left, anchor, worksheets), opStr, renderFormula(n.Right, anchor, worksheets))

	case *UnaryOpNode:
		if n.Op == UnaryOpPercent {
			return renderFormula(n.Operand, anchor, worksheets) + "%"
		}
		opStr := "+"
		if n.Op == UnaryOpMinus {
			opStr = "-"
		}
		return opStr + renderFormula(n.Operand, anchor, worksheets)

	case *FunctionCallNode:
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			args[i] = renderFormula(arg, anchor, worksheets)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ","))

	default:
		return node.ToString()
	}
}

// cellRefString formats a 0-based (row, col) pair as "A1". A negative
// coordinate (a relative reference pointing off the top/left edge) is
// clamped to 0 for display; Eval reports such a reference as #REF! at
// calculation time.
func cellRefString(row, col int32) string {
	r, c := row, col
	if r < 0 {
		r = 0
	}
	if c < 0 {
		c = 0
	}
	return fmt.Sprintf("%s%d", columnIndexToLetters(uint32(c)), r+1)
}

func binaryOpString(op BinaryOp) string {
	switch op {
	case BinOpAdd:
		return "+"
	case BinOpSubtract:
		return "-"
	case BinOpMultiply:
		return "*"
	case BinOpDivide:
		return "/"
	case BinOpModulo:
		return "%"
	case BinOpPower:
		return "^"
	case BinOpConcat:
		return "&"
	case BinOpEqual:
		return "="
	case BinOpNotEqual:
		return "<>"
	case BinOpLess:
		return "<"
	case BinOpLessEqual:
		return "<="
	case BinOpGreater:
		return ">"
	case BinOpGreaterEqual:
		return ">="
	default:
		return "?"
	}
}
