// Command ssengine is an interactive shell and batch runner for the
// spreadsheet engine. It reads lines of the form "A1=2" or "B1==A1+A2",
// applies them to an in-memory workbook, and prints the recalculated
// value of every cell touched.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nachocheesedog/ssengine"
)

func main() {
	batchPath := flag.String("batch", "", "read assignments from a file instead of stdin and exit")
	sheetName := flag.String("sheet", "", "create and activate a worksheet with this name before reading input")
	flag.Parse()

	sheet := ssengine.NewSpreadsheet()
	if *sheetName != "" {
		if err := sheet.AddWorksheet(*sheetName); err != nil {
			fmt.Fprintf(os.Stderr, "ssengine: %s\n", err)
			os.Exit(1)
		}
		if err := sheet.SetActiveSheet(*sheetName); err != nil {
			fmt.Fprintf(os.Stderr, "ssengine: %s\n", err)
			os.Exit(1)
		}
	}

	if *batchPath != "" {
		f, err := os.Open(*batchPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ssengine: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		runBatch(sheet, f, os.Stdout)
		return
	}

	Start(sheet, os.Stdin, os.Stdout)
}
