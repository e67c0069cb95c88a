package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nachocheesedog/ssengine"
)

const (
	prompt = "ssengine> "
)

type scannerResult struct {
	line string
	ok   bool
}

// Start begins the interactive shell.
func Start(sheet *ssengine.Spreadsheet, in io.Reader, out io.Writer) {
	var (
		scanCh chan scannerResult
		tty    *ttyInput
	)
	if ti, ok := newTTYInput(in, out); ok {
		tty = ti
		defer tty.Close()
	} else {
		scanner := bufio.NewScanner(in)
		scanCh = make(chan scannerResult)
		go scanLines(scanner, scanCh)
	}

	fmt.Fprintln(out, "ssengine - spreadsheet calculation engine")
	fmt.Fprintln(out, "Enter assignments like A1=2 or B1==A1+A2. Commands: :sheets, :add <name>, :use <name>, :quit")
	fmt.Fprintln(out)

	for {
		var (
			line string
			ok   bool
		)
		if tty != nil {
			line, ok = tty.readLine(prompt)
		} else {
			fmt.Fprint(out, prompt)
			line, ok = waitForLine(scanCh)
		}
		if !ok {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if handleCommand(line, sheet, out) {
				return
			}
			continue
		}

		evalLine(sheet, line, out)
	}
}

// runBatch applies every non-blank, non-comment line of r to sheet and
// prints the recalculated cells, without any line-editing machinery.
func runBatch(sheet *ssengine.Spreadsheet, r io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, ":") {
			handleCommand(line, sheet, out)
			continue
		}
		evalLine(sheet, line, out)
	}
}

// evalLine applies a single "ADDRESS=text" assignment and reports the
// cells that changed as a result.
func evalLine(sheet *ssengine.Spreadsheet, line string, out io.Writer) {
	address, rawText, ok := strings.Cut(line, "=")
	if !ok {
		fmt.Fprintf(out, "parse error: expected ADDRESS=value, got %q\n", line)
		return
	}
	address = strings.TrimSpace(address)

	if err := sheet.SetText(address, rawText); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}

	if err := sheet.Recalculate(context.Background()); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}

	for _, addr := range sheet.LastRecalculated() {
		value, err := sheet.Get(sheet.FormatAddress(addr))
		if err != nil {
			fmt.Fprintf(out, "  %s -> error: %s\n", sheet.FormatAddress(addr), err)
			continue
		}
		fmt.Fprintf(out, "  %s -> %s\n", sheet.FormatAddress(addr), formatValue(value))
	}
}

// handleCommand processes a leading-colon REPL command. It returns true
// if the REPL should exit.
func handleCommand(cmd string, sheet *ssengine.Spreadsheet, out io.Writer) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		fmt.Fprintln(out, "goodbye")
		return true

	case ":help", ":h":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :sheets        - list worksheets")
		fmt.Fprintln(out, "  :add <name>    - add a worksheet")
		fmt.Fprintln(out, "  :use <name>    - set the active worksheet")
		fmt.Fprintln(out, "  :quit          - exit")

	case ":sheets":
		for _, name := range sheet.ListWorksheets() {
			marker := " "
			if name == sheet.ActiveSheetName() {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}

	case ":add":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :add <name>")
			break
		}
		if err := sheet.AddWorksheet(fields[1]); err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
		}

	case ":use":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :use <name>")
			break
		}
		if err := sheet.SetActiveSheet(fields[1]); err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
		}

	default:
		fmt.Fprintf(out, "unknown command: %s (try :help)\n", fields[0])
	}
	return false
}

// formatValue renders a cell's Primitive value the way a user typing into
// a terminal expects to see it: booleans as TRUE/FALSE, errors as their
// Excel-style code, everything else via fmt's default formatting.
func formatValue(value ssengine.Primitive) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case *ssengine.SpreadsheetError:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func scanLines(scanner *bufio.Scanner, out chan<- scannerResult) {
	defer close(out)
	for scanner.Scan() {
		out <- scannerResult{line: scanner.Text(), ok: true}
	}
}

func waitForLine(scanCh <-chan scannerResult) (string, bool) {
	result, ok := <-scanCh
	if !ok {
		return "", false
	}
	return result.line, result.ok
}
