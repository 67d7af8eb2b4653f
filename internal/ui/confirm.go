package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints a warning box and reads one line from in. It returns true
// only when the line equals answer (case-insensitive).
func (p *Printer) Confirm(in io.Reader, title string, warnings []string, answer string) bool {
	box := NewWarningResult(title)
	for _, w := range warnings {
		box.AddDetail("•", w)
	}
	p.Println(box.SetWidth(p.width).Render())
	p.Newline()

	p.Printf("%s", WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	line, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && line == "" {
		return false
	}

	if strings.EqualFold(strings.TrimSpace(line), answer) {
		return true
	}

	p.Println(StepPendingStyle.Render("  Operation cancelled."))
	return false
}
