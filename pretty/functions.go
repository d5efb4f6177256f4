package pretty

import (
	"fmt"
	"strings"

	"golang.org/x/term"

	"github.com/compository/app/common"
)

const defaultWidth = 80

func Ok() {
	common.Log("%sOK.%s", Green, Reset)
}

func Warning(format string, rest ...interface{}) {
	niceform := fmt.Sprintf("%sWarning: %s%s", Yellow, format, Reset)
	common.Log(niceform, rest...)
}

func Note(format string, rest ...interface{}) {
	niceform := fmt.Sprintf("%s%sNote: %s%s", Cyan, Bold, format, Reset)
	common.Log(niceform, rest...)
}

func Highlight(format string, rest ...interface{}) {
	niceform := fmt.Sprintf("%s%s%s", Bold, format, Reset)
	common.Log(niceform, rest...)
}

func Lowlight(format string, rest ...interface{}) {
	niceform := fmt.Sprintf("%s%s%s", Grey, format, Reset)
	common.Log(niceform, rest...)
}

// Exit stops the command with code and message. It is recovered in main.
func Exit(code int, format string, rest ...interface{}) {
	var message string
	if len(rest) > 0 {
		message = fmt.Sprintf(format, rest...)
	} else {
		message = format
	}
	panic(common.ExitCode{
		Code:    code,
		Message: fmt.Sprintf("%s%s%s", Red, message, Reset),
	})
}

func Guard(truth bool, code int, format string, rest ...interface{}) {
	if !truth {
		Exit(code, format, rest...)
	}
}

// Width reports the terminal width, or a default when stdout is not a terminal.
func Width(fd uintptr) int {
	width, _, err := term.GetSize(int(fd))
	if err != nil || width < 20 {
		return defaultWidth
	}
	return width
}

// Table writes rows as left aligned columns to stdout.
func Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for column, header := range headers {
		widths[column] = len(header)
	}
	for _, row := range rows {
		for column, cell := range row {
			if column < len(widths) && len(cell) > widths[column] {
				widths[column] = len(cell)
			}
		}
	}
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for column, cell := range cells {
			if column == len(cells)-1 || column >= len(widths) {
				parts[column] = cell
				continue
			}
			parts[column] = cell + strings.Repeat(" ", widths[column]-len(cell))
		}
		return strings.Join(parts, "  ")
	}
	common.Stdout("%s%s%s\n", Bold, line(headers), Reset)
	for _, row := range rows {
		common.Stdout("%s\n", line(row))
	}
}
