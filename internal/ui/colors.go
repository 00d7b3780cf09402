package ui

import "fmt"

// The helpers below render their arguments with fmt.Sprint and wrap the text
// in the matching color of the current theme. Colors are dropped when
// github.com/fatih/color decides the output is not a terminal.

// Primary renders a in the primary color.
func Primary(a ...any) string { return GetCurrentTheme().Primary.Sprint(a...) }

// Secondary renders a in the secondary color.
func Secondary(a ...any) string { return GetCurrentTheme().Secondary.Sprint(a...) }

// Success renders a in the success color.
func Success(a ...any) string { return GetCurrentTheme().Success.Sprint(a...) }

// Warning renders a in the warning color.
func Warning(a ...any) string { return GetCurrentTheme().Warning.Sprint(a...) }

// Error renders a in the error color.
func Error(a ...any) string { return GetCurrentTheme().Error.Sprint(a...) }

// Info renders a in the info color.
func Info(a ...any) string { return GetCurrentTheme().Info.Sprint(a...) }

// Bold renders a in bold.
func Bold(a ...any) string { return GetCurrentTheme().Bold.Sprint(a...) }

// Underline renders a in the underline style.
func Underline(a ...any) string { return GetCurrentTheme().Underline.Sprint(a...) }

// Heading renders a section title such as "--- Comparison Summary ---".
func Heading(title string) string {
	return Bold(fmt.Sprintf("--- %s ---", title))
}

// ErrorColors adapts the current theme to apperrors.ColorProvider.
type ErrorColors struct{}

// Error wraps s in the theme's error color.
func (ErrorColors) Error(s string) string { return Error(s) }
