package main

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

func (a *app) printf(color, format string, args ...any) {
	fmt.Fprintf(a.out, "%s%s%s\n", color, fmt.Sprintf(format, args...), colorReset)
}

func (a *app) success(format string, args ...any) {
	a.printf(colorGreen, "✓ "+format, args...)
}

func (a *app) warn(format string, args ...any) {
	a.printf(colorYellow, "⚠ "+format, args...)
}

func (a *app) heading(title string) {
	fmt.Fprintf(a.out, "\n%s=== %s ===%s\n", colorCyan, title, colorReset)
}

func (a *app) rule() {
	fmt.Fprintln(a.out, strings.Repeat("─", 40))
}

// readLine returns the next trimmed input line, or "" at end of input.
func (a *app) readLine() string {
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

// prompt asks for a value unless one was already given on the command line.
func (a *app) prompt(label, current string) string {
	if current != "" {
		return current
	}
	fmt.Fprintf(a.out, "%s: ", label)
	return a.readLine()
}

func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s (y/n): ", question)
	answer := strings.ToLower(a.readLine())
	return answer == "y" || answer == "yes"
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
