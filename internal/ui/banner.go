package ui

import (
	"fmt"
	"io"
)

// PrintBanner writes the version line shown before a collection run
func PrintBanner(w io.Writer, colors *Colors, version string) {
	fmt.Fprintf(w, "%s %s\n", colors.Bold("cilens"), colors.Gray(version))
}
