// Package version carries build information of the kiln binary.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Overridden at build time via -ldflags "-X kiln/internal/version.Version=...".
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// ToolString identifies the producer of snapshots: "kiln 0.1.0-dev".
func ToolString() string {
	return "kiln " + Version
}

// Colored renders Version with each component in its own colour. Colours
// follow color.NoColor, so piping the output yields plain text.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Banner is the full `kiln version` text.
func Banner() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "kiln %s\n", Colored())
	if GitCommit != "" {
		fmt.Fprintf(&sb, "commit: %s\n", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&sb, "built:  %s\n", BuildDate)
	}
	return sb.String()
}
