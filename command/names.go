package command

import "strings"

// Separator joins the segments of an internal command name. A command B is a
// subcommand of A exactly when B's internal name is A plus one more segment.
const Separator = ":"

// Internal converts a display name ("user create") into its internal
// colon-delimited form ("user:create"). Runs of whitespace collapse to a
// single separator.
func Internal(display string) string {
	return strings.Join(strings.Fields(display), Separator)
}

// Display converts an internal name into the space-delimited form shown to
// end users.
func Display(internal string) string {
	return strings.ReplaceAll(internal, Separator, " ")
}

// ParentOf returns the internal name of the immediate parent, or "" for a
// top-level name.
func ParentOf(internal string) string {
	idx := strings.LastIndex(internal, Separator)
	if idx < 0 {
		return ""
	}
	return internal[:idx]
}

// Depth returns the number of segments in an internal name.
func Depth(internal string) int {
	if internal == "" {
		return 0
	}
	return strings.Count(internal, Separator) + 1
}
