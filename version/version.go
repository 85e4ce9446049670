package version

// CurrentCommit is set by the Makefile at build time.
var CurrentCommit string

const MajorMinorPatch = "0.4.0"

func String() string {
	return "v" + MajorMinorPatch + CurrentCommit
}
