// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/campus-ai-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/campus-ai-go/internal/buildinfo.Commit=...
var Commit = ""

// Release names the build for error tracking: "campus-ai-go@<version>",
// falling back to the short commit, then "dev".
func Release() string {
	switch {
	case Version != "":
		return "campus-ai-go@" + Version
	case len(Commit) >= 7:
		return "campus-ai-go@" + Commit[:7]
	case Commit != "":
		return "campus-ai-go@" + Commit
	default:
		return "campus-ai-go@dev"
	}
}
