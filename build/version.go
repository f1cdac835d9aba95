package build

import "fmt"

const (
	// AppMajor defines the major version of this binary.
	AppMajor uint = 0

	// AppMinor defines the minor version of this binary.
	AppMinor uint = 3

	// AppPatch defines the application patch for this binary.
	AppPatch uint = 0

	// AppPreRelease is the pre-release label, empty for releases.
	AppPreRelease = "beta"
)

// Commit stores the current commit of this build, set with -ldflags.
var Commit string

// Version returns the application version as a properly formed string per
// the semantic versioning 2.0.0 spec (http://semver.org/). Development builds
// carry the deployment as build metadata.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", AppMajor, AppMinor, AppPatch)
	if AppPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, AppPreRelease)
	}
	if Deployment == Development {
		version = fmt.Sprintf("%s+%s", version, Deployment)
	}

	return version
}
