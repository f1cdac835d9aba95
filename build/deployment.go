package build

// DeploymentType selects, at compile time, how the loggers of the library
// packages are set up when no logger is handed to them.
type DeploymentType byte

const (
	// Development builds are what unit tests run with. Loggers may write
	// to the console depending on the log build tags.
	Development DeploymentType = iota

	// Production builds keep every package silent until the caller wires
	// up logging.
	Production
)

// String returns the name used in version strings.
func (b DeploymentType) String() string {
	switch b {
	case Development:
		return "dev"
	case Production:
		return "prod"
	default:
		return "unknown"
	}
}
