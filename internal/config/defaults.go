package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultSourcePath is the default directory scanned for annotated sources, relative to the project
	DefaultSourcePath = "."
	// DefaultOutputDir is empty: generated files are written next to their sources
	DefaultOutputDir = ""
	// DefaultSourceExt is the extension of annotated test sources
	DefaultSourceExt = ".pf"
	// DefaultOutputExt is the extension of generated sources
	DefaultOutputExt = ".F90"
	// DefaultManifestFile is the default batch manifest file name
	DefaultManifestFile = "pfpp-manifest.json"
	// DefaultManifestDir is the default manifest directory, relative to the project
	DefaultManifestDir = ".pfpp"
	// DefaultConfigFile is the project configuration file name
	DefaultConfigFile = ".pfpp.yaml"
	// DefaultEnvFile is the dotenv file read from the project root
	DefaultEnvFile = ".env"
	// DefaultProcessors is the default number of batch workers
	DefaultProcessors = 4
)

// Environment variables overriding file configuration.
const (
	EnvMarkers    = "PFPP_MARKERS"
	EnvProcessors = "PFPP_PROCESSORS"
	EnvOutputDir  = "PFPP_OUTPUT_DIR"
	EnvOutputExt  = "PFPP_OUTPUT_EXT"
	EnvSourceExt  = "PFPP_SOURCE_EXT"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for sources
var DefaultPathsToIgnore = []string{
	".git",
	".pfpp",
	"build",
	"CMakeFiles",
	"_deps",
	"node_modules",
}
