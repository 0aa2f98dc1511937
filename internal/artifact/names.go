package artifact

// Artifact names shared by the built-in modules. Plugins may declare any
// other names.
const (
	CleanWorkspace = "clean_workspace"
	BuiltApp       = "built_app"
	PackageArchive = "package_archive"
	Checksums      = "checksums"
	BuildManifest  = "build_manifest"
)
