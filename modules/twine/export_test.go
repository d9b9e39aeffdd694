package twine

// ArtifactVersions exposes artifactVersions to the external test package.
var ArtifactVersions = artifactVersions
