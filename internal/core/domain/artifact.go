package domain

// Artifact is one output file of a build.
type Artifact struct {
	Path string
	Data []byte
}
