package domain

// StagedArtifact is a generated artifact downloaded to local storage.
// It is owned by a single pipeline run and removed before that run returns.
type StagedArtifact struct {
	Path     string
	Size     int64
	MIMEType string
}

// PublishResult is the terminal record of a successful publish.
type PublishResult struct {
	RecordID string `json:"record_id"`
	MediaRef string `json:"media_ref"`
}
