package model

// ReleaseInfo represents information extracted from a release event
type ReleaseInfo struct {
	Owner       string `json:"owner"`        // Repository owner
	Repo        string `json:"repo"`         // Repository name
	CommitSHA   string `json:"commit_sha"`   // Target commitish of the release
	TagName     string `json:"tag_name"`     // Release tag name
	ReleaseName string `json:"release_name"` // Release name
}

// Slug returns a human readable identifier like "owner/repo@v1.0.0"
func (r *ReleaseInfo) Slug() string {
	ref := r.TagName
	if ref == "" {
		ref = r.CommitSHA
	}
	return r.Owner + "/" + r.Repo + "@" + ref
}

// Ref returns the git ref to fetch the source at. The tag is preferred
// because target_commitish may name a moving branch.
func (r *ReleaseInfo) Ref() string {
	if r.TagName != "" {
		return r.TagName
	}
	return r.CommitSHA
}
