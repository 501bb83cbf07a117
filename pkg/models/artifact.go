package models

// Artifact is a composed order image, PNG-encoded and owned by the caller.
// Ephemeral: release it once downloaded or shared.
type Artifact struct {
	PNG    []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Loaded int    `json:"loaded"`
	Failed int    `json:"failed"`
}

// Size returns the encoded byte size.
func (a *Artifact) Size() int64 {
	return int64(len(a.PNG))
}
