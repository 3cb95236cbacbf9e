// Package models defines the domain types shared by the pipeline stages.
package models

import "errors"

// VideoAsset is an in-memory screen recording selected for analysis. The
// content lives only for the duration of one analysis request and is never
// persisted by this process.
type VideoAsset struct {
	Name      string
	SizeBytes int64
	MimeType  string
	Content   []byte
}

func NewVideoAsset(name, mimeType string, content []byte) *VideoAsset {
	return &VideoAsset{
		Name:      name,
		SizeBytes: int64(len(content)),
		MimeType:  mimeType,
		Content:   content,
	}
}

func (v *VideoAsset) Validate() error {
	if v == nil {
		return errors.New("video asset is required")
	}

	if v.Name == "" {
		return errors.New("video asset name is required")
	}

	if len(v.Content) == 0 {
		return errors.New("video asset content is empty")
	}

	return nil
}
