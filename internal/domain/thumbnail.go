package domain

// ThumbnailArtifact is the result of thumbnail generation: either a URL hosted
// by the design service or a PNG on the local filesystem. The interface is
// sealed so consumers can switch over the two variants exhaustively.
type ThumbnailArtifact interface {
	isThumbnailArtifact()
}

// RemoteThumbnail points at an exported design hosted by the design service.
type RemoteThumbnail struct {
	URL string
}

func (RemoteThumbnail) isThumbnailArtifact() {}

// LocalThumbnail points at a locally rendered PNG file.
type LocalThumbnail struct {
	Path string
}

func (LocalThumbnail) isThumbnailArtifact() {}
