package lastfm

// Tag is a Last.fm tag. Count is the tag's relative weight (0-100).
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// topTagsResponse is the body of track.getTopTags and artist.getTopTags.
type topTagsResponse struct {
	TopTags struct {
		Tag []Tag `json:"tag"`
	} `json:"toptags"`
}

// apiError is the body Last.fm returns for failed calls, often with status 200.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
