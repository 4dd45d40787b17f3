package playlist

import "errors"

var (
	// ErrPlaylistCreate matches every *CreateError.
	ErrPlaylistCreate = errors.New("playlist create failed")

	// ErrPlaylistPopulate matches every *PopulateError.
	ErrPlaylistPopulate = errors.New("playlist populate failed")

	// ErrNoRecommendations is returned when no batch yielded a novel track.
	ErrNoRecommendations = errors.New("no recommendations collected")

	// ErrNoSeedMaterial is returned when there are no top artists and no top tracks.
	ErrNoSeedMaterial = errors.New("no top artists or tracks to seed recommendations")
)

// CreateError reports a failed playlist create call.
type CreateError struct {
	Message string
	Err     error
}

func (e *CreateError) Error() string {
	return "creating playlist: " + e.Message
}

func (e *CreateError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPlaylistCreate.
func (e *CreateError) Is(target error) bool { return target == ErrPlaylistCreate }

// PopulateError reports a failed add-tracks call on a created playlist.
// CleanedUp is true when the empty playlist was unfollowed afterwards.
type PopulateError struct {
	PlaylistID string
	Message    string
	CleanedUp  bool
	Err        error
}

func (e *PopulateError) Error() string {
	return "adding tracks to playlist " + e.PlaylistID + ": " + e.Message
}

func (e *PopulateError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPlaylistPopulate.
func (e *PopulateError) Is(target error) bool { return target == ErrPlaylistPopulate }
