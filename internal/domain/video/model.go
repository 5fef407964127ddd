package video

import "fmt"

// Video is a playable catalog entry.
type Video struct {
	ID           string `toml:"id"`
	Title        string `toml:"title"`
	ThumbnailURI string `toml:"thumbnail"`
	Duration     string `toml:"duration"`
	Size         string `toml:"size"`
	SourceURI    string `toml:"uri"`
}

// Samples are shown when no catalog is configured.
var Samples = []Video{
	{
		ID:           "1",
		Title:        "Sample Video 1",
		ThumbnailURI: "https://picsum.photos/300/200?random=1",
		Duration:     "0:30",
		Size:         "2.1 MB",
		SourceURI:    "https://www.learningcontainer.com/wp-content/uploads/2020/05/sample-mp4-file.mp4",
	},
	{
		ID:           "2",
		Title:        "Sample Video 2",
		ThumbnailURI: "https://picsum.photos/300/200?random=2",
		Duration:     "0:45",
		Size:         "3.2 MB",
		SourceURI:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
	},
	{
		ID:           "3",
		Title:        "Sample Video 3",
		ThumbnailURI: "https://picsum.photos/300/200?random=3",
		Duration:     "1:15",
		Size:         "4.8 MB",
		SourceURI:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
	},
	{
		ID:           "4",
		Title:        "Sample Video 4",
		ThumbnailURI: "https://picsum.photos/300/200?random=4",
		Duration:     "0:58",
		Size:         "1.8 MB",
		SourceURI:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
	},
	{
		ID:           "5",
		Title:        "Sample Video 5",
		ThumbnailURI: "https://picsum.photos/300/200?random=5",
		Duration:     "1:22",
		Size:         "2.5 MB",
		SourceURI:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscape.mp4",
	},
}

// ErrNotFound is returned by Find for unknown ids.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("video %q not found", e.ID)
}

// Find returns the video with the given id.
func Find(videos []Video, id string) (Video, error) {
	for _, v := range videos {
		if v.ID == id {
			return v, nil
		}
	}
	return Video{}, &ErrNotFound{ID: id}
}
