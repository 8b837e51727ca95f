package audiodb

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

var errShape = errors.New("unexpected response shape")

// projectDiscography validates the decoded document and maps it to albums.
// Expected form: {"album": null | [{"strAlbum": "...", "intYearReleased": "..."}]}.
func projectDiscography(doc any) ([]domain.Album, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T", errShape, doc)
	}

	raw, present := obj["album"]
	if !present || raw == nil {
		return []domain.Album{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: album is %T", errShape, raw)
	}

	albums := make([]domain.Album, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: album[%d] is %T", errShape, i, item)
		}
		name, ok := entry["strAlbum"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: album[%d].strAlbum missing", errShape, i)
		}
		year, err := yearString(entry["intYearReleased"])
		if err != nil {
			return nil, fmt.Errorf("%w: album[%d].intYearReleased: %v", errShape, i, err)
		}
		albums = append(albums, domain.Album{Name: name, Year: year})
	}
	return albums, nil
}

// yearString accepts the year as a string or a JSON number.
func yearString(v any) (string, error) {
	switch y := v.(type) {
	case nil:
		return "", nil
	case string:
		return y, nil
	case float64:
		return strconv.FormatFloat(y, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
