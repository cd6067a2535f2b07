package api

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// LikeShape records which response form a like state was read from.
type LikeShape int

const (
	// ShapeStatus is {"status": "liked"|"unliked", "like_count": n}.
	ShapeStatus LikeShape = iota + 1
	// ShapeFlag is the older boolean form, e.g. {"is_liked": true, "like_count": n}
	// or {"liked": true, "likes_count": n}.
	ShapeFlag
)

func (s LikeShape) String() string {
	switch s {
	case ShapeStatus:
		return "status"
	case ShapeFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// LikeState is the server's view of one review's likes for the current user.
type LikeState struct {
	Count int
	Liked bool
	Shape LikeShape
}

var likeFlagFields = []string{"is_liked", "user_liked", "liked"}

// parseLikeState normalizes both like response shapes. Anything else is an error.
func parseLikeState(raw []byte) (LikeState, error) {
	if !gjson.ValidBytes(raw) {
		return LikeState{}, fmt.Errorf("like response is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return LikeState{}, fmt.Errorf("like response is not an object")
	}

	var state LikeState
	if status := root.Get("status"); status.Exists() {
		switch strings.ToLower(status.String()) {
		case "liked":
			state.Liked = true
		case "unliked":
			state.Liked = false
		default:
			return LikeState{}, fmt.Errorf("unknown like status %q", status.String())
		}
		state.Shape = ShapeStatus
	} else {
		for _, field := range likeFlagFields {
			flag := root.Get(field)
			if !flag.Exists() {
				continue
			}
			if flag.Type != gjson.True && flag.Type != gjson.False {
				return LikeState{}, fmt.Errorf("like flag %q is not a boolean", field)
			}
			state.Liked = flag.Bool()
			state.Shape = ShapeFlag
			break
		}
		if state.Shape == 0 {
			return LikeState{}, fmt.Errorf("like response has neither status nor liked flag")
		}
	}

	count := root.Get("like_count")
	if !count.Exists() {
		count = root.Get("likes_count")
	}
	if count.Type != gjson.Number {
		return LikeState{}, fmt.Errorf("like response has no numeric like count")
	}
	n := count.Int()
	if n < 0 || float64(n) != count.Float() {
		return LikeState{}, fmt.Errorf("invalid like count %s", count.Raw)
	}
	state.Count = int(n)
	return state, nil
}
