package campuspulse

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActiveUser is a user currently on campus. Image is an avatar URL and may be
// empty.
type ActiveUser struct {
	Image string `json:"image"`
	Login string `json:"login"`
}

// ParseActiveUsers decodes a users payload: a JSON array of
// {"image", "login"} objects. Order is preserved as received.
//
// The result is never nil on success.
func ParseActiveUsers(body []byte) ([]ActiveUser, error) {
	var items []*ActiveUser
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode active users: %w", err)
	}
	if items == nil {
		return nil, errors.New("decode active users: expected a JSON array, got null")
	}

	users := make([]ActiveUser, len(items))
	for i, u := range items {
		if u == nil {
			return nil, fmt.Errorf("active user %d: entry is null", i)
		}
		users[i] = *u
	}
	return users, nil
}
