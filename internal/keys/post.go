package keys

import (
	"fmt"
	"strings"

	"foodshare/internal/models"

	"github.com/google/uuid"
)

// PostPrefix is the key prefix under which all posts are stored.
const PostPrefix = "posts/"

// sanitizeKey replaces spaces and slashes with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "-", "/", "-").Replace(strings.TrimSpace(s)))
}

// FoodPost returns the canonical object key for a post.
func FoodPost(p models.FoodPost) string {
	return Post(p.UserID, p.ID)
}

func Post(userID string, id uuid.UUID) string {
	return fmt.Sprintf("%s%s/%s.json", PostPrefix, sanitizeKey(userID), id)
}

// PostID extracts the post id from an object key produced by FoodPost.
func PostID(key string) (uuid.UUID, error) {
	if !strings.HasPrefix(key, PostPrefix) || !strings.HasSuffix(key, ".json") {
		return uuid.Nil, fmt.Errorf("not a post key: %q", key)
	}
	base := key[strings.LastIndex(key, "/")+1 : len(key)-len(".json")]
	return uuid.Parse(base)
}
