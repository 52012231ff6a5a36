package workflow

import "github.com/google/uuid"

// GenerateID returns a unique identifier of the form "<prefix>-<uuid>".
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
