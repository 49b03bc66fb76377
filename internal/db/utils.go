package db

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/pdf-viewer/pkg/mediastore"
)

// ResolveMediaID accepts a bare media id or a /media/<id>.pdf reference.
func ResolveMediaID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if id, ok := mediastore.ParseMediaPath(arg); ok {
		return id, nil
	}
	if id, ok := mediastore.ParseMediaPath(mediastore.URLFor(strings.ToLower(arg))); ok {
		return id, nil
	}
	return "", fmt.Errorf("invalid media id: %s", arg)
}
