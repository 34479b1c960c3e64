package resourcegateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"spice-portal-backend/models"
)

// Provider reads and changes the resource an approval request targets
type Provider interface {
	Get(ctx context.Context, target string) (map[string]any, error)
	Patch(ctx context.Context, target string, payload map[string]any) error
	Delete(ctx context.Context, target string) error
	Invoke(ctx context.Context, target string, payload map[string]any) error
}

// TxProvider gateway whose changes can join a database transaction
type TxProvider interface {
	Provider
	WithTx(tx *gorm.DB) Provider
}

var Instance Provider

type Target struct {
	Resource string
	ID       string
}

func (t Target) Path() string {
	return ResourcePath(t.Resource, t.ID)
}

var targetRe = regexp.MustCompile(`^/api/([a-z][a-z_]*)/([A-Za-z0-9-]+)$`)

// ParseTarget accepts "/api/{resource}/{id}"
func ParseTarget(path string) (Target, error) {
	path = strings.TrimSpace(path)
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	match := targetRe.FindStringSubmatch(path)
	if match == nil {
		return Target{}, models.NewValidationError("target %q does not match /api/{resource}/{id}", path)
	}
	return Target{Resource: match[1], ID: match[2]}, nil
}

func ResourcePath(resource, id string) string {
	return fmt.Sprintf("/api/%s/%s", resource, id)
}
