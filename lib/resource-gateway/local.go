package resourcegateway

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/models"
)

// Resource a record type served by this process, tx is nil outside a transaction
type Resource interface {
	Get(ctx context.Context, tx *gorm.DB, id string) (map[string]any, error)
	Patch(ctx context.Context, tx *gorm.DB, id string, payload map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

// Action a non-record endpoint such as certificate issuance
type Action interface {
	Invoke(ctx context.Context, tx *gorm.DB, payload map[string]any) error
}

func NewLocal(resources map[string]Resource, actions map[string]Action) TxProvider {
	return &localImpl{
		resources: resources,
		actions:   actions,
	}
}

type localImpl struct {
	tx        *gorm.DB
	resources map[string]Resource
	actions   map[string]Action
}

func (i localImpl) WithTx(tx *gorm.DB) Provider {
	return &localImpl{
		tx:        tx,
		resources: i.resources,
		actions:   i.actions,
	}
}

func (i localImpl) Get(ctx context.Context, target string) (map[string]any, error) {
	resource, id, err := i.resolve(target)
	if err != nil {
		return nil, err
	}
	return resource.Get(ctx, i.tx, id)
}

func (i localImpl) Patch(ctx context.Context, target string, payload map[string]any) error {
	resource, id, err := i.resolve(target)
	if err != nil {
		return err
	}
	return resource.Patch(ctx, i.tx, id, payload)
}

func (i localImpl) Delete(ctx context.Context, target string) error {
	resource, id, err := i.resolve(target)
	if err != nil {
		return err
	}
	return resource.Delete(ctx, i.tx, id)
}

func (i localImpl) Invoke(ctx context.Context, target string, payload map[string]any) error {
	action, ok := i.actions[target]
	if !ok {
		return errors.Wrapf(models.ErrNotFound, "action %s", target)
	}
	return action.Invoke(ctx, i.tx, payload)
}

func (i localImpl) resolve(target string) (Resource, string, error) {
	parsed, err := ParseTarget(target)
	if err != nil {
		return nil, "", err
	}
	resource, ok := i.resources[parsed.Resource]
	if !ok {
		return nil, "", errors.Wrapf(models.ErrNotFound, "resource %s", parsed.Resource)
	}
	return resource, parsed.ID, nil
}
