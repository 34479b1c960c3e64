package lookupprovider

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"spice-portal-backend/db"
	lookupstore "spice-portal-backend/lib/dicts/lookup/store"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	"spice-portal-backend/metrics"
	"spice-portal-backend/models"
	dictapimodels "spice-portal-backend/models/api/dict"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	List(dict models.LookupDict) ([]dictapimodels.LookupView, error)
	// Name resolves a lookup id, ok is false for unknown ids
	Name(dict models.LookupDict, id int) (name string, ok bool)
	// Exists fails with a validation error naming the first unknown id
	Exists(dict models.LookupDict, ids ...int) error
	Save(dict models.LookupDict, items []dictapimodels.LookupView) error
	Invalidate(dict models.LookupDict)
}

var Instance Provider

func NewHandler(cacheTTL time.Duration) {
	instance := newImpl(lookupstore.NewInstance(db.DB), cacheTTL)
	initchecker.CheckInit(
		"store", instance.store,
	)
	Instance = instance
}

func newImpl(store lookupstore.Provider, cacheTTL time.Duration) impl {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return impl{
		store: store,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

const defaultCacheTTL = 5 * time.Minute

type impl struct {
	store lookupstore.Provider
	cache *cache.Cache
}

func (i impl) items(dict models.LookupDict) ([]dictapimodels.LookupView, error) {
	if !dict.IsValid() {
		return nil, errors.Wrapf(models.ErrNotFound, "lookup %q", dict)
	}
	if cached, ok := i.cache.Get(string(dict)); ok {
		metrics.RecordLookupRead(string(dict), true)
		return cached.([]dictapimodels.LookupView), nil
	}
	metrics.RecordLookupRead(string(dict), false)
	recList, err := i.store.List(dict)
	if err != nil {
		return nil, err
	}
	result := make([]dictapimodels.LookupView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, dictapimodels.LookupConvert(rec))
	}
	i.cache.SetDefault(string(dict), result)
	return result, nil
}

func (i impl) List(dict models.LookupDict) ([]dictapimodels.LookupView, error) {
	list, err := i.items(dict)
	if err != nil {
		return nil, err
	}
	return append([]dictapimodels.LookupView(nil), list...), nil
}

func (i impl) Name(dict models.LookupDict, id int) (string, bool) {
	list, err := i.items(dict)
	if err != nil {
		return "", false
	}
	for _, item := range list {
		if item.ID == id {
			return item.Name, true
		}
	}
	return "", false
}

func (i impl) Exists(dict models.LookupDict, ids ...int) error {
	for _, id := range ids {
		if _, ok := i.Name(dict, id); !ok {
			return models.NewValidationError("unknown %s id %d", dict, id)
		}
	}
	return nil
}

func (i impl) Save(dict models.LookupDict, items []dictapimodels.LookupView) error {
	if !dict.IsValid() {
		return errors.Wrapf(models.ErrNotFound, "lookup %q", dict)
	}
	recList := make([]dbmodels.LookupItem, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 || item.Name == "" {
			return models.NewValidationError("lookup item needs a positive id and a name")
		}
		recList = append(recList, dbmodels.LookupItem{Dict: dict, Code: item.ID, Name: item.Name})
	}
	if err := i.store.Upsert(recList); err != nil {
		return err
	}
	i.Invalidate(dict)
	return nil
}

func (i impl) Invalidate(dict models.LookupDict) {
	i.cache.Delete(string(dict))
}
