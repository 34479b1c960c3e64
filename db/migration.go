package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	dbmodels "spice-portal-backend/models/db"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	migrations := []struct {
		name  string
		model any
	}{
		{"PortalUser", &dbmodels.PortalUser{}},
		{"RoleProfile", &dbmodels.RoleProfile{}},
		{"ProductLine", &dbmodels.ProductLine{}},
		{"LookupItem", &dbmodels.LookupItem{}},
		{"ApprovalRequest", &dbmodels.ApprovalRequest{}},
		{"ApprovalHistory", &dbmodels.ApprovalHistory{}},
		{"ApprovalSaga", &dbmodels.ApprovalSaga{}},
		{"Certificate", &dbmodels.Certificate{}},
		{"Notification", &dbmodels.Notification{}},
	}
	for _, migration := range migrations {
		if err := DB.AutoMigrate(migration.model); err != nil {
			return errors.Wrapf(err, "error migrating %s", migration.name)
		}
	}
	log.Info("migrations done")
	return nil
}
