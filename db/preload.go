package db

import (
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/config"
	lookupstore "spice-portal-backend/lib/dicts/lookup/store"
	usersstore "spice-portal-backend/lib/users/store"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

func InitPreload() {
	addAdmin()
	fillLookups()
}

func addAdmin() {
	if config.Conf.Admin.Email == "" {
		log.Warn("administrator not added, ADMIN_EMAIL is not set")
		return
	}
	store := usersstore.NewInstance(DB)
	existedRec, err := store.GetByEmail(config.Conf.Admin.Email)
	if err != nil {
		log.WithError(err).Error("error adding administrator")
		return
	}
	if existedRec != nil {
		return
	}
	rec := dbmodels.PortalUser{
		FullName: config.Conf.Admin.FullName,
		Email:    config.Conf.Admin.Email,
		Role:     models.AdminRole,
		IsActive: true,
	}
	if _, err = store.Create(rec); err != nil {
		log.WithError(err).Error("error adding administrator")
	}
}

// fillLookups seeds empty dictionaries only, existing rows are left as they are
func fillLookups() {
	store := lookupstore.NewInstance(DB)
	for _, dict := range models.LookupDicts {
		logger := log.WithField("dict", dict)
		count, err := store.Count(dict)
		if err != nil {
			logger.WithError(err).Error("error seeding lookup")
			return
		}
		if count > 0 {
			continue
		}
		names := lookupSeed[dict]
		items := make([]dbmodels.LookupItem, 0, len(names))
		for idx, name := range names {
			items = append(items, dbmodels.LookupItem{Dict: dict, Code: idx + 1, Name: name})
		}
		if err = store.Upsert(items); err != nil {
			logger.WithError(err).Error("error seeding lookup")
			return
		}
		logger.WithField("count", len(items)).Info("lookup seeded")
	}
}

var lookupSeed = map[models.LookupDict][]string{
	models.LookupProvince: {
		"Central", "Eastern", "North Central", "Northern", "North Western",
		"Sabaragamuwa", "Southern", "Uva", "Western",
	},
	models.LookupProducts: {
		"Cinnamon", "Black pepper", "Cloves", "Nutmeg", "Mace", "Cardamom",
		"Ginger", "Turmeric", "Vanilla", "Citronella oil", "Cinnamon leaf oil",
	},
	models.LookupCertificates: {
		"Spice Exporter Certificate", "Organic Certification", "GMP Certification",
		"ISO 22000", "HACCP", "Fair Trade",
	},
	models.LookupExperience: {
		"Less than 1 year", "1 - 3 years", "3 - 5 years", "5 - 10 years", "More than 10 years",
	},
	models.LookupNumberOfEmployees: {
		"1 - 5", "6 - 20", "21 - 50", "51 - 200", "More than 200",
	},
}
