package fiberlog

import "github.com/sirupsen/logrus"

// Config of the request log middleware, Tags selects the logged fields
type Config struct {
	Logger *logrus.Logger
	Tags   []string
}

// ConfigDefault logs the outcome of every api call together with the caller
var ConfigDefault = Config{
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagRoute,
		TagUserID,
	},
}
