package initializers

import (
	"context"

	log "github.com/sirupsen/logrus"
	"spice-portal-backend/config"
	s3client "spice-portal-backend/s3"
)

// InitS3 keeps running without storage, certificate files fail until s3 is reachable
func InitS3(ctx context.Context) {
	logger := log.WithField("endpoint", config.Conf.S3.Endpoint)
	if config.Conf.S3.Endpoint == "" {
		logger.Warn("s3 endpoint is not configured")
		return
	}
	client, err := s3client.Connect(ctx, s3client.Config{
		Endpoint:        config.Conf.S3.Endpoint,
		AccessKeyID:     config.Conf.S3.AccessKeyID,
		SecretAccessKey: config.Conf.S3.SecretAccessKey,
		UseSSL:          *config.Conf.S3.UseSSL,
		Region:          config.Conf.S3.Region,
	})
	if err != nil {
		logger.WithError(err).Error("error initializing s3 client")
		return
	}
	if err = s3client.MakeBucket(ctx, client, config.Conf.S3.BucketName, config.Conf.S3.Region); err != nil {
		logger.WithError(err).Error("error preparing s3 bucket")
		return
	}
	s3client.Client = client
	logger.Info("s3 client initialized")
}
