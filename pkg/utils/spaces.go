package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
)

// SpacesClient wraps the S3 client for DigitalOcean Spaces operations.
// Scraper containers are ephemeral, so failure artifacts worth keeping get
// shipped off the box.
type SpacesClient struct {
	client     *s3.S3
	bucketName string
	bucketURL  string
	cdnURL     string
	logger     logging.Logger
}

// SpacesConfigured reports whether object storage credentials are present
func SpacesConfigured(cfg *config.Config) bool {
	return cfg != nil &&
		cfg.Spaces.AccessKeyID != "" &&
		cfg.Spaces.AccessKeySecret != "" &&
		cfg.Spaces.BucketName != ""
}

// NewSpacesClient creates a new DigitalOcean Spaces client
func NewSpacesClient(cfg *config.Config) (*SpacesClient, error) {
	logger := logging.GetGlobalLogger()

	if cfg.Spaces.AccessKeyID == "" || cfg.Spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("spaces credentials are required")
	}
	if cfg.Spaces.BucketName == "" {
		return nil, fmt.Errorf("spaces bucket name is required")
	}

	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", cfg.Spaces.Region)

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.Spaces.AccessKeyID,
			cfg.Spaces.AccessKeySecret,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(cfg.Spaces.Region),
		S3ForcePathStyle: aws.Bool(false), // virtual-hosted-style for DigitalOcean Spaces
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spaces session: %w", err)
	}

	logger.Debug("Spaces client initialized", map[string]interface{}{
		"bucket_name": cfg.Spaces.BucketName,
		"region":      cfg.Spaces.Region,
		"endpoint":    endpoint,
	})

	return &SpacesClient{
		client:     s3.New(sess),
		bucketName: cfg.Spaces.BucketName,
		bucketURL:  cfg.Spaces.BucketURL,
		cdnURL:     cfg.Spaces.CDNEndpoint,
		logger:     logger,
	}, nil
}

// UploadFailureScreenshot uploads a failed-search screenshot and returns its
// URL. Screenshots are keyed by site and session so captures from retried
// sessions never overwrite each other.
func (sc *SpacesClient) UploadFailureScreenshot(siteKey, sessionID string, imageData []byte) (string, error) {
	objectKey := fmt.Sprintf("failures/screenshots/%s/%s.jpg", siteKey, sessionID)

	_, err := sc.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(sc.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String("image/jpeg"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		sc.logger.Error("Failed to upload failure screenshot", map[string]interface{}{
			"site":       siteKey,
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("failed to upload screenshot: %w", err)
	}

	screenshotURL := sc.objectURL(objectKey)
	sc.logger.Info("Failure screenshot uploaded", map[string]interface{}{
		"site":           siteKey,
		"object_key":     objectKey,
		"size_bytes":     len(imageData),
		"screenshot_url": screenshotURL,
	})
	return screenshotURL, nil
}

// objectURL builds the public URL for an object, preferring the CDN endpoint
func (sc *SpacesClient) objectURL(objectKey string) string {
	if sc.cdnURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(sc.cdnURL, "/"), objectKey)
	}

	if sc.bucketURL != "" {
		base := strings.TrimRight(sc.bucketURL, "/")
		if !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
		return fmt.Sprintf("%s/%s", base, objectKey)
	}

	region := ""
	if sc.client.Config.Region != nil {
		region = *sc.client.Config.Region
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", sc.bucketName, region, objectKey)
}

// IsHealthy checks if the Spaces client can communicate with the service
func (sc *SpacesClient) IsHealthy() bool {
	_, err := sc.client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(sc.bucketName),
	})

	if err != nil {
		sc.logger.Error("Spaces health check failed", map[string]interface{}{
			"bucket_name": sc.bucketName,
			"error":       err.Error(),
		})
		return false
	}
	return true
}
