// Package storage loads AWS configuration and archives import reports to S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/streetbite/vendorhub/internal/service/campaign"
)

// LoadAWSConfig loads the shared AWS configuration for region, using the
// named profile when set.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// WithStaticCredentials returns a copy of cfg for another region using a
// fixed key pair, as SES may run under separate credentials.
func WithStaticCredentials(cfg aws.Config, region, accessKey, secretKey string) aws.Config {
	out := cfg.Copy()
	if region != "" {
		out.Region = region
	}
	if accessKey != "" && secretKey != "" {
		out.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""))
	}
	return out
}

// S3PutAPI is the subset of the S3 client used for archiving.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImportAuditor writes recipient import reports to S3 as JSON, one object
// per import under <prefix>/<campaignId>/<timestamp>.json.
type ImportAuditor struct {
	client S3PutAPI
	bucket string
	prefix string
}

// NewImportAuditor creates an auditor for bucket.
func NewImportAuditor(client S3PutAPI, bucket, prefix string) *ImportAuditor {
	return &ImportAuditor{client: client, bucket: bucket, prefix: prefix}
}

// SaveImportReport implements campaign.AuditSink.
func (a *ImportAuditor) SaveImportReport(ctx context.Context, report campaign.ImportReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling import report: %w", err)
	}
	key := a.Key(report.CampaignID, report.FinishedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s: %w", key, a.bucket, err)
	}
	return nil
}

// Key returns the object key for an import finished at the given time.
func (a *ImportAuditor) Key(campaignID string, at time.Time) string {
	return path.Join(a.prefix, campaignID, at.UTC().Format("20060102T150405Z")+".json")
}
