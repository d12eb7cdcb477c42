package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetbite/vendorhub/internal/service/campaign"
)

type fakeS3 struct {
	key    string
	bucket string
	body   []byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = aws.ToString(in.Key)
	f.bucket = aws.ToString(in.Bucket)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestImportAuditorWritesReport(t *testing.T) {
	api := &fakeS3{}
	a := NewImportAuditor(api, "vendorhub-audit", "campaign-imports")
	finished := time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC)

	err := a.SaveImportReport(context.Background(), campaign.ImportReport{
		CampaignID: "c1",
		Result:     campaign.ImportResult{Imported: 2, Duplicates: 1, Invalid: 1, Empty: 1, Lines: 5},
		Rejected:   []campaign.RejectedLine{{Line: 3, Value: "abc"}},
		FinishedAt: finished,
	})
	require.NoError(t, err)
	assert.Equal(t, "vendorhub-audit", api.bucket)
	assert.Equal(t, "campaign-imports/c1/20260301T093005Z.json", api.key)

	var got campaign.ImportReport
	require.NoError(t, json.Unmarshal(api.body, &got))
	assert.Equal(t, 2, got.Result.Imported)
	assert.Equal(t, "abc", got.Rejected[0].Value)
}

func TestImportAuditorError(t *testing.T) {
	a := NewImportAuditor(&fakeS3{err: errors.New("AccessDenied")}, "b", "p")
	err := a.SaveImportReport(context.Background(), campaign.ImportReport{CampaignID: "c1"})
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestWithStaticCredentials(t *testing.T) {
	base := aws.Config{Region: "ap-south-1"}
	cfg := WithStaticCredentials(base, "us-east-1", "AKIA", "secret")
	assert.Equal(t, "us-east-1", cfg.Region)
	require.NotNil(t, cfg.Credentials)
	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
	assert.Equal(t, "ap-south-1", base.Region)

	same := WithStaticCredentials(base, "", "", "")
	assert.Equal(t, "ap-south-1", same.Region)
	assert.Nil(t, same.Credentials)
}
