package repository

import (
	"context"
	"os"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient) subtitles.AWSRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
	}
}

func (a *awsRepository) UploadAudio(ctx context.Context, bucket, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrap(err, "awsRepository.UploadAudio.Open")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errors.Wrap(err, "awsRepository.UploadAudio.Stat")
	}
	size := info.Size()
	contentType := "audio/mpeg"

	if _, err = a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &bucket,
			Key:           &key,
			ContentType:   &contentType,
			ContentLength: &size,
			Body:          file,
		},
	); err != nil {
		return errors.Wrap(err, "awsRepository.UploadAudio.PutObject")
	}
	return nil
}

func (a *awsRepository) GetPresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", errors.Wrap(err, "awsRepository.GetPresignedURL")
	}
	return req.URL, nil
}

func (a *awsRepository) DeleteAudio(ctx context.Context, bucket, key string) error {
	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}); err != nil {
		return errors.Wrap(err, "awsRepository.DeleteAudio")
	}
	return nil
}
