// Package avatars resolves user avatar URLs. Gravatar-style avatars are
// derived from the user's email (or name when no email is set); manually
// uploaded avatars live in an S3-compatible object store and are served
// through presigned GET URLs.
package avatars

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/avolkovs/imgboard/internal/server/config"
	"github.com/avolkovs/imgboard/internal/server/models"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Store issues presigned URLs for manually uploaded avatars.
type Store struct {
	config *sc.Config
}

func NewStore(config *sc.Config) *Store {
	return &Store{config: config}
}

// GravatarURL builds the gravatar URL for a user: the md5 of the lowercased
// email address, falling back to the user name when no email is set.
func GravatarURL(user *models.User) string {
	source := user.Name
	if user.Email != nil {
		source = *user.Email
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(source))))
	return fmt.Sprintf("https://gravatar.com/avatar/%x?d=retro", sum)
}

// StorageKey returns the object key holding a user's manually uploaded
// avatar. Keys are deterministic so a re-upload replaces the old image.
func StorageKey(userName string) string {
	return fmt.Sprintf("avatars/%s.png", userName)
}

func (s *Store) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignedPutURL returns the storage key for the user's avatar and a
// presigned PUT URL the uploader can write the image to.
func (s *Store) PresignedPutURL(ctx context.Context, userName string) (string, string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := StorageKey(userName)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AvatarURLTTL))

	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignedGetURL returns a presigned GET URL for a stored avatar object.
func (s *Store) PresignedGetURL(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AvatarURLTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
