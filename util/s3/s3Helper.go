// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package s3

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Helper encapsulates the s3 session state for downloading from one bucket.
type Helper struct {
	session *session.Session
	bucket  string
}

// MakeS3SessionForDownloadWithBucket returns a Helper that reads a public
// bucket without credentials.
func MakeS3SessionForDownloadWithBucket(awsBucket, region string) (helper Helper, err error) {
	if awsBucket == "" {
		err = fmt.Errorf("unable to download, bucket name is empty")
		return
	}
	return makeS3Session(credentials.AnonymousCredentials, awsBucket, region)
}

func makeS3Session(credentials *credentials.Credentials, bucket, region string) (helper Helper, err error) {
	if region == "" {
		region = DefaultRegion
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region),
		Credentials: credentials})
	if err != nil {
		return
	}
	helper = Helper{
		session: sess,
		bucket:  bucket,
	}
	return
}

// Bucket returns the bucket this helper reads from.
func (helper *Helper) Bucket() string {
	return helper.bucket
}

// FindFirst returns the first key under prefix whose base name is filename.
func (helper *Helper) FindFirst(prefix, filename string) (string, error) {
	svc := s3.New(helper.session)
	input := &s3.ListObjectsInput{
		Bucket:  &helper.bucket,
		Prefix:  &prefix,
		MaxKeys: aws.Int64(500),
	}

	var keys []string
	err := svc.ListObjectsPages(input, func(page *s3.ListObjectsOutput, lastPage bool) bool {
		for _, item := range page.Contents {
			keys = append(keys, aws.StringValue(item.Key))
		}
		_, found := firstMatching(keys, filename)
		return !found
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok {
			err = awsErr
		}
		return "", err
	}
	key, found := firstMatching(keys, filename)
	if !found {
		return "", fmt.Errorf("nothing named %s found in s3://%s/%s", filename, helper.bucket, prefix)
	}
	return key, nil
}

func firstMatching(keys []string, filename string) (string, bool) {
	for _, key := range keys {
		if path.Base(key) == filename {
			return key, true
		}
	}
	return "", false
}

// DownloadFile downloads the specified file to the provided Writer
func (helper *Helper) DownloadFile(name string, writer io.WriterAt) error {
	downloader := s3manager.NewDownloader(helper.session)
	_, err := downloader.Download(writer,
		&s3.GetObjectInput{
			Bucket: &helper.bucket,
			Key:    aws.String(name),
		})
	return err
}

// DownloadFirst finds the first object under prefix named filename and
// writes it to outPath. It returns the object key.
func (helper *Helper) DownloadFirst(prefix, filename, outPath string) (string, error) {
	key, err := helper.FindFirst(prefix, filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := helper.DownloadFile(key, f); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("s3://%s/%s: %w", helper.bucket, key, err)
	}
	return key, nil
}
