// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package s3

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// SessionConfig holds everything needed to talk to the storage backend.
type SessionConfig struct {
	Region    string
	Endpoint  string
	CredsFile string
}

// NewSession builds an AWS session from the config. When CredsFile is
// set it must be a key/value (properties) file supplying
// access_key_id and secret_access_key; otherwise the SDK's default
// credential chain applies. No validation happens here - bad
// credentials surface from the first S3 call untouched.
func NewSession(cfg SessionConfig) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.CredsFile != "" {
		id, secret, err := readCreds(cfg.CredsFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading credentials file")
		}
		awsCfg.Credentials = credentials.NewStaticCredentials(id, secret, "")
	}
	sess, err := session.NewSession(awsCfg)
	return sess, errors.Wrap(err, "getting new session")
}

func readCreds(path string) (id, secret string, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return "", "", err
	}
	id = v.GetString("access_key_id")
	secret = v.GetString("secret_access_key")
	if id == "" || secret == "" {
		return "", "", errors.Errorf("%s must set access_key_id and secret_access_key", path)
	}
	return id, secret, nil
}

// ParseLocation splits an s3://bucket/prefix URL. ok is false when loc
// isn't an S3 URL (i.e. it's a local path).
func ParseLocation(loc string) (bucket, prefix string, ok bool) {
	if !strings.HasPrefix(loc, "s3://") && !strings.HasPrefix(loc, "s3a://") {
		return "", "", false
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(loc, "s3a://"), "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, true
}
