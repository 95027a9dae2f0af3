package main

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	"github.com/squigglekit/pod5go/pod5"
	pod5s3 "github.com/squigglekit/pod5go/pod5/s3"
)

// shared flags for commands that open a file
var (
	flagSignalPath string
	flagCodec      string
)

func addOpenFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&flagSignalPath, "signal", "s", "", "Signal table path for split-table input (the positional argument is then the read table)")
	flags.StringVar(&flagCodec, "codec", "", "Override the signal codec (dzz, dzl)")
}

// openReader opens path as a combined container, or as a split read table
// when --signal was given. Both local paths and s3://bucket/key URLs work.
func openReader(ctx context.Context, path string) (*pod5.Reader, error) {
	var opts []pod5.Option
	if flagCodec != "" {
		codec, err := pod5.CodecByName(flagCodec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pod5.WithSignalCodec(codec))
	}

	if flagSignalPath != "" {
		readsSrc, err := openSource(ctx, path)
		if err != nil {
			return nil, err
		}
		signalSrc, err := openSource(ctx, flagSignalPath)
		if err != nil {
			return nil, err
		}
		return pod5.OpenSplit(ctx, readsSrc, signalSrc, opts...)
	}

	src, err := openSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return pod5.OpenCombined(ctx, src, opts...)
}

func openSource(ctx context.Context, path string) (pod5.Source, error) {
	if bucket, key, ok := parseS3URL(path); ok {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		opener, err := pod5s3.New(awss3.NewFromConfig(cfg), pod5s3.Config{Bucket: bucket})
		if err != nil {
			return nil, err
		}
		return opener.Source(ctx, key)
	}
	return pod5.NewFileSource(path)
}

// parseS3URL splits s3://bucket/key/path into bucket and key.
func parseS3URL(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
