package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"caseintake/internal/config"
)

// Object key prefixes inside the bucket.
const (
	UploadPrefix = "uploads/"
	ExportPrefix = "exports/"
	SheetPrefix  = "sheets/"
)

// publicReadPolicy 允许匿名读取 bucket 中的对象，对应表单直接展示的公开链接。
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// objectAPI 是内部地址上用到的 MinIO 操作，*minio.Client 满足该接口。
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Client 封装 MinIO 客户端：内部地址用于读写，公开地址用于生成链接。
type Client struct {
	internalClient objectAPI
	publicClient   *minio.Client
	publicEndpoint string
	bucketName     string
	region         string
	autoCreate     bool
}

// NewClient 根据配置初始化 MinIO 客户端。Bucket 的创建推迟到 EnsureBucket。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	var bucketLookup minio.BucketLookupType
	switch strings.ToLower(strings.TrimSpace(cfg.BucketLookup)) {
	case "", "auto":
		bucketLookup = minio.BucketLookupAuto
	case "dns":
		bucketLookup = minio.BucketLookupDNS
	case "path":
		bucketLookup = minio.BucketLookupPath
	default:
		return nil, fmt.Errorf("invalid minio bucket lookup %q", cfg.BucketLookup)
	}

	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	internalClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: bucketLookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init internal minio client: %w", err)
	}

	public, err := url.Parse(cfg.PublicEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse minio public endpoint: %w", err)
	}
	if public.Host == "" {
		return nil, fmt.Errorf("invalid minio public endpoint, host missing")
	}

	publicClient, err := minio.New(public.Host, &minio.Options{
		Creds:        creds,
		Secure:       public.Scheme == "https",
		Region:       cfg.Region,
		BucketLookup: bucketLookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init public minio client: %w", err)
	}

	return &Client{
		internalClient: internalClient,
		publicClient:   publicClient,
		publicEndpoint: strings.TrimRight(cfg.PublicEndpoint, "/"),
		bucketName:     cfg.Bucket,
		region:         cfg.Region,
		autoCreate:     cfg.AutoCreateBucket,
	}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string { return c.bucketName }

// EnsureBucket 幂等地保证 bucket 存在且可公开读取。
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.internalClient.BucketExists(ctx, c.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", c.bucketName, err)
	}
	if exists {
		return nil
	}
	if !c.autoCreate {
		return fmt.Errorf("bucket %q does not exist (auto create disabled)", c.bucketName)
	}
	// 并发创建时另一方可能先建好 bucket，但未必已设置策略，因此仍然继续设置。
	if err := c.internalClient.MakeBucket(ctx, c.bucketName, minio.MakeBucketOptions{Region: c.region}); err != nil && !IsBucketAlreadyOwned(err) {
		return fmt.Errorf("make bucket %q: %w", c.bucketName, err)
	}
	if err := c.internalClient.SetBucketPolicy(ctx, c.bucketName, fmt.Sprintf(publicReadPolicy, c.bucketName)); err != nil {
		return fmt.Errorf("set public policy on %q: %w", c.bucketName, err)
	}
	return nil
}

// UploadFile 上传对象并返回上传结果。
func (c *Client) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	info, err := c.internalClient.PutObject(ctx, c.bucketName, objectName, reader, size, opts)
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectName, err)
	}
	return &info, nil
}

// PublicURL returns the anonymous, non-expiring URL of an object.
func (c *Client) PublicURL(objectKey string) string {
	return c.publicEndpoint + "/" + c.bucketName + "/" + strings.TrimLeft(objectKey, "/")
}

// GeneratePresignedURL 生成对象的限时下载链接。
func (c *Client) GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error) {
	presignedURL, err := c.publicClient.PresignedGetObject(ctx, c.bucketName, objectKey, duration, nil)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// DeleteObject 删除指定对象；对象不存在视为成功。
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil
	}
	if err := c.internalClient.RemoveObject(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}

// NewUploadKey builds uploads/<random>_<unix ms>.<ext> from the client file name.
func NewUploadKey(filename string, now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random object name: %w", err)
	}
	key := fmt.Sprintf("%s%s_%d", UploadPrefix, hex.EncodeToString(buf), now.UnixMilli())
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")); ext != "" && isSafeExt(ext) {
		key += "." + ext
	}
	return key, nil
}

func isSafeExt(ext string) bool {
	if len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
