// "Тупой" клиент хранилища. Распознавание меток живёт отдельно.

package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/labelgen/pkg/collector"
	"github.com/ilkoid/labelgen/pkg/config"
	"github.com/ilkoid/labelgen/pkg/utils"
)

// ErrTransfer возвращается при любой ошибке передачи данных в хранилище
// (сеть, аутентификация, права на бакет).
//
// Поддерживает errors.Is() через обёртку %w.
var ErrTransfer = errors.New("storage transfer failed")

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	Bucket() string
	EnsureBucket(ctx context.Context) error
	UploadFile(ctx context.Context, localPath, key string) (ObjectRef, error)
	ListImages(ctx context.Context, prefix string) ([]StoredObject, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

type Client struct {
	api    *minio.Client
	bucket string
	region string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// ObjectRef — непрозрачная ссылка на загруженный объект.
//
// Существует только как параметр для вызова распознавания, никуда
// не персистится.
type ObjectRef struct {
	Bucket string
	Key    string
}

// String возвращает канонический идентификатор s3://bucket/key.
// Этот же идентификатор попадает в отчёты.
func (r ObjectRef) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// StoredObject - сырой объект из S3
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Ref возвращает ObjectRef для объекта в указанном бакете.
func (o StoredObject) Ref(bucket string) ObjectRef {
	return ObjectRef{Bucket: bucket, Key: o.Key}
}

// New создает клиент, используя наш конфиг
func New(cfg config.S3Config) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Bucket возвращает имя бакета, с которым работает клиент.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket создаёт бакет если его ещё нет (безопасно для повторного запуска).
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket '%s': %v", ErrTransfer, c.bucket, err)
	}
	if exists {
		utils.Debug("Bucket exists", "bucket", c.bucket)
		return nil
	}

	err = c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
	if err != nil {
		// Гонка с параллельным запуском: бакет уже создан — не ошибка
		if resp := minio.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			utils.Debug("Bucket already owned", "bucket", c.bucket)
			return nil
		}
		return fmt.Errorf("%w: create bucket '%s': %v", ErrTransfer, c.bucket, err)
	}

	utils.Info("Bucket created", "bucket", c.bucket, "region", c.region)
	return nil
}

// UploadFile загружает локальный файл в бакет под указанным ключом.
//
// Content-Type выставляется по расширению файла. Возвращает ObjectRef
// для последующего вызова распознавания.
func (c *Client) UploadFile(ctx context.Context, localPath, key string) (ObjectRef, error) {
	_, err := c.api.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: utils.ImageContentType(localPath),
	})
	if err != nil {
		return ObjectRef{}, fmt.Errorf("%w: upload %s to s3://%s/%s: %v",
			ErrTransfer, localPath, c.bucket, key, err)
	}

	return ObjectRef{Bucket: c.bucket, Key: key}, nil
}

// ListImages возвращает картинки из бакета по префиксу.
//
// Объекты с неподдерживаемыми расширениями отфильтровываются, чтобы
// в цикл распознавания не попали случайные файлы.
func (c *Client) ListImages(ctx context.Context, prefix string) ([]StoredObject, error) {
	// Нормализация префикса (добавляем слеш, если это "папка")
	if !strings.HasSuffix(prefix, "/") && prefix != "" {
		prefix += "/"
	}

	var objects []StoredObject

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list s3://%s/%s: %v", ErrTransfer, c.bucket, prefix, obj.Err)
		}
		// Пропускаем саму "папку"
		if obj.Key == prefix {
			continue
		}
		if !collector.IsImage(obj.Key) {
			continue
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	if len(objects) == 0 {
		// Для утилиты лучше вернуть ошибку, чтобы пользователь сразу понял
		return nil, fmt.Errorf("no images found at s3://%s/%s", c.bucket, prefix)
	}

	return objects, nil
}

// DownloadFile скачивает объект целиком в память
func (c *Client) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrTransfer, c.bucket, key, err)
	}
	defer obj.Close()

	// Читаем в буфер
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrTransfer, c.bucket, key, err)
	}

	return buf.Bytes(), nil
}
