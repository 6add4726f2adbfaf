// Package rekognition реализует бэкенд распознавания через AWS Rekognition.
//
// Работает только через интерфейс detect.Detector. Картинка передаётся
// в API ссылкой на S3 объект — байты через нас не проходят.
package rekognition

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekognitiontypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/ilkoid/labelgen/pkg/config"
	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/s3storage"
	"github.com/ilkoid/labelgen/pkg/utils"
)

// api — минимальный срез Rekognition клиента, нужный нам.
// Позволяет подменять клиента в тестах.
type api interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Client реализует интерфейс detect.Detector поверх AWS Rekognition.
type Client struct {
	api           api
	maxLabels     int32
	minConfidence float32
}

// Проверка что Client реализует detect.Detector
var _ detect.Detector = (*Client)(nil)

// NewClient создает Rekognition клиент на основе конфигурации детектора.
//
// Креды берутся из стандартной цепочки AWS (ENV, shared config, именованный
// профиль из detector.aws_profile). Сами мы их не валидируем — API вернёт
// ошибку при первом вызове.
func NewClient(ctx context.Context, det config.DetectorConfig) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if det.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(det.AWSProfile))
	}
	if det.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(det.AWSRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		api:           rekognition.NewFromConfig(awsCfg),
		maxLabels:     int32(det.MaxLabels),
		minConfidence: float32(det.MinConfidence),
	}, nil
}

// DetectLabels вызывает Rekognition DetectLabels для одного объекта в S3.
//
// Порог уверенности применяет сам API (MinConfidence), нам остаётся только
// смаппить ответ в наш формат.
func (c *Client) DetectLabels(ctx context.Context, ref s3storage.ObjectRef) (*detect.Result, error) {
	startTime := time.Now()

	utils.Debug("Rekognition request started", "image", ref.String(), "max_labels", c.maxLabels)

	resp, err := c.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &rekognitiontypes.Image{
			S3Object: &rekognitiontypes.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
		MaxLabels:     aws.Int32(c.maxLabels),
		MinConfidence: aws.Float32(c.minConfidence),
	})
	if err != nil {
		utils.Error("Rekognition request failed",
			"image", ref.String(),
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, detect.WrapDetection(ref.String(), err)
	}

	result := &detect.Result{
		Image:  ref.String(),
		Labels: mapLabels(resp.Labels),
	}

	utils.Info("Rekognition response received",
		"image", ref.String(),
		"labels_count", len(result.Labels),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// mapLabels конвертирует ответ Rekognition в наш формат.
func mapLabels(src []rekognitiontypes.Label) []detect.Label {
	labels := make([]detect.Label, 0, len(src))

	for _, lab := range src {
		label := detect.Label{
			Name:       aws.ToString(lab.Name),
			Confidence: detect.RoundConfidence(float64(aws.ToFloat32(lab.Confidence))),
		}

		for _, p := range lab.Parents {
			label.Parents = append(label.Parents, aws.ToString(p.Name))
		}

		for _, inst := range lab.Instances {
			if inst.BoundingBox == nil {
				continue
			}
			label.Instances = append(label.Instances, detect.Instance{
				Left:       float64(aws.ToFloat32(inst.BoundingBox.Left)),
				Top:        float64(aws.ToFloat32(inst.BoundingBox.Top)),
				Width:      float64(aws.ToFloat32(inst.BoundingBox.Width)),
				Height:     float64(aws.ToFloat32(inst.BoundingBox.Height)),
				Confidence: detect.RoundConfidence(float64(aws.ToFloat32(inst.Confidence))),
			})
		}

		labels = append(labels, label)
	}

	return labels
}
