package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekognitiontypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/s3storage"
)

// fakeAPI подменяет AWS клиента в тестах.
type fakeAPI struct {
	resp    *rekognition.DetectLabelsOutput
	err     error
	lastReq *rekognition.DetectLabelsInput
}

func (f *fakeAPI) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.lastReq = params
	return f.resp, f.err
}

func TestDetectLabels(t *testing.T) {
	fake := &fakeAPI{
		resp: &rekognition.DetectLabelsOutput{
			Labels: []rekognitiontypes.Label{
				{
					Name:       aws.String("Cat"),
					Confidence: aws.Float32(99.004),
					Parents: []rekognitiontypes.Parent{
						{Name: aws.String("Animal")},
						{Name: aws.String("Pet")},
					},
					Instances: []rekognitiontypes.Instance{
						{
							BoundingBox: &rekognitiontypes.BoundingBox{
								Left:   aws.Float32(0.1),
								Top:    aws.Float32(0.2),
								Width:  aws.Float32(0.5),
								Height: aws.Float32(0.4),
							},
							Confidence: aws.Float32(98.5),
						},
					},
				},
				{
					Name:       aws.String("Animal"),
					Confidence: aws.Float32(95.0),
				},
			},
		},
	}

	client := &Client{api: fake, maxLabels: 10, minConfidence: 70}
	ref := s3storage.ObjectRef{Bucket: "test-bucket", Key: "images/cat.jpg"}

	result, err := client.DetectLabels(context.Background(), ref)
	if err != nil {
		t.Fatalf("DetectLabels() error = %v", err)
	}

	if result.Image != "s3://test-bucket/images/cat.jpg" {
		t.Errorf("Image = %q, want s3://test-bucket/images/cat.jpg", result.Image)
	}
	if len(result.Labels) != 2 {
		t.Fatalf("len(Labels) = %d, want 2", len(result.Labels))
	}

	cat := result.Labels[0]
	if cat.Name != "Cat" {
		t.Errorf("Name = %q, want Cat", cat.Name)
	}
	// Округление до 2 знаков
	if cat.Confidence != 99.0 {
		t.Errorf("Confidence = %v, want 99.0", cat.Confidence)
	}
	if len(cat.Parents) != 2 || cat.Parents[0] != "Animal" {
		t.Errorf("Parents = %v, want [Animal Pet]", cat.Parents)
	}
	if len(cat.Instances) != 1 {
		t.Fatalf("len(Instances) = %d, want 1", len(cat.Instances))
	}

	// Параметры запроса уходят в API как есть
	if got := aws.ToInt32(fake.lastReq.MaxLabels); got != 10 {
		t.Errorf("MaxLabels = %d, want 10", got)
	}
	if got := aws.ToFloat32(fake.lastReq.MinConfidence); got != 70 {
		t.Errorf("MinConfidence = %v, want 70", got)
	}
	if got := aws.ToString(fake.lastReq.Image.S3Object.Bucket); got != "test-bucket" {
		t.Errorf("S3Object.Bucket = %q, want test-bucket", got)
	}
}

func TestDetectLabelsAPIError(t *testing.T) {
	fake := &fakeAPI{err: errors.New("ProvisionedThroughputExceededException")}
	client := &Client{api: fake, maxLabels: 10, minConfidence: 70}

	_, err := client.DetectLabels(context.Background(), s3storage.ObjectRef{Bucket: "b", Key: "k"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, detect.ErrDetection) {
		t.Errorf("error = %v, want ErrDetection", err)
	}

	var detErr *detect.DetectionError
	if !errors.As(err, &detErr) {
		t.Fatal("expected *detect.DetectionError")
	}
	if detErr.Image != "s3://b/k" {
		t.Errorf("Image = %q, want s3://b/k", detErr.Image)
	}
}

func TestDetectLabelsEmptyResponse(t *testing.T) {
	fake := &fakeAPI{resp: &rekognition.DetectLabelsOutput{}}
	client := &Client{api: fake, maxLabels: 10, minConfidence: 70}

	result, err := client.DetectLabels(context.Background(), s3storage.ObjectRef{Bucket: "b", Key: "k"})
	if err != nil {
		t.Fatalf("DetectLabels() error = %v", err)
	}
	if len(result.Labels) != 0 {
		t.Errorf("len(Labels) = %d, want 0", len(result.Labels))
	}
}
