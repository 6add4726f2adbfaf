package factory

import (
	"context"
	"fmt"

	"github.com/ilkoid/labelgen/pkg/config"
	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/detect/rekognition"
	"github.com/ilkoid/labelgen/pkg/detect/vision"
	"github.com/ilkoid/labelgen/pkg/s3storage"
)

// NewDetector создает бэкенд распознавания на основе конфигурации.
//
// storage нужен только vision-бэкенду (он скачивает байты картинки,
// у rekognition хранилище читает сам AWS).
func NewDetector(ctx context.Context, cfg *config.AppConfig, storage s3storage.ClientInterface) (detect.Detector, error) {
	det := cfg.Detector.GetDefaults()

	switch det.Provider {
	case "rekognition":
		return rekognition.NewClient(ctx, det)

	case "vision":
		modelDef, ok := cfg.GetVisionModel("")
		if !ok {
			return nil, fmt.Errorf("vision model '%s' is not defined", det.DefaultVision)
		}
		return vision.NewClient(modelDef, det, cfg.ImageProcessing, storage), nil

	default:
		return nil, fmt.Errorf("unknown detector provider: %s", det.Provider)
	}
}
