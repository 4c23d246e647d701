package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/disintegration/imaging"

	"github.com/feichai0017/pdf-processor/pkg/logger"
)

type TextractConfig struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
}

type textractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractRecognizer sends each page image to AWS Textract and keeps the LINE blocks.
type TextractRecognizer struct {
	client textractAPI
	logger logger.Logger
	config TextractConfig
}

func NewTextractRecognizer(ctx context.Context, cfg TextractConfig, log logger.Logger) (*TextractRecognizer, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &TextractRecognizer{
		client: textract.NewFromConfig(awsCfg, func(o *textract.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		}),
		logger: log,
		config: cfg,
	}, nil
}

func (r *TextractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	result, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: buf.Bytes()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect document text: %w", err)
	}

	lines := r.lines(result.Blocks)
	r.logger.Debug("Textract page recognized",
		logger.Int("blocks", len(result.Blocks)),
		logger.Int("lines", len(lines)),
	)
	return strings.Join(lines, "\n"), nil
}

func (r *TextractRecognizer) lines(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if aws.ToFloat32(block.Confidence) < r.config.MinConfidence {
			continue
		}
		texts = append(texts, *block.Text)
	}
	return texts
}
