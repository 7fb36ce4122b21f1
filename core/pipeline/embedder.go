package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/agrimarket/helper"
)

// DefaultModel is a multilingual sentence transformer, so Korean and
// English queries land in the same embedding space.
const DefaultModel = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"

// DefaultDimension is the embedding size of DefaultModel
const DefaultDimension = 384

// DefaultEmbedder creates an embedder running modelName through hugot's Go backend.
// An empty modelName selects DefaultModel. The returned close function releases the session.
func DefaultEmbedder(modelName string) (EmbedFunc, func() error, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "agrimarket-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	embed := func(texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(result.Embeddings), len(texts))
		}

		return result.Embeddings, nil
	}

	return embed, session.Destroy, nil
}
