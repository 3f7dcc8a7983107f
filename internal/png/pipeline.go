package png

// PipelineStage turns one image into another. A stage must not modify its
// input, so every intermediate image stays valid.
type PipelineStage interface {
	Process(img *Image) (*Image, error)
}

// Pipeline runs img through stages in order and returns the final image.
// With no stages the result is img itself.
func (img *Image) Pipeline(stages ...PipelineStage) (*Image, error) {
	out := img
	for _, stage := range stages {
		next, err := stage.Process(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
