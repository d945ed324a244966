package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/pkg/ai"
)

type generatorStub struct {
	calls int
	text  string
	err   error
}

func (g *generatorStub) Generate(context.Context, string, string, string) (string, error) {
	g.calls++
	return g.text, g.err
}

func TestGenerationServiceEchoesModelAndContext(t *testing.T) {
	gen := &generatorStub{text: "Objectives were met and learnings recorded."}
	svc := NewGenerationService(gen, zerolog.Nop())

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Model:   "google/flan-t5-large",
		Prompt:  "site visit",
		Context: "activity",
	})
	require.NoError(t, err)
	require.Equal(t, dto.GenerateResponse{
		Response: "Objectives were met and learnings recorded.",
		Model:    "google/flan-t5-large",
		Context:  "activity",
	}, resp)
}

func TestGenerationServiceRequiresModelAndPrompt(t *testing.T) {
	gen := &generatorStub{}
	svc := NewGenerationService(gen, zerolog.Nop())

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{Model: "gpt2"})
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	require.Equal(t, GenerationMessageDefault, genErr.Message)
	require.Equal(t, "Model and prompt are required", genErr.Error())
	require.Zero(t, gen.calls)
}

func TestGenerationMessageMapsErrorKinds(t *testing.T) {
	cases := map[ai.ErrorKind]string{
		ai.ErrorKindRateLimited:      GenerationMessageRateLimited,
		ai.ErrorKindModelUnavailable: GenerationMessageModel,
		ai.ErrorKindCredentials:      GenerationMessageCredentials,
		ai.ErrorKindDegenerate:       GenerationMessageDefault,
		ai.ErrorKindUpstream:         GenerationMessageDefault,
	}
	for kind, want := range cases {
		gen := &generatorStub{err: &ai.Error{Kind: kind, Message: "upstream said no"}}
		svc := NewGenerationService(gen, zerolog.Nop())

		_, err := svc.Generate(context.Background(), dto.GenerateRequest{Model: "gpt2", Prompt: "hello"})
		var genErr *GenerationError
		require.True(t, errors.As(err, &genErr), "kind %s", kind)
		require.Equal(t, want, genErr.Message, "kind %s", kind)
	}

	require.Equal(t, GenerationMessageDefault, GenerationMessage(errors.New("plain")))
}
