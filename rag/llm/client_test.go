package llm

import (
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/kittipos/callroom/rag/contract"
)

func TestValidateMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msgs []*schema.Message
		ok   bool
	}{
		{
			name: "system then user",
			msgs: []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("hi")},
			ok:   true,
		},
		{
			name: "system, assistant, user",
			msgs: []*schema.Message{schema.SystemMessage("sys"), schema.AssistantMessage("prev", nil), schema.UserMessage("hi")},
			ok:   true,
		},
		{
			name: "empty",
			msgs: nil,
		},
		{
			name: "no system message",
			msgs: []*schema.Message{schema.UserMessage("hi")},
		},
		{
			name: "system last",
			msgs: []*schema.Message{schema.UserMessage("hi"), schema.SystemMessage("sys")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateMessages(tc.msgs)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Model: "gpt-4o-mini"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing api key, got %v", err)
	}

	_, err = NewClient(Config{APIKey: "sk-test"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing model, got %v", err)
	}
}

func TestToCompletionParamsRejectsToolRole(t *testing.T) {
	t.Parallel()

	_, err := toCompletionParams([]*schema.Message{
		schema.SystemMessage("sys"),
		{Role: schema.Tool, Content: "x"},
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
