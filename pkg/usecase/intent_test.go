package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/usecase"
)

func TestIntentFilter(t *testing.T) {
	f, err := usecase.NewIntentFilter(config.DefaultChatConfig().Intent.ListPatterns)
	gt.NoError(t, err).Required()

	testCases := []struct {
		message string
		intent  model.Intent
	}{
		{"What do you know about me?", model.IntentListMemories},
		{"Show me all my memories", model.IntentListMemories},
		{"list memories", model.IntentListMemories},
		{"memories?", model.IntentListMemories},
		{"What have you saved", model.IntentListMemories},
		{"My girlfriend is Carla", model.IntentChat},
		{"Do you remember where I live?", model.IntentChat},
		{"Hello", model.IntentChat},
	}

	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			gt.Value(t, f.Detect(tc.message)).Equal(tc.intent)
		})
	}

	_, err = usecase.NewIntentFilter([]string{"("})
	gt.Value(t, err).NotNil()
}
