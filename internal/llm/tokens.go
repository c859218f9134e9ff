package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// perMessageOverhead approximates the role and separator tokens chat models add per message.
const perMessageOverhead = 4

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func loadCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// EstimateTokens returns an approximate prompt size for messages.
func EstimateTokens(messages []ChatMessage) int {
	enc := loadCodec()

	total := 0
	for _, msg := range messages {
		total += perMessageOverhead
		if enc == nil {
			total += len(msg.Content) / 4
			continue
		}
		ids, _, err := enc.Encode(msg.Content)
		if err != nil {
			total += len(msg.Content) / 4
			continue
		}
		total += len(ids)
	}
	return total
}
