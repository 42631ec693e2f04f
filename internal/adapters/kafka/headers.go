package kafka

import (
	"sort"

	"github.com/segmentio/kafka-go"

	"github.com/reybrally/cart-service/internal/app/eventlog"
)

func toHeaders(m map[string]string) []kafka.Header {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(m))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(m[k])})
	}
	return out
}

func fromHeaders(hs []kafka.Header) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Key] = string(h.Value)
	}
	return out
}

func toMessage(m kafka.Message) eventlog.Message {
	return eventlog.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   fromHeaders(m.Headers),
		Time:      m.Time,
	}
}
