package session

import "github.com/anshul-jain-devx108/shopmind/pkg/types"

// FoldMessage folds a single message into updated session metadata. It is a
// pure function: the input metadata is never mutated and the returned value
// carries fresh slices.
//
// Counting rules:
//   - MessageCount always increments; exactly one of UserMessageCount or
//     BotMessageCount increments with it.
//   - ProductInteractions grows by the number of attached products.
//   - User message content is recorded as a search query verbatim, repeats
//     included.
//   - Categories is a set: each product's category is added once, keeping
//     first-seen order.
func FoldMessage(meta types.SessionMetadata, msg types.Message) types.SessionMetadata {
	out := meta
	out.SearchQueries = append([]string(nil), meta.SearchQueries...)
	out.Categories = append([]string(nil), meta.Categories...)

	out.MessageCount++
	switch msg.Sender {
	case types.SenderUser:
		out.UserMessageCount++
		out.SearchQueries = append(out.SearchQueries, msg.Content)
	default:
		out.BotMessageCount++
	}

	out.ProductInteractions += len(msg.Products)

	for _, p := range msg.Products {
		if !containsString(out.Categories, p.Category) {
			out.Categories = append(out.Categories, p.Category)
		}
	}

	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
