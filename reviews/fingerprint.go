package reviews

import "fmt"

const bodyPrefixLength = 30

// FallbackID derives a stable identifier for reviews without a native one.
// The key is author|rating|date|body[0:30] run through a djb2 rolling hash,
// rendered as lowercase hex with an "R" prefix.
func FallbackID(author string, rating int, reviewDate, body string) string {
	prefix := body
	if len(prefix) > bodyPrefixLength {
		prefix = prefix[:bodyPrefixLength]
	}
	key := fmt.Sprintf("%s|%d|%s|%s", author, rating, reviewDate, prefix)
	return fmt.Sprintf("R%x", djb2(key))
}

// djb2: seed 5381, multiply-by-33-plus-char accumulation over the raw bytes,
// truncated to 32 bits.
func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}
