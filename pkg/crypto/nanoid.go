package crypto

import "crypto/rand"

const (
	nanoidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	nanoidSize     = 22 // 22 * 6 = 132 bits (uuid is 128 bits) of entropy
)

// NanoIDGenerator produces compact URL-safe identifiers. The alphabet has
// exactly 64 characters, so every masked random byte maps to a character and
// no rejection sampling is needed.
type NanoIDGenerator struct{}

func NewNanoID() *NanoIDGenerator {
	return &NanoIDGenerator{}
}

func (n *NanoIDGenerator) Generate() (string, error) {
	id := make([]byte, nanoidSize)
	if _, err := rand.Read(id); err != nil {
		return "", err
	}

	for i, b := range id {
		id[i] = nanoidAlphabet[b&63]
	}

	return string(id), nil
}
