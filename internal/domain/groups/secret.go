package groups

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	secretMarker   = '#'
	secretBodySize = AccessSecretLimit - 1
	secretAttempts = 10

	fallbackLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	secretDigits    = "23456789"
	secretSymbols   = "!@$%&*?"
)

func generateUniqueSecret(ctx context.Context, repo Repository, groupName string) (string, error) {
	for i := 0; i < secretAttempts; i++ {
		secret, err := generateSecret(groupName)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsAccessSecretTaken(ctx, secret)
		if err != nil {
			return "", err
		}
		if !taken {
			return secret, nil
		}
	}
	return "", ErrSecretGenerationFailed
}

// generateSecret mixes letters taken from the group name with digits and
// symbols. The body always holds at least one character of each class.
func generateSecret(groupName string) (string, error) {
	letters := nameLetters(groupName)
	classes := []string{letters, secretDigits, secretSymbols}

	body := make([]byte, 0, secretBodySize)
	for _, class := range classes {
		ch, err := pick(class)
		if err != nil {
			return "", err
		}
		body = append(body, ch)
	}

	pool := letters + secretDigits + secretSymbols
	for len(body) < secretBodySize {
		ch, err := pick(pool)
		if err != nil {
			return "", err
		}
		body = append(body, ch)
	}

	if err := shuffle(body); err != nil {
		return "", err
	}

	return string(secretMarker) + string(body), nil
}

func nameLetters(name string) string {
	seen := make(map[byte]struct{})
	var builder strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r < 'A' || r > 'Z' {
			continue
		}
		ch := byte(r)
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		builder.WriteByte(ch)
	}
	if builder.Len() == 0 {
		return fallbackLetters
	}
	return builder.String()
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}

func shuffle(values []byte) error {
	for i := len(values) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		values[i], values[j] = values[j], values[i]
	}
	return nil
}
