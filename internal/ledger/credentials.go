package ledger

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ventolog/ventolog/internal/record"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// codeAttempts bounds collision re-rolls. With 36^6 possible codes
	// a collision is already rare at personal scale; exhausting the
	// bound means the randomness source is broken, not the space.
	codeAttempts = 10

	tokenBytes = 32
)

// IssueCode mints a new credential code and stores it. Codes are six
// characters drawn uniformly from A-Z0-9; on collision with an
// existing code a fresh one is drawn, up to codeAttempts.
func (l *Ledger) IssueCode() (string, error) {
	var code string
	err := l.store.Update(func(doc *record.Document) (bool, error) {
		for attempt := 0; attempt < codeAttempts; attempt++ {
			candidate, err := l.randomCode()
			if err != nil {
				return false, err
			}
			if findCredential(doc.Codes, candidate) != nil {
				continue
			}
			doc.Codes = append(doc.Codes, record.Credential{
				Code:      candidate,
				CreatedAt: l.now(),
			})
			code = candidate
			return true, nil
		}
		return false, fmt.Errorf("issue code: no unused code in %d attempts", codeAttempts)
	})
	return code, err
}

// AuthenticateCode records a login for the code, stamping its
// last_login_at. Unknown codes return ErrCodeNotFound.
func (l *Ledger) AuthenticateCode(code string) error {
	return l.store.Update(func(doc *record.Document) (bool, error) {
		cred := findCredential(doc.Codes, code)
		if cred == nil {
			return false, ErrCodeNotFound
		}
		cred.LastLoginAt = l.now()
		return true, nil
	})
}

// IssueToken returns the pairing token for a code, minting one on
// first call. Repeat calls return the stored token unchanged, with its
// original token_generated_at: re-pairing a device never invalidates
// tokens already handed out.
func (l *Ledger) IssueToken(code string) (string, error) {
	var token string
	err := l.store.Update(func(doc *record.Document) (bool, error) {
		cred := findCredential(doc.Codes, code)
		if cred == nil {
			return false, ErrCodeNotFound
		}
		if cred.Token != "" {
			token = cred.Token
			return false, nil
		}

		raw := make([]byte, tokenBytes)
		if _, err := io.ReadFull(l.rand, raw); err != nil {
			return false, fmt.Errorf("issue token: %w", err)
		}
		cred.Token = hex.EncodeToString(raw)
		cred.TokenGeneratedAt = l.now()
		token = cred.Token
		return true, nil
	})
	return token, err
}

// ResolveToken returns the code a token belongs to. Unknown or empty
// tokens return ErrTokenInvalid.
func (l *Ledger) ResolveToken(token string) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}
	var code string
	err := l.store.View(func(doc record.Document) error {
		for i := range doc.Codes {
			if doc.Codes[i].Token == token {
				code = doc.Codes[i].Code
				return nil
			}
		}
		return ErrTokenInvalid
	})
	return code, err
}

// CodeExists reports whether the code has been issued.
func (l *Ledger) CodeExists(code string) (bool, error) {
	var found bool
	err := l.store.View(func(doc record.Document) error {
		found = findCredential(doc.Codes, code) != nil
		return nil
	})
	return found, err
}

// randomCode draws codeLength characters uniformly from codeAlphabet.
// Bytes that would bias the modulo are discarded and redrawn.
func (l *Ledger) randomCode() (string, error) {
	const limit = byte(256 - 256%len(codeAlphabet))
	buf := make([]byte, codeLength)
	var b [1]byte
	for i := 0; i < codeLength; {
		if _, err := io.ReadFull(l.rand, b[:]); err != nil {
			return "", fmt.Errorf("draw code: %w", err)
		}
		if b[0] >= limit {
			continue
		}
		buf[i] = codeAlphabet[int(b[0])%len(codeAlphabet)]
		i++
	}
	return string(buf), nil
}
