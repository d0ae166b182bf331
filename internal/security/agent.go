package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"regexp"
	"strings"

	"health-agents/internal/common/logger"
)

// Messages returned by the checks.
const (
	BlockedMessage     = "Your request was blocked by security policy."
	ResponsibleMessage = "This topic needs care. If you are in crisis or considering self-harm, please contact a healthcare professional or your local emergency services right away."
	AuthFailedMessage  = "Authentication failed."
)

// blocklist terms reject the request outright.
var blocklist = []string{
	"hack", "attack", "drop database", "delete", "shutdown",
	"poison", "make drug", "kill", "bomb",
}

// responsibleTerms reject the request with a care-seeking message
// instead of the generic policy one.
var responsibleTerms = []string{
	"suicide", "kill myself", "harm myself", "poison",
	"self medicate", "what medicine should i take",
	"overdose", "illegal drugs",
}

// ErrCiphertextInvalid is returned for tokens too short to carry a nonce.
var ErrCiphertextInvalid = errors.New("CIPHERTEXT_INVALID")

var phoneRe = regexp.MustCompile(`\d{10}`)

// Agent is the in-process security worker: credential check, term
// screening, masking, and payload encryption.
type Agent struct {
	users  map[string]string // username -> md5(password) hex
	aead   cipher.AEAD
	logger logger.Logger
}

// NewAgent seeds the user table with the given credentials and derives
// the encryption key from the shared secret.
func NewAgent(username, password string, log logger.Logger) (*Agent, error) {
	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	users := map[string]string{
		username: hashPassword(password),
	}

	return &Agent{
		users: users,
		aead:  aead,
		logger: log.With(map[string]interface{}{
			"agent": "security",
		}),
	}, nil
}

func hashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Authenticate checks the stored digest for the user.
func (a *Agent) Authenticate(username, password string) bool {
	stored, ok := a.users[username]
	if !ok {
		return false
	}
	return stored == hashPassword(password)
}

// Precheck screens an inbound question. It fails closed on credentials,
// blocklisted terms, and unsafe health topics.
func (a *Agent) Precheck(username, password, text string) PrecheckOutcome {
	if !a.Authenticate(username, password) {
		return PrecheckOutcome{Available: true, OK: false, Message: AuthFailedMessage}
	}

	lower := strings.ToLower(text)
	for _, term := range blocklist {
		if strings.Contains(lower, term) {
			a.logger.Warn("request blocked", map[string]interface{}{"term": term})
			return PrecheckOutcome{Available: true, OK: false, Message: BlockedMessage}
		}
	}
	for _, term := range responsibleTerms {
		if strings.Contains(lower, term) {
			a.logger.Warn("unsafe health query rejected", map[string]interface{}{"term": term})
			return PrecheckOutcome{Available: true, OK: false, Message: ResponsibleMessage}
		}
	}
	return PrecheckOutcome{Available: true, OK: true}
}

// Postcheck masks identifiers in the outbound summary and returns an
// encrypted copy of the masked text.
func (a *Agent) Postcheck(text string) PostcheckOutcome {
	masked := Mask(text)
	encrypted, err := a.Encrypt(masked)
	if err != nil {
		a.logger.Error("encrypt failed", map[string]interface{}{"error": err.Error()})
		return PostcheckOutcome{Available: true, Masked: masked}
	}
	return PostcheckOutcome{Available: true, Masked: masked, Encrypted: encrypted}
}

// Mask blanks out ten-digit runs, the shape of local phone numbers.
func Mask(text string) string {
	return phoneRe.ReplaceAllString(text, "**********")
}

// Encrypt seals the text with AES-GCM; output is base64(nonce||ciphertext).
func (a *Agent) Encrypt(text string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (a *Agent) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	ns := a.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrCiphertextInvalid
	}
	plain, err := a.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
