package confirmation

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"ms-registration/internal/models"

	"github.com/skip2/go-qrcode"
)

// CheckInBadge is the payload encoded into a confirmation QR. The door
// scanner decrypts it to verify the party without a network round trip.
type CheckInBadge struct {
	RegistrationID string             `json:"registration_id"`
	EventID        string             `json:"event_id"`
	Name           string             `json:"name"`
	PackageType    models.PackageType `json:"package_type"`
	Role           models.Role        `json:"role"`
	TableNumber    int                `json:"table_number,omitempty"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	IssuedAt       time.Time          `json:"issued_at"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateBadge renders an encrypted check-in QR for one registration.
func (q *QRGenerator) GenerateBadge(reg models.Registration) ([]byte, error) {
	badge := CheckInBadge{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Name:           reg.FirstName + " " + reg.LastName,
		PackageType:    reg.PackageType,
		Role:           reg.Role,
		TableNumber:    reg.TableNumber,
		PaymentStatus:  reg.PaymentStatus,
		IssuedAt:       time.Now(),
	}

	data, err := json.Marshal(badge)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, q.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// DecodeBadge reverses the encryption for the door scanner.
func (q *QRGenerator) DecodeBadge(encoded string) (*CheckInBadge, error) {
	data, err := decryptAES(encoded, q.secret)
	if err != nil {
		return nil, err
	}
	var badge CheckInBadge
	if err := json.Unmarshal(data, &badge); err != nil {
		return nil, err
	}
	return &badge, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, io.ErrUnexpectedEOF
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])
	return data, nil
}
