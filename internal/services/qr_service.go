package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pocketfund/backend/internal/config"
	"github.com/skip2/go-qrcode"
)

// QRService renders account top-up requests as scannable codes. A request
// parks in Redis until scanned or expired; processing consumes it once.
type QRService struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
}

type topUpRequest struct {
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

func NewQRService(db *sql.DB, redisClient *redis.Client, cfg *config.FundsConfig) *QRService {
	if cfg == nil {
		cfg = config.LoadFundsConfig()
	}
	return &QRService{
		db:    db,
		redis: redisClient,
		ttl:   cfg.QRRequestTTL,
	}
}

// GenerateTopUpQR builds a QR code asking someone to top up the account by
// amount minor units. Returns the opaque code plus a base64 PNG.
func (s *QRService) GenerateTopUpQR(ctx context.Context, accountID string, amount int64) (string, string, error) {
	var currency string
	err := s.db.QueryRowContext(ctx, `SELECT currency FROM accounts WHERE id = $1`, accountID).Scan(&currency)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return "", "", err
	}

	request := topUpRequest{
		AccountID: accountID,
		Amount:    amount,
		Currency:  currency,
		Timestamp: time.Now().Unix(),
		Nonce:     s.generateNonce(),
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("qr:topup:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, s.ttl).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return code, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ProcessTopUpQR consumes a scanned code and returns the request behind it.
func (s *QRService) ProcessTopUpQR(ctx context.Context, code string) (map[string]any, error) {
	key := fmt.Sprintf("qr:topup:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired QR code")
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return result, nil
}

func (s *QRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
