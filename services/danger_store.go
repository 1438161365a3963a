package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DangerOTP текущий код подтверждения опасных операций
type DangerOTP struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DangerOTPStore хранит единственный действующий код; новый код заменяет старый
type DangerOTPStore interface {
	Put(ctx context.Context, otp DangerOTP) error
	Get(ctx context.Context) (*DangerOTP, error) // nil, если кода нет
	Clear(ctx context.Context) error
}

// MemoryDangerStore хранит код в памяти процесса
type MemoryDangerStore struct {
	mu      sync.Mutex
	current *DangerOTP
}

func NewMemoryDangerStore() *MemoryDangerStore {
	return &MemoryDangerStore{}
}

func (m *MemoryDangerStore) Put(_ context.Context, otp DangerOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &otp
	return nil
}

func (m *MemoryDangerStore) Get(_ context.Context) (*DangerOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, nil
	}
	cp := *m.current
	return &cp, nil
}

func (m *MemoryDangerStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

const dangerOTPKey = "invoicer:danger:otp"

// RedisDangerStore хранит код в Redis, чтобы он был общим для всех реплик
type RedisDangerStore struct {
	client *redis.Client
	key    string
}

func NewRedisDangerStore(client *redis.Client) *RedisDangerStore {
	return &RedisDangerStore{client: client, key: dangerOTPKey}
}

func (r *RedisDangerStore) Put(ctx context.Context, otp DangerOTP) error {
	ttl := time.Until(otp.ExpiresAt)
	if ttl <= 0 {
		return r.Clear(ctx)
	}
	payload, err := json.Marshal(otp)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store danger OTP: %w", err)
	}
	return nil
}

func (r *RedisDangerStore) Get(ctx context.Context) (*DangerOTP, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read danger OTP: %w", err)
	}
	var otp DangerOTP
	if err := json.Unmarshal(payload, &otp); err != nil {
		return nil, fmt.Errorf("failed to decode danger OTP: %w", err)
	}
	return &otp, nil
}

func (r *RedisDangerStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
