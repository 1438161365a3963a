package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/crypto/bcrypt"
)

// GenerateNumericCode генерирует случайный код ровно из digits цифр без ведущего нуля
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("unsupported code length %d", digits)
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return n.Add(n, low).String(), nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HostSecret выводит секрет из платформы хоста, архитектуры и объема памяти.
// При смене хоста секрет меняется.
func HostSecret() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read host info: %w", err)
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return "", fmt.Errorf("failed to read memory info: %w", err)
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", info.OS, info.Platform, runtime.GOARCH, vm.Total)))
	return hex.EncodeToString(sum[:]), nil
}
