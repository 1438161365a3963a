package services

import (
	"fmt"
	"time"

	"invoicer/utils"

	"gorm.io/gorm"
)

// nextNumber выдает следующий номер документа пользователя в году: PREFIX-2026-0001.
// Вызывать внутри транзакции создания документа.
func nextNumber(tx *gorm.DB, model interface{}, prefix string, userID uint, now time.Time) (string, error) {
	var count int64
	err := tx.Model(model).
		Where("user_id = ? AND created_at >= ?", userID, utils.BeginningOfYear(now)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, now.Year(), count+1), nil
}
