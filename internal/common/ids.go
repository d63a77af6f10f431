package common

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator выдаёт уникальные идентификаторы записей викторины,
// аватаров и сессий.
type IDGenerator func() string

// NewUUIDGenerator — генератор для прода: prefix + UUIDv4.
func NewUUIDGenerator(prefix string) IDGenerator {
	return func() string {
		return prefix + uuid.NewString()
	}
}

// NewSequenceGenerator выдаёт prefix1, prefix2, ... Нужен тестам,
// чтобы проверять точные идентификаторы.
func NewSequenceGenerator(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}
