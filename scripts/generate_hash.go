//go:build ignore

// generate_hash.go — утилита для генерации argon2id-хеша пароля родителя.
// Запуск: go run scripts/generate_hash.go ваш_пароль
//
// Результат вставьте в .env как PARENT_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/lumi-bot/internal/features/parent"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	hash, err := parent.HashPassword(os.Args[1], parent.DefaultHashParams)
	if err != nil {
		fmt.Printf("Ошибка: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Хеш пароля (вставьте в .env как PARENT_PASSWORD_HASH):")
	fmt.Println(hash)
}
