package utils

import (
	"strconv"
	"strings"
)

// ParseCount разбирает введённое оператором количество. Оператор вводит
// значение руками со сканера или с клавиатуры, поэтому мусор и пустая
// строка трактуются как 0, а не как ошибка.
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
