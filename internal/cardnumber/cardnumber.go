// Package cardnumber 会员卡号编解码
//
// 卡号格式为 "#XXXX-D"：XXXX 为四位补零的租户内序号，D 为 Luhn 校验位。
package cardnumber

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/revisit-loyalty/internal/constants"
)

// ErrSequenceOutOfRange 序号超出 [1, 9999]
var ErrSequenceOutOfRange = errors.New("card sequence out of range")

var cardPattern = regexp.MustCompile(`^#(\d{4})-(\d)$`)

// Encode 将序号编码为卡号
func Encode(sequence int) (string, error) {
	if sequence < constants.CardSequenceMin || sequence > constants.CardSequenceMax {
		return "", fmt.Errorf("%w: %d", ErrSequenceOutOfRange, sequence)
	}
	body := fmt.Sprintf("%04d", sequence)
	return "#" + body + "-" + strconv.Itoa(checkDigit(body)), nil
}

// Validate 校验卡号格式与校验位
func Validate(input string) bool {
	match := cardPattern.FindStringSubmatch(input)
	if match == nil {
		return false
	}
	return checkDigit(match[1]) == int(match[2][0]-'0')
}

// ExtractSequence 从已校验的卡号中取出序号
func ExtractSequence(cardNumber string) int {
	if len(cardNumber) < 5 {
		return 0
	}
	n, err := strconv.Atoi(cardNumber[1:5])
	if err != nil {
		return 0
	}
	return n
}

// Normalize 去除首尾空白并补全前缀 '#'
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
		trimmed = "#" + trimmed
	}
	return trimmed
}

// checkDigit 从右往左，下标为奇数的数字翻倍（超过 9 减 9）
func checkDigit(digits string) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
