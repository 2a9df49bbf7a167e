// Package password 负责密码哈希与强度校验。
//
// 强度规则：至少 MinLength 个字符、不能全是数字、不能是常见密码。
package password

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinLength = 8

//go:embed common_passwords.txt
var commonList string

var common = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, line := range strings.Split(commonList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			m[strings.ToLower(line)] = struct{}{}
		}
	}
	return m
}()

var (
	ErrTooShort   = fmt.Errorf("password must contain at least %d characters", MinLength)
	ErrAllNumeric = errors.New("password cannot be entirely numeric")
	ErrTooCommon  = errors.New("password is too common")
)

// Validate 返回所有未通过的规则，全部通过时返回 nil
func Validate(pw string) []error {
	var problems []error
	if len([]rune(pw)) < MinLength {
		problems = append(problems, ErrTooShort)
	}
	if pw != "" && isNumeric(pw) {
		problems = append(problems, ErrAllNumeric)
	}
	if _, ok := common[strings.ToLower(strings.TrimSpace(pw))]; ok {
		problems = append(problems, ErrTooCommon)
	}
	return problems
}

// Hash 生成 bcrypt 哈希（内含随机盐）
func Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify 校验明文与哈希是否匹配
func Verify(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
