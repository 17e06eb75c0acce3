package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// CalculateMD5 计算字符串的MD5哈希值，返回32位小写十六进制字符串
func CalculateMD5(input string) string {
	hasher := md5.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

// CalculateFileMD5 流式计算文件内容的MD5，用于判断数据集文件是否已导入过
func CalculateFileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// CalculateAuthorizationHeader 计算Authorization头的值：apiKey+timestamp后4位的MD5值
func CalculateAuthorizationHeader(apiKey string, timestampLastFourDigits string) string {
	authStr := apiKey + timestampLastFourDigits
	return CalculateMD5(authStr)
}
