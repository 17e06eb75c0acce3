package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMD5(t *testing.T) {
	// RFC 1321的标准测试向量
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(""))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f45", CalculateMD5("abc"))
}

func TestCalculateAuthorizationHeader(t *testing.T) {
	// Authorization头 = MD5(apiKey + 时间戳后4位)，等价于拼接后的MD5
	assert.Equal(t, CalculateMD5("my-key1234"), CalculateAuthorizationHeader("my-key", "1234"))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f45", CalculateAuthorizationHeader("a", "bc"))
}

func TestCalculateFileMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	sum, err := CalculateFileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f45", sum)
}

func TestCalculateFileMD5_MissingFile(t *testing.T) {
	_, err := CalculateFileMD5(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
