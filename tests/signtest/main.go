package main

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"persona_analyzer/utils"
)

// 手动排查推送签名用的小工具：打印指定时间戳对应的Authorization头，
// 和外部展示服务日志里记录的值比对。
func main() {
	// 加载.env文件
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("无法加载.env文件: %v", err)
	}

	// 从.env文件读取EXTERNAL_API_KEY
	apiKey := os.Getenv("EXTERNAL_API_KEY")
	if apiKey == "" {
		log.Fatalf("EXTERNAL_API_KEY未在.env文件中设置")
	}

	// 时间戳可以从命令行传入，默认用当前毫秒时间戳
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(os.Args) > 1 {
		timestamp = os.Args[1]
	}
	if len(timestamp) < 4 {
		log.Fatalf("时间戳太短: %s", timestamp)
	}
	lastFour := timestamp[len(timestamp)-4:]

	fmt.Printf("时间戳: %s\n", timestamp)
	fmt.Printf("时间戳后4位: %s\n", lastFour)

	// 独立于utils再算一遍，防止两边一起错
	hasher := md5.New()
	hasher.Write([]byte(apiKey + lastFour))
	raw := hex.EncodeToString(hasher.Sum(nil))

	header := utils.CalculateAuthorizationHeader(apiKey, lastFour)

	fmt.Printf("手算MD5: %s\n", raw)
	fmt.Printf("Authorization头: %s\n", header)
	fmt.Printf("是否一致: %v\n", raw == header)
}
