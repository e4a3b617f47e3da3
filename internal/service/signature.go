package service

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// SignatureDigest 签名图片摘要，空签名返回空串
func SignatureDigest(signature string) string {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(signature))
	return hex.EncodeToString(sum[:])
}

// SameSignature 比对已存档签名摘要，旧记录缺少摘要时按签名原文补算
func SameSignature(storedDigest, storedSignature, signature string) bool {
	incoming := SignatureDigest(signature)
	if incoming == "" {
		return false
	}
	if storedDigest == "" {
		storedDigest = SignatureDigest(storedSignature)
	}
	return storedDigest == incoming
}

// exportJobID 导出任务 ID，相同内容的重复导出会被队列去重
func exportJobID(kind string, body []byte) string {
	sum := blake3.Sum256(body)
	return kind + ":" + hex.EncodeToString(sum[:16])
}
