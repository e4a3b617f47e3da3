package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"

	// DefaultLocale 未识别语言时的回退语言
	DefaultLocale = LocaleEN
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	loadOnce sync.Once
	catalogs map[string]map[string]string
	loadErr  error
)

func load() {
	catalogs = make(map[string]map[string]string)
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		loadErr = err
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		raw, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			loadErr = err
			return
		}
		messages := make(map[string]string)
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			loadErr = fmt.Errorf("parse locale %s failed: %w", name, err)
			return
		}
		catalogs[strings.TrimSuffix(name, ".yaml")] = messages
	}
}

// Err 返回语言包加载错误
func Err() error {
	loadOnce.Do(load)
	return loadErr
}

// T 翻译消息，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	loadOnce.Do(load)
	if msg, ok := catalogs[NormalizeLocale(locale)][key]; ok {
		return msg
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

// NormalizeLocale 归一化语言标识
func NormalizeLocale(locale string) string {
	value := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case value == "":
		return DefaultLocale
	case strings.HasPrefix(value, "zh"):
		return LocaleZH
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	}
	return DefaultLocale
}

// ResolveLocale 从请求解析语言：lang 参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	first := strings.Split(header, ",")[0]
	first = strings.Split(first, ";")[0]
	return NormalizeLocale(first)
}
