package service

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateFeedURL 验证订阅源URL的合法性：仅允许HTTP/HTTPS，禁止内部网络地址
func ValidateFeedURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("订阅源URL不能为空")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("无效的URL格式: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("只允许HTTP/HTTPS协议: %s", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("URL缺少主机名: %s", rawURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("禁止访问内部网络地址: %s", host)
	}

	// 主机名是IP字面量时覆盖完整的保留地址段：
	// 环回、RFC1918私有网段、链路本地、未指定地址
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
			ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("禁止访问内部网络地址: %s", host)
		}
	}

	return nil
}
