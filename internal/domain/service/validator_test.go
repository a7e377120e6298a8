package service

import "testing"

func TestValidateFeedURL(t *testing.T) {
	valid := []string{
		"https://news.smol.ai/rss.xml",
		"http://example.com/feed",
		"http://172.32.0.1/feed", // 私有段边界之外
		"http://11.0.0.1/feed",
	}
	for _, u := range valid {
		if err := ValidateFeedURL(u); err != nil {
			t.Errorf("ValidateFeedURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"ftp://example.com/feed",
		"file:///etc/passwd",
		"https://",
		"http://localhost:8080/feed",
		"http://sub.localhost/feed",
		"http://127.0.0.1/feed",
		"http://127.8.8.8/feed",
		"http://0.0.0.0/feed",
		"http://[::1]/feed",
		"http://192.168.1.5/feed",
		"http://10.255.1.2/feed",
		"http://172.16.0.1/feed",
		"http://172.31.255.254/feed",
		"http://169.254.169.254/latest/meta-data",
		"http://[fe80::1]/feed",
	}
	for _, u := range invalid {
		if err := ValidateFeedURL(u); err == nil {
			t.Errorf("ValidateFeedURL(%q) = nil, want error", u)
		}
	}
}
