package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wolfitem/newshub/internal/domain/model"
)

func TestTranslateParsesSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "en" || q.Get("tl") != "zh-CN" || q.Get("dt") != "t" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("q") != "Hello world. Goodbye." {
			t.Errorf("q = %q", q.Get("q"))
		}
		_, _ = w.Write([]byte(`[[["你好世界。","Hello world.",null,null,10],["再见。","Goodbye.",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	g := New(model.TranslateConfig{APIUrl: srv.URL, Timeout: 2})
	got, err := g.Translate(context.Background(), "Hello world. Goodbye.", "en", "zh-CN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "你好世界。再见。" {
		t.Errorf("got %q", got)
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	g := New(model.TranslateConfig{APIUrl: "http://127.0.0.1:0"})
	got, err := g.Translate(context.Background(), "", "en", "zh-CN")
	if err != nil || got != "" {
		t.Errorf("empty input should short-circuit, got %q, %v", got, err)
	}
}

func TestTranslateNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := New(model.TranslateConfig{APIUrl: srv.URL, Timeout: 2})
	if _, err := g.Translate(context.Background(), "text", "en", "zh-CN"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestParseResponseMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte("not json"),
		[]byte("[]"),
		[]byte(`{"unexpected":"object"}`),
		[]byte(`["not an array"]`),
	}
	for _, body := range cases {
		if _, err := parseResponse(body); err == nil {
			t.Errorf("parseResponse(%s) = nil error, want failure", body)
		}
	}
}

func TestParseResponseSkipsBadSegments(t *testing.T) {
	got, err := parseResponse([]byte(`[[["第一段"],null,[],[123]],null]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "第一段" {
		t.Errorf("got %q", got)
	}
}
