package service

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/Noashop/test-pago-sub003/internal/biz"
)

// ParseNotification 支持两种推送格式 {type, data.id} 与 {topic, resource|id}，
// 以及网关通过 query 参数重放。body 中的字段优先。
func ParseNotification(query url.Values, body []byte) *biz.PaymentNotification {
	n := &biz.PaymentNotification{}

	if len(bytes.TrimSpace(body)) > 0 {
		var payload map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&payload); err == nil {
			n.Type = firstString(payload["type"], payload["topic"])
			if data, ok := payload["data"].(map[string]interface{}); ok {
				n.PaymentID = idString(data["id"])
			}
			if n.PaymentID == "" {
				n.PaymentID = resourceID(idString(payload["resource"]))
			}
			if n.PaymentID == "" {
				n.PaymentID = idString(payload["id"])
			}
		}
	}

	if n.Type == "" {
		n.Type = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	if n.PaymentID == "" {
		n.PaymentID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	}
	return n
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	}
	return ""
}

// resourceID resource 可能是完整的资源 URL
func resourceID(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func firstString(vs ...interface{}) string {
	for _, v := range vs {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
