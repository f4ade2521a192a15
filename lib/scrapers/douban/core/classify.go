package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"doubansync-backend/lib/textutil"
)

// markers the site's challenge page renders, including the redirect
// target of the challenge itself (sec.douban.com).
var verificationMarkers = []string{
	"sec.douban.com",
	"异常请求",
	"验证码",
	"captcha",
	"verification",
	"robot check",
}

var blockedMarkers = []string{
	"access denied",
	"too many requests",
	"访问被拒绝",
	"请求过于频繁",
}

// markers of the login prompt an expired cookie gets bounced to.
var loginMarkers = []string{
	"登录豆瓣",
	"请先登录",
	"accounts.douban.com/passport/login",
}

type classifierRule struct {
	label    string
	classify func(statusCode int, body string) error
}

// evaluated in priority order, the first rule that matches wins.
var classifierRules = []classifierRule{
	{
		label: "forbidden",
		classify: func(statusCode int, _ string) error {
			if statusCode != http.StatusForbidden {
				return nil
			}
			return ForbiddenError{Err: fmt.Errorf("status 403, possible IP blocking")}
		},
	},
	{
		label: "verification_required",
		classify: func(statusCode int, body string) error {
			if !textutil.ContainsAnyFold(body, verificationMarkers) {
				return nil
			}
			return VerificationRequiredError{Err: fmt.Errorf(
				"response demands human verification (status %d)", statusCode,
			)}
		},
	},
	{
		label: "blocked",
		classify: func(statusCode int, body string) error {
			if !textutil.ContainsAnyFold(body, blockedMarkers) {
				return nil
			}
			return BlockedError{Err: fmt.Errorf(
				"response indicates a temporary block (status %d)", statusCode,
			)}
		},
	},
}

// Classify inspects a completed response and returns a classified
// error, or nil when the body is usable. Statuses other than 403 pass
// through so callers can inspect error pages themselves.
func Classify(statusCode int, body string) error {
	for _, rule := range classifierRules {
		err := rule.classify(statusCode, body)
		if err != nil {
			slog.Debug("response classified", "rule", rule.label, "status", statusCode)
			return err
		}
	}
	return nil
}
